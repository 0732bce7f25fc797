package tilt_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sintlab/lockbox/hw/memio"
	"github.com/sintlab/lockbox/puzzle"
	"github.com/sintlab/lockbox/puzzles/tilt"
)

var _ = Describe("Puzzle", func() {
	var (
		in  *memio.Input
		p   *tilt.Puzzle
		cfg tilt.Config
		now time.Time
	)

	tick := func() {
		now = now.Add(10 * time.Millisecond)
		p.Update(now)
	}

	advance := func(d time.Duration) {
		end := now.Add(d)
		for now.Before(end) {
			tick()
		}
	}

	BeforeEach(func() {
		in = memio.NewInput()
		cfg = tilt.DefaultConfig()
		p = tilt.New("Tilt", in, cfg)
		p.Begin()
		now = time.Now()
	})

	It("should not solve before the hold window passes", func() {
		in.Set(true)
		advance(cfg.Hold / 2)

		Expect(p.IsSolved()).To(BeFalse())
	})

	It("should solve after holding the orientation", func() {
		in.Set(true)
		advance(cfg.Hold + 50*time.Millisecond)

		Expect(p.IsSolved()).To(BeTrue())
	})

	It("should restart the hold when the orientation is lost", func() {
		in.Set(true)
		advance(cfg.Hold / 2)

		in.Set(false)
		advance(cfg.DebounceWindow + 50*time.Millisecond)

		in.Set(true)
		advance(cfg.Hold * 3 / 4)

		Expect(p.IsSolved()).To(BeFalse())

		advance(cfg.Hold / 2)

		Expect(p.IsSolved()).To(BeTrue())
	})

	It("should stay solved when the orientation changes afterwards", func() {
		in.Set(true)
		advance(cfg.Hold + 50*time.Millisecond)

		in.Set(false)
		advance(time.Second)

		Expect(p.IsSolved()).To(BeTrue())
	})

	It("should fade the indicator after the post-solve delay", func() {
		in.Set(true)
		advance(cfg.Hold + 50*time.Millisecond)

		Expect(p.StatusLevel()).To(Equal(puzzle.LevelAuto))

		advance(cfg.FadeDelay)

		level := p.StatusLevel()
		Expect(level).To(BeNumerically("<=", 255))
		Expect(level).To(BeNumerically(">=", 0))

		advance(3 * time.Second)

		Expect(p.StatusLevel()).To(BeZero())
	})

	It("should start over after Reset", func() {
		in.Set(true)
		advance(cfg.Hold + 50*time.Millisecond)

		p.Reset()

		Expect(p.IsSolved()).To(BeFalse())
		Expect(p.StatusLevel()).To(Equal(puzzle.LevelAuto))
	})
})
