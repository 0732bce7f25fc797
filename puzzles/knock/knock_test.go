package knock_test

import (
	"errors"
	"io"
	"log"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sintlab/lockbox/hw/memio"
	"github.com/sintlab/lockbox/puzzle"
	"github.com/sintlab/lockbox/puzzles/knock"
)

type posCountHook struct {
	counts map[*puzzle.HookPos]int
}

func newPosCountHook() *posCountHook {
	return &posCountHook{counts: map[*puzzle.HookPos]int{}}
}

func (h *posCountHook) Func(ctx puzzle.HookCtx) {
	h.counts[ctx.Pos]++
}

var _ = Describe("Puzzle", func() {
	var (
		accel *memio.Accel
		p     *knock.Puzzle
		cfg   knock.Config
		now   time.Time
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

	// bang produces one sharp spike followed by a quiet gap.
	bang := func() {
		accel.SetAcceleration(0, 0, 15)
		tick()
		accel.Rest()
		advance(60 * time.Millisecond)
	}

	BeforeEach(func() {
		accel = memio.NewAccel()
		cfg = knock.DefaultConfig()
		p = knock.New("Knock", accel, cfg, log.New(io.Discard, "", 0))
		p.Begin()
		now = time.Now()
	})

	It("should solve on the required number of knocks within the window", func() {
		for i := 0; i < cfg.RequiredKnocks; i++ {
			Expect(p.IsSolved()).To(BeFalse())
			bang()
		}

		Expect(p.IsSolved()).To(BeTrue())
	})

	It("should forget knocks once the window expires", func() {
		for i := 0; i < cfg.RequiredKnocks-1; i++ {
			bang()
		}

		advance(cfg.Window + 100*time.Millisecond)

		for i := 0; i < cfg.RequiredKnocks-1; i++ {
			bang()
		}

		Expect(p.IsSolved()).To(BeFalse())

		bang()

		Expect(p.IsSolved()).To(BeTrue())
	})

	It("should count a sustained shake as a single knock", func() {
		accel.SetAcceleration(0, 0, 15)
		advance(time.Second)
		accel.Rest()
		advance(60 * time.Millisecond)

		for i := 0; i < 2; i++ {
			bang()
		}

		Expect(p.IsSolved()).To(BeFalse())

		bang()

		Expect(p.IsSolved()).To(BeTrue())
	})

	It("should clear progress on Reset", func() {
		for i := 0; i < cfg.RequiredKnocks-1; i++ {
			bang()
		}

		p.Reset()

		for i := 0; i < cfg.RequiredKnocks-1; i++ {
			bang()
		}

		Expect(p.IsSolved()).To(BeFalse())
	})

	It("should stay unsolvable when the accelerometer probe fails", func() {
		broken := memio.NewAccel()
		broken.FailWith(errors.New("i2c timeout"))

		hook := newPosCountHook()
		q := knock.New("Knock", broken, cfg, log.New(io.Discard, "", 0))
		q.AcceptHook(hook)
		q.Begin()

		Expect(hook.counts[puzzle.HookPosBeginFailed]).To(Equal(1))

		broken.Rest()
		broken.FailWith(nil)
		for i := 0; i < 10; i++ {
			q.Update(now)
		}

		Expect(q.IsSolved()).To(BeFalse())

		q.Reset()

		Expect(q.IsSolved()).To(BeFalse())
	})
})
