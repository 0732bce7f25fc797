package melody

import (
	"io"
	"log"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sintlab/lockbox/hw/memio"
	"github.com/sintlab/lockbox/puzzle"
)

type countingHook struct {
	counts map[*puzzle.HookPos]int
}

func newCountingHook() *countingHook {
	return &countingHook{counts: map[*puzzle.HookPos]int{}}
}

func (h *countingHook) Func(ctx puzzle.HookCtx) {
	h.counts[ctx.Pos]++
}

var _ = Describe("Puzzle", func() {
	var (
		bank *memio.Bank
		tone *memio.Tone
		hook *countingHook
		p    *Puzzle
		now  time.Time
	)

	tick := func() {
		now = now.Add(time.Millisecond)
		p.Update(now)
	}

	advance := func(d time.Duration) {
		end := now.Add(d)
		for now.Before(end) {
			tick()
		}
	}

	until := func(cond func() bool, limit time.Duration) {
		end := now.Add(limit)
		for !cond() && now.Before(end) {
			tick()
		}

		ExpectWithOffset(1, cond()).To(BeTrue())
	}

	activate := func() {
		for _, b := range p.cfg.ActivationButtons {
			bank.SetPin(p.cfg.ButtonPins[b], true)
		}

		tick()
		ExpectWithOffset(1, p.st).To(Equal(stateArmedDelay))

		for _, b := range p.cfg.ActivationButtons {
			bank.SetPin(p.cfg.ButtonPins[b], false)
		}
	}

	press := func(sym int) {
		bank.SetPin(p.cfg.ButtonPins[sym], true)
		tick()
		bank.SetPin(p.cfg.ButtonPins[sym], false)
	}

	enterInput := func() {
		until(func() bool { return p.st == stateAwaitingInput }, time.Minute)
	}

	// completeCurrentLength enters the input phase and keys in the current
	// build-up prefix correctly, ending in the success pause.
	completeCurrentLength := func() {
		enterInput()

		length := p.buildLen
		seq := p.currentRound().Sequence

		for i := 0; i < length; i++ {
			press(seq[i])
			advance(p.cfg.InputFeedback + 10*time.Millisecond)
		}

		ExpectWithOffset(1, p.st).To(Equal(stateSuccessPause))
	}

	BeforeEach(func() {
		bank = memio.NewBank()
		tone = memio.NewTone()
		hook = newCountingHook()

		p = MakeBuilder().
			WithTone(tone).
			WithBank(bank).
			WithLogger(log.New(io.Discard, "", 0)).
			Build("Melody")
		p.AcceptHook(hook)
		p.Begin()

		now = time.Now()
	})

	It("should stay dormant without the full activation gesture", func() {
		bank.SetPin(p.cfg.ButtonPins[0], true)
		bank.SetPin(p.cfg.ButtonPins[1], true)

		for i := 0; i < 100; i++ {
			tick()
		}

		Expect(p.st).To(Equal(stateAwaitingActivation))
	})

	It("should arm when all activation buttons are held together", func() {
		activate()

		Expect(p.st).To(Equal(stateArmedDelay))
	})

	It("should blink the indicator during the armed delay", func() {
		activate()

		levels := map[int]bool{}
		for p.st == stateArmedDelay {
			levels[p.StatusLevel()] = true
			tick()
		}

		Expect(levels).To(HaveKey(255))
		Expect(levels).To(HaveKey(0))
		Expect(p.st).To(Equal(statePlayback))
		Expect(p.StatusLevel()).To(Equal(puzzle.LevelAuto))
	})

	It("should play the baseline prefix before accepting input", func() {
		activate()
		enterInput()

		Expect(p.buildLen).To(Equal(p.cfg.Rounds[0].Baseline))
		Expect(p.cursor).To(BeZero())
	})

	It("should fail immediately on a wrong press and replay the same length", func() {
		activate()
		enterInput()

		wrong := p.currentRound().Sequence[0] + 1
		press(wrong)
		advance(p.cfg.InputFeedback + 10*time.Millisecond)

		Expect(p.st).To(Equal(stateFailurePause))
		Expect(p.buildLen).To(Equal(p.cfg.Rounds[0].Baseline))

		until(func() bool { return p.st == statePlayback }, time.Minute)
		enterInput()

		Expect(p.buildLen).To(Equal(p.cfg.Rounds[0].Baseline))
	})

	It("should jump to the full length after a success at the checkpoint", func() {
		activate()
		completeCurrentLength()

		until(func() bool { return p.st == statePlayback }, time.Minute)

		Expect(p.buildLen).To(Equal(p.currentRound().FullLength()))
	})

	It("should replay the full length after a late wrong input", func() {
		activate()
		completeCurrentLength()
		until(func() bool { return p.st == statePlayback }, time.Minute)

		full := p.currentRound().FullLength()
		Expect(p.buildLen).To(Equal(full))

		enterInput()
		seq := p.currentRound().Sequence
		for i := 0; i < 3; i++ {
			press(seq[i])
			advance(p.cfg.InputFeedback + 10*time.Millisecond)
		}

		wrong := (seq[3] + 1) % NumSymbols
		press(wrong)
		advance(p.cfg.InputFeedback + 10*time.Millisecond)

		Expect(p.st).To(Equal(stateFailurePause))
		Expect(p.buildLen).To(Equal(full))

		until(func() bool { return p.st == stateAwaitingInput }, time.Minute)

		Expect(p.buildLen).To(Equal(full))
	})

	It("should count consecutive timeouts and reset at the limit", func() {
		activate()

		for i := 1; i < p.cfg.TimeoutLimit; i++ {
			enterInput()
			advance(p.cfg.InputTimeout + 10*time.Millisecond)

			Expect(p.timeoutCount).To(Equal(i))
			Expect(p.st).To(Equal(stateFailurePause))
		}

		enterInput()
		advance(p.cfg.InputTimeout + 10*time.Millisecond)

		Expect(p.st).To(Equal(stateAwaitingActivation))
		Expect(p.timeoutCount).To(BeZero())
		Expect(hook.counts[puzzle.HookPosReset]).To(Equal(1))
	})

	It("should clear the timeout counter on any press", func() {
		activate()
		enterInput()
		advance(p.cfg.InputTimeout + 10*time.Millisecond)

		Expect(p.timeoutCount).To(Equal(1))

		until(func() bool { return p.st == stateAwaitingInput }, time.Minute)
		press(p.currentRound().Sequence[0])

		Expect(p.timeoutCount).To(BeZero())
	})

	It("should solve after completing every round", func() {
		for i := 0; i < 10 && !p.IsSolved(); i++ {
			if p.st == stateAwaitingActivation {
				activate()
			}

			completeCurrentLength()
			until(func() bool {
				return p.st != stateSuccessPause
			}, time.Minute)
		}

		Expect(p.IsSolved()).To(BeTrue())
		Expect(hook.counts[puzzle.HookPosSolved]).To(Equal(1))
		Expect(hook.counts[puzzle.HookPosRoundAdvance]).To(Equal(len(p.cfg.Rounds) - 1))
	})

	It("should require the activation gesture again between rounds", func() {
		activate()
		completeCurrentLength()
		until(func() bool { return p.st == statePlayback }, time.Minute)
		completeCurrentLength()
		until(func() bool { return p.st != stateSuccessPause }, time.Minute)

		Expect(p.round).To(Equal(1))
		Expect(p.st).To(Equal(stateAwaitingActivation))
		Expect(p.buildLen).To(Equal(p.cfg.Rounds[1].Baseline))
	})

	It("should stay solved until Reset", func() {
		p.solved = true
		p.st = stateSolved

		for i := 0; i < 100; i++ {
			tick()
		}

		Expect(p.IsSolved()).To(BeTrue())

		p.Reset()

		Expect(p.IsSolved()).To(BeFalse())
		Expect(p.st).To(Equal(stateAwaitingActivation))
		Expect(p.round).To(BeZero())
		Expect(p.buildLen).To(Equal(p.cfg.Rounds[0].Baseline))
	})

	It("should stay unsolvable when no bank was bound", func() {
		orphan := MakeBuilder().
			WithTone(memio.NewTone()).
			WithLogger(log.New(io.Discard, "", 0)).
			Build("Orphan")
		orphanHook := newCountingHook()
		orphan.AcceptHook(orphanHook)

		orphan.Begin()

		Expect(orphanHook.counts[puzzle.HookPosBeginFailed]).To(Equal(1))

		orphan.Update(now)

		Expect(orphan.IsSolved()).To(BeFalse())
	})
})
