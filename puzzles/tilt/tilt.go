// Package tilt implements the tilt-switch puzzle: holding the box in the
// target orientation for a hold window solves it. After a post-solve delay
// the puzzle takes over its status indicator and fades it out.
package tilt

import (
	"time"

	"github.com/sintlab/lockbox/hw"
	"github.com/sintlab/lockbox/puzzle"
)

// Config carries the timing of the puzzle.
type Config struct {
	DebounceWindow time.Duration
	Hold           time.Duration

	// FadeDelay is how long the indicator stays solid after the solve
	// before the fade starts. FadeStep is the intensity drop per tick.
	FadeDelay time.Duration
	FadeStep  uint8
}

// DefaultConfig returns the timing the original box was tuned with.
func DefaultConfig() Config {
	return Config{
		DebounceWindow: 30 * time.Millisecond,
		Hold:           800 * time.Millisecond,
		FadeDelay:      5 * time.Second,
		FadeStep:       2,
	}
}

// Puzzle is the tilt-switch puzzle. It implements puzzle.Puzzle.
type Puzzle struct {
	*puzzle.HookableBase

	name string
	cfg  Config
	in   *puzzle.DebouncedInput

	solved      bool
	active      bool
	activeSince time.Time

	solvedAt   time.Time
	fadeActive bool
	level      uint8
}

// New creates a tilt puzzle reading the given input.
func New(name string, in hw.DigitalInput, cfg Config) *Puzzle {
	return &Puzzle{
		HookableBase: puzzle.NewHookableBase(),
		name:         name,
		cfg:          cfg,
		in:           puzzle.NewDebouncedInput(in, cfg.DebounceWindow),
	}
}

// Name returns the name of the puzzle.
func (p *Puzzle) Name() string {
	return p.name
}

// Begin initializes the puzzle state. The input needs no configuration.
func (p *Puzzle) Begin() {
	p.Reset()
}

// Update samples the tilt switch and tracks the hold window. After the
// solve it runs the delayed indicator fade.
func (p *Puzzle) Update(now time.Time) {
	if !p.solved {
		stable := p.in.Read(now)

		if stable && !p.active {
			p.active = true
			p.activeSince = now
		} else if !stable {
			p.active = false
		}

		if p.active && now.Sub(p.activeSince) >= p.cfg.Hold {
			p.solved = true
			p.solvedAt = now
			p.fadeActive = false
			p.level = 255
			p.InvokeHook(puzzle.HookCtx{Domain: p, Pos: puzzle.HookPosSolved})
		}

		return
	}

	if !p.fadeActive && now.Sub(p.solvedAt) >= p.cfg.FadeDelay {
		p.fadeActive = true
		p.level = 255
	}

	if p.fadeActive && p.level > 0 {
		if p.level > p.cfg.FadeStep {
			p.level -= p.cfg.FadeStep
		} else {
			p.level = 0
		}
	}
}

// IsSolved reports whether the hold completed. Sticky until Reset.
func (p *Puzzle) IsSolved() bool {
	return p.solved
}

// Reset clears the solved flag and the fade state.
func (p *Puzzle) Reset() {
	p.solved = false
	p.active = false
	p.fadeActive = false
	p.level = 0
	p.in.Reset()
	p.InvokeHook(puzzle.HookCtx{Domain: p, Pos: puzzle.HookPosReset})
}

// StatusLevel defers to the coordinator until the fade takes over.
func (p *Puzzle) StatusLevel() int {
	if p.fadeActive {
		return int(p.level)
	}

	return puzzle.LevelAuto
}
