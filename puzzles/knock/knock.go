// Package knock implements the knock-detection puzzle: a fixed number of
// sharp knocks within a time window solves it. Acceleration spikes are
// turned into discrete knocks with a hysteresis threshold, so shaking the
// box does not count as a burst of knocks.
package knock

import (
	"log"
	"math"
	"time"

	"github.com/sintlab/lockbox/hw"
	"github.com/sintlab/lockbox/puzzle"
)

const gravity = 9.81

type state int

const (
	stateAwaitingActivation state = iota
	stateIdle
	stateDetecting
	stateSolved
)

// Config carries the detection parameters.
type Config struct {
	// RequiredKnocks within Window solve the puzzle.
	RequiredKnocks int
	Window         time.Duration

	// QuietPeriod is the minimum spacing between two knocks. Threshold is
	// the deviation from gravity, in m/s², that counts as a knock; the
	// detector re-arms once the deviation drops below half of it.
	QuietPeriod time.Duration
	Threshold   float64
}

// DefaultConfig returns the parameters the original box was tuned with.
func DefaultConfig() Config {
	return Config{
		RequiredKnocks: 4,
		Window:         2 * time.Second,
		QuietPeriod:    50 * time.Millisecond,
		Threshold:      3.0,
	}
}

// Puzzle is the knock-detection puzzle. It implements puzzle.Puzzle.
type Puzzle struct {
	*puzzle.HookableBase

	name   string
	cfg    Config
	accel  hw.Accelerometer
	logger *log.Logger

	st            state
	knockCount    int
	sequenceStart time.Time
	lastKnock     time.Time
	armed         bool
}

// New creates a knock puzzle reading the given accelerometer.
func New(
	name string,
	accel hw.Accelerometer,
	cfg Config,
	logger *log.Logger,
) *Puzzle {
	if logger == nil {
		logger = log.Default()
	}

	return &Puzzle{
		HookableBase: puzzle.NewHookableBase(),
		name:         name,
		cfg:          cfg,
		accel:        accel,
		logger:       logger,
	}
}

// Name returns the name of the puzzle.
func (p *Puzzle) Name() string {
	return p.name
}

// Begin probes the accelerometer once. If the probe fails the puzzle logs
// once and stays permanently in the awaiting-activation state.
func (p *Puzzle) Begin() {
	if p.accel == nil {
		p.failBegin(hw.ErrUnavailable)
		return
	}

	if _, _, _, err := p.accel.ReadAcceleration(); err != nil {
		p.failBegin(err)
		return
	}

	p.st = stateIdle
	p.armed = true
}

func (p *Puzzle) failBegin(err error) {
	p.logger.Printf("%s: accelerometer unavailable, puzzle stays unsolvable: %v",
		p.name, err)
	p.InvokeHook(puzzle.HookCtx{
		Domain: p, Pos: puzzle.HookPosBeginFailed, Detail: err,
	})
}

// Update samples the accelerometer and advances knock tracking.
func (p *Puzzle) Update(now time.Time) {
	if p.st == stateSolved || p.st == stateAwaitingActivation {
		return
	}

	x, y, z, err := p.accel.ReadAcceleration()
	if err != nil {
		// No new data this tick.
		return
	}

	magnitude := math.Sqrt(x*x + y*y + z*z)
	delta := math.Abs(magnitude - gravity)

	isKnock := false

	if delta < p.cfg.Threshold/2 {
		p.armed = true
	} else if delta > p.cfg.Threshold && p.armed &&
		now.Sub(p.lastKnock) >= p.cfg.QuietPeriod {
		isKnock = true
		p.armed = false
	}

	if isKnock {
		p.lastKnock = now

		switch {
		case p.st == stateIdle || now.Sub(p.sequenceStart) > p.cfg.Window:
			p.knockCount = 1
			p.sequenceStart = now
			p.st = stateDetecting
		case p.st == stateDetecting:
			p.knockCount++

			if p.knockCount >= p.cfg.RequiredKnocks {
				p.st = stateSolved
				p.InvokeHook(puzzle.HookCtx{Domain: p, Pos: puzzle.HookPosSolved})

				return
			}
		}
	}

	if p.st == stateDetecting && now.Sub(p.sequenceStart) > p.cfg.Window {
		p.knockCount = 0
		p.st = stateIdle
	}
}

// IsSolved reports whether the knock sequence completed. Sticky until Reset.
func (p *Puzzle) IsSolved() bool {
	return p.st == stateSolved
}

// Reset clears the knock tracking. A puzzle whose Begin failed stays
// unsolvable.
func (p *Puzzle) Reset() {
	if p.st == stateAwaitingActivation {
		return
	}

	p.st = stateIdle
	p.knockCount = 0
	p.sequenceStart = time.Time{}
	p.lastKnock = time.Time{}
	p.armed = true
	p.InvokeHook(puzzle.HookCtx{Domain: p, Pos: puzzle.HookPosReset})
}

// StatusLevel always defers to the coordinator.
func (p *Puzzle) StatusLevel() int {
	return puzzle.LevelAuto
}
