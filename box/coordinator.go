// Package box contains the coordinator that owns the puzzle set and the
// lock actuator, and the runner that drives the cooperative tick loop.
package box

import (
	"log"
	"sync"
	"time"

	"github.com/sintlab/lockbox/hw"
	"github.com/sintlab/lockbox/puzzle"
)

// Config fixes the actuator positions and the optional settle pause after a
// physical move.
type Config struct {
	LockedAngle   uint8
	UnlockedAngle uint8

	// SettleTime, when positive, blocks after each physical actuator move to
	// let the servo reach its position. Moves happen only at lock/unlock
	// transitions, where no other input needs concurrent servicing.
	SettleTime time.Duration
}

// DefaultConfig returns the angles the shipped box uses.
func DefaultConfig() Config {
	return Config{
		LockedAngle:   0,
		UnlockedAngle: 140,
	}
}

// Builder builds Coordinators.
type Builder struct {
	cfg        Config
	actuator   hw.Actuator
	indicators []hw.PWMOutput
	bank       hw.IOBank
	logger     *log.Logger
}

// MakeBuilder returns a Builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{cfg: DefaultConfig()}
}

// WithConfig overrides the default configuration.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// WithActuator sets the lock actuator.
func (b Builder) WithActuator(a hw.Actuator) Builder {
	b.actuator = a
	return b
}

// WithIndicators sets one status indicator per puzzle. The number of
// indicators fixes the puzzle count.
func (b Builder) WithIndicators(outs ...hw.PWMOutput) Builder {
	b.indicators = outs
	return b
}

// WithSharedBank sets the I/O bank the coordinator hands over to puzzles
// that consume it.
func (b Builder) WithSharedBank(bank hw.IOBank) Builder {
	b.bank = bank
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// Build creates the coordinator. Attach binds the puzzles before Begin.
func (b Builder) Build(name string) *Coordinator {
	if b.actuator == nil {
		log.Panic("box: actuator is required")
	}

	if len(b.indicators) == 0 {
		log.Panic("box: at least one indicator is required")
	}

	logger := b.logger
	if logger == nil {
		logger = log.Default()
	}

	return &Coordinator{
		HookableBase: puzzle.NewHookableBase(),
		name:         name,
		cfg:          b.cfg,
		actuator:     b.actuator,
		indicators:   b.indicators,
		bank:         b.bank,
		logger:       logger,
		currentAngle: -1,
	}
}

// Coordinator owns an ordered, fixed set of puzzles. It ticks them, drives
// one status indicator per puzzle, and commands the lock actuator exactly
// once when every puzzle reports solved.
//
// All methods are safe to call from the administrative surface while the
// tick loop runs.
type Coordinator struct {
	*puzzle.HookableBase
	sync.Mutex

	name   string
	cfg    Config
	logger *log.Logger

	actuator   hw.Actuator
	indicators []hw.PWMOutput
	bank       hw.IOBank

	puzzles    []puzzle.Puzzle
	prevSolved []bool

	allSolved    bool
	currentAngle int
	began        bool

	selfTest selfTest
}

// Name returns the name of the coordinator.
func (c *Coordinator) Name() string {
	return c.name
}

// Attach binds the concrete puzzle instances. The count must match the
// indicator count fixed at construction. Required before Begin.
func (c *Coordinator) Attach(puzzles ...puzzle.Puzzle) {
	c.Lock()
	defer c.Unlock()

	if len(puzzles) != len(c.indicators) {
		log.Panicf("box: %d puzzles attached, %d indicators configured",
			len(puzzles), len(c.indicators))
	}

	c.puzzles = puzzles
	c.prevSolved = make([]bool, len(puzzles))
}

// Begin initializes the indicators, hands the shared bank over to the
// puzzles that consume it, begins every puzzle in index order, and commands
// the actuator to the locked position.
func (c *Coordinator) Begin() {
	c.Lock()
	defer c.Unlock()

	if c.puzzles == nil {
		log.Panic("box: Attach must run before Begin")
	}

	if c.began {
		return
	}

	for i, ind := range c.indicators {
		if err := ind.Set(false); err != nil {
			c.logger.Printf("%s: indicator %d unavailable: %v", c.name, i, err)
		}
	}

	if c.bank != nil {
		for _, p := range c.puzzles {
			if consumer, ok := p.(puzzle.BankConsumer); ok {
				consumer.BindBank(c.bank)
			}
		}
	}

	for i, p := range c.puzzles {
		p.Begin()
		c.logger.Printf("%s: puzzle %d (%s) initialized", c.name, i, p.Name())
	}

	c.began = true
	c.moveTo(c.cfg.LockedAngle, puzzle.HookPosLocked)
	c.logger.Printf("%s: box locked, ready", c.name)
}

// Tick updates every puzzle in fixed index order, drives the indicators,
// and performs the single lock-to-unlock transition on the tick where the
// last puzzle becomes solved.
func (c *Coordinator) Tick(now time.Time) {
	c.Lock()
	defer c.Unlock()

	if !c.began {
		return
	}

	testing := c.updateSelfTest(now)

	solvedCount := 0

	for i, p := range c.puzzles {
		p.Update(now)

		solved := p.IsSolved()
		if solved != c.prevSolved[i] {
			c.prevSolved[i] = solved

			if solved {
				c.logger.Printf("%s: puzzle %d (%s) solved", c.name, i, p.Name())
			} else {
				c.logger.Printf("%s: puzzle %d (%s) cleared", c.name, i, p.Name())
			}
		}

		if !testing {
			c.driveIndicator(i, p, solved)
		}

		if solved {
			solvedCount++
		}
	}

	if !c.allSolved && solvedCount == len(c.puzzles) {
		c.allSolved = true
		c.logger.Printf("%s: all puzzles solved, unlocking", c.name)
		c.moveTo(c.cfg.UnlockedAngle, puzzle.HookPosUnlocked)
	}
}

func (c *Coordinator) driveIndicator(i int, p puzzle.Puzzle, solved bool) {
	lvl := p.StatusLevel()

	if lvl >= 0 {
		if lvl > 255 {
			lvl = 255
		}

		_ = c.indicators[i].SetLevel(uint8(lvl))

		return
	}

	_ = c.indicators[i].Set(solved)
}

// ResetAll resets every puzzle, clears the aggregate latch, and forces the
// actuator back to the locked position.
func (c *Coordinator) ResetAll() {
	c.Lock()
	defer c.Unlock()

	c.logger.Printf("%s: resetting all puzzles", c.name)

	for i, p := range c.puzzles {
		p.Reset()
		c.prevSolved[i] = false
	}

	c.allSolved = false
	c.moveTo(c.cfg.LockedAngle, puzzle.HookPosLocked)
}

// ForceUnlock commands the actuator to the unlocked position without
// touching puzzle state or the aggregate latch.
func (c *Coordinator) ForceUnlock() {
	c.Lock()
	defer c.Unlock()

	c.moveTo(c.cfg.UnlockedAngle, puzzle.HookPosUnlocked)
}

// ForceLock commands the actuator to the locked position without touching
// puzzle state or the aggregate latch.
func (c *Coordinator) ForceLock() {
	c.Lock()
	defer c.Unlock()

	c.moveTo(c.cfg.LockedAngle, puzzle.HookPosLocked)
}

// AllSolved reports the aggregate latch.
func (c *Coordinator) AllSolved() bool {
	c.Lock()
	defer c.Unlock()

	return c.allSolved
}

// Unlocked reports whether the last commanded actuator position is the
// unlocked one.
func (c *Coordinator) Unlocked() bool {
	c.Lock()
	defer c.Unlock()

	return c.currentAngle == int(c.cfg.UnlockedAngle)
}

// PuzzleSolved reports the solved state of the puzzle at index i.
func (c *Coordinator) PuzzleSolved(i int) bool {
	c.Lock()
	defer c.Unlock()

	return c.puzzles[i].IsSolved()
}

// Puzzles returns the attached puzzles in index order.
func (c *Coordinator) Puzzles() []puzzle.Puzzle {
	c.Lock()
	defer c.Unlock()

	ps := make([]puzzle.Puzzle, len(c.puzzles))
	copy(ps, c.puzzles)

	return ps
}

// moveTo commands the actuator when the requested angle differs from the
// last commanded one. Callers hold the lock.
func (c *Coordinator) moveTo(angle uint8, pos *puzzle.HookPos) {
	if c.currentAngle == int(angle) {
		return
	}

	if err := c.actuator.SetAngle(angle); err != nil {
		c.logger.Printf("%s: actuator move failed: %v", c.name, err)
		return
	}

	c.currentAngle = int(angle)

	if c.cfg.SettleTime > 0 {
		time.Sleep(c.cfg.SettleTime)
	}

	c.InvokeHook(puzzle.HookCtx{Domain: c, Pos: pos})
}
