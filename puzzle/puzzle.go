// Package puzzle defines the lifecycle contract that every challenge in the
// box implements, the hook mechanism used to observe puzzle activity, and
// the shared input-debouncing utility.
package puzzle

import (
	"time"

	"github.com/sintlab/lockbox/hw"
)

// LevelAuto is the StatusLevel sentinel meaning "let the coordinator drive
// the indicator from the solved state".
const LevelAuto = -1

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// A Puzzle is one independently solvable challenge. The coordinator owns a
// fixed set of puzzles and sequences them through this contract.
//
// Begin runs exactly once per power cycle, after any shared dependency has
// been handed over. Update advances the state machine by at most one logical
// step and must not block; it is called at a fixed tick rate. IsSolved is
// sticky: once true it stays true until Reset. StatusLevel returns LevelAuto
// or an explicit indicator intensity in 0..255.
type Puzzle interface {
	Named

	Begin()
	Update(now time.Time)
	IsSolved() bool
	Reset()
	StatusLevel() int
}

// A BankConsumer is a puzzle that depends on a shared I/O bank owned by the
// coordinator. The coordinator hands the bank over after its own setup and
// before the puzzle's Begin; the puzzle must not touch the bank earlier.
type BankConsumer interface {
	BindBank(bank hw.IOBank)
}
