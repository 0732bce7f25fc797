// Package melody implements the sequence-memory puzzle: the box plays a
// growing prefix of a melody on four lamps and a tone output, and the player
// has to reproduce it on four buttons. Completing every round solves the
// puzzle.
package melody

import (
	"log"
	"time"

	"github.com/sintlab/lockbox/hw"
	"github.com/sintlab/lockbox/puzzle"
)

// NumSymbols is the number of lamp/button channels the puzzle uses.
const NumSymbols = 4

type state int

const (
	stateAwaitingActivation state = iota
	stateArmedDelay
	statePlayback
	stateAwaitingInput
	stateInputFeedback
	stateSuccessPause
	stateFailurePause
	stateSolved
)

type outcome int

const (
	outcomeContinue outcome = iota
	outcomeSuccess
	outcomeFailure
)

// Config carries the pin mapping, the rounds, and the timing constants of
// the puzzle.
type Config struct {
	ButtonPins [NumSymbols]int
	LampPins   [NumSymbols]int

	// ActivationButtons lists the buttons that must be held simultaneously
	// to start a round. At least two, so the game cannot start by accident.
	ActivationButtons []int

	Rounds []Round

	DebounceWindow time.Duration
	ArmedDelay     time.Duration
	ArmedBlink     time.Duration
	NoteOn         time.Duration
	NoteOff        time.Duration
	InputFeedback  time.Duration
	InputTimeout   time.Duration
	SuccessPause   time.Duration
	FailurePause   time.Duration

	// TimeoutLimit is the number of consecutive input timeouts that force a
	// full reset of the puzzle.
	TimeoutLimit int
}

// DefaultConfig returns the configuration of the shipped box: buttons on
// bank pins 8-11, lamps on 12-15, the three default rounds, and the timing
// the original hardware was tuned with.
func DefaultConfig() Config {
	return Config{
		ButtonPins:        [NumSymbols]int{8, 9, 10, 11},
		LampPins:          [NumSymbols]int{12, 13, 14, 15},
		ActivationButtons: []int{0, 1, 3},
		Rounds:            DefaultRounds(),
		DebounceWindow:    5 * time.Millisecond,
		ArmedDelay:        2 * time.Second,
		ArmedBlink:        250 * time.Millisecond,
		NoteOn:            400 * time.Millisecond,
		NoteOff:           200 * time.Millisecond,
		InputFeedback:     200 * time.Millisecond,
		InputTimeout:      5 * time.Second,
		SuccessPause:      time.Second,
		FailurePause:      1500 * time.Millisecond,
		TimeoutLimit:      4,
	}
}

// Builder builds melody puzzles.
type Builder struct {
	cfg    Config
	tone   hw.ToneOutput
	bank   hw.IOBank
	logger *log.Logger
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

// WithTone sets the tone output the puzzle plays melodies on.
func (b Builder) WithTone(t hw.ToneOutput) Builder {
	b.tone = t
	return b
}

// WithBank sets the I/O bank up front. When the bank is owned by the
// coordinator, leave it unset and let the coordinator hand it over through
// BindBank before Begin.
func (b Builder) WithBank(bank hw.IOBank) Builder {
	b.bank = bank
	return b
}

// WithLogger sets the logger for hardware-failure reports.
func (b Builder) WithLogger(l *log.Logger) Builder {
	b.logger = l
	return b
}

// Build creates the puzzle.
func (b Builder) Build(name string) *Puzzle {
	if b.tone == nil {
		log.Panic("melody: tone output is required")
	}

	if len(b.cfg.Rounds) == 0 {
		log.Panic("melody: at least one round is required")
	}

	if len(b.cfg.ActivationButtons) < 2 {
		log.Panic("melody: activation gesture needs at least two buttons")
	}

	logger := b.logger
	if logger == nil {
		logger = log.Default()
	}

	p := &Puzzle{
		HookableBase: puzzle.NewHookableBase(),
		name:         name,
		cfg:          b.cfg,
		tone:         b.tone,
		bank:         b.bank,
		logger:       logger,
	}

	for i := range p.deb {
		p.deb[i] = puzzle.NewDebouncer(b.cfg.DebounceWindow)
	}

	p.buildLen = b.cfg.Rounds[0].Baseline

	return p
}

// Puzzle is the sequence-memory puzzle. It implements puzzle.Puzzle.
type Puzzle struct {
	*puzzle.HookableBase

	name   string
	cfg    Config
	tone   hw.ToneOutput
	bank   hw.IOBank
	logger *log.Logger

	ready  bool
	solved bool

	st         state
	stateSince time.Time

	round        int
	buildLen     int
	playIdx      int
	cursor       int
	timeoutCount int
	inputSince   time.Time

	pending   outcome
	roundDone bool
	blinkOn   bool

	cue      []cueStep
	cueIdx   int
	cueSince time.Time

	deb      [NumSymbols]*puzzle.Debouncer
	pressed  [NumSymbols]bool
	consumed [NumSymbols]bool
}

// BindBank hands the shared I/O bank over to the puzzle. It must complete
// before Begin; the puzzle never touches the bank before Begin runs.
func (p *Puzzle) BindBank(bank hw.IOBank) {
	p.bank = bank
}

// Name returns the name of the puzzle.
func (p *Puzzle) Name() string {
	return p.name
}

// Begin configures the bank pins and arms the state machine. Without a
// bound bank, or when pin configuration fails, the puzzle logs once and
// stays permanently in the awaiting-activation state.
func (p *Puzzle) Begin() {
	if p.bank == nil {
		p.logger.Printf("%s: I/O bank not bound, puzzle stays unsolvable", p.name)
		p.InvokeHook(puzzle.HookCtx{Domain: p, Pos: puzzle.HookPosBeginFailed})

		return
	}

	for i := 0; i < NumSymbols; i++ {
		if err := p.bank.ConfigurePin(p.cfg.ButtonPins[i], hw.ModeInputPullUp); err != nil {
			p.logger.Printf("%s: button pin setup failed: %v", p.name, err)
			p.InvokeHook(puzzle.HookCtx{
				Domain: p, Pos: puzzle.HookPosBeginFailed, Detail: err,
			})

			return
		}
	}

	for i := 0; i < NumSymbols; i++ {
		if err := p.bank.ConfigurePin(p.cfg.LampPins[i], hw.ModeOutput); err != nil {
			p.logger.Printf("%s: lamp pin setup failed: %v", p.name, err)
			p.InvokeHook(puzzle.HookCtx{
				Domain: p, Pos: puzzle.HookPosBeginFailed, Detail: err,
			})

			return
		}
	}

	p.ready = true
	p.allLamps(false)
	_ = p.tone.Stop()
	p.initState(time.Now())
}

// Update advances the state machine by at most one step.
func (p *Puzzle) Update(now time.Time) {
	if !p.ready || p.solved {
		return
	}

	p.sampleButtons(now)

	switch p.st {
	case stateAwaitingActivation:
		p.updateAwaitingActivation(now)
	case stateArmedDelay:
		p.updateArmedDelay(now)
	case statePlayback:
		p.updatePlayback(now)
	case stateAwaitingInput:
		p.updateAwaitingInput(now)
	case stateInputFeedback:
		p.updateInputFeedback(now)
	case stateSuccessPause:
		p.updateSuccessPause(now)
	case stateFailurePause:
		p.updateFailurePause(now)
	default:
		// Undefined transitions are no-ops; the machine stays total.
	}
}

// IsSolved reports whether every round has been completed. Sticky until
// Reset.
func (p *Puzzle) IsSolved() bool {
	return p.solved
}

// Reset returns the puzzle to the awaiting-activation state, clears solved,
// and clears the lamps and the tone output.
func (p *Puzzle) Reset() {
	p.resetAt(time.Now(), nil)
}

// StatusLevel blinks the status indicator during the armed delay and defers
// to the coordinator otherwise.
func (p *Puzzle) StatusLevel() int {
	if p.st == stateArmedDelay {
		if p.blinkOn {
			return 255
		}

		return 0
	}

	return puzzle.LevelAuto
}

func (p *Puzzle) resetAt(now time.Time, detail interface{}) {
	p.initState(now)

	if p.ready {
		p.allLamps(false)
		_ = p.tone.Stop()
	}

	p.InvokeHook(puzzle.HookCtx{Domain: p, Pos: puzzle.HookPosReset, Detail: detail})
}

func (p *Puzzle) initState(now time.Time) {
	p.solved = false
	p.round = 0
	p.buildLen = p.cfg.Rounds[0].Baseline
	p.playIdx = 0
	p.cursor = 0
	p.timeoutCount = 0
	p.st = stateAwaitingActivation
	p.stateSince = now
	p.cue = nil
	p.cueIdx = 0
	p.blinkOn = false

	for i := range p.deb {
		p.deb[i].Reset()
		p.pressed[i] = false
		p.consumed[i] = false
	}
}

func (p *Puzzle) currentRound() Round {
	return p.cfg.Rounds[p.round]
}

func (p *Puzzle) sampleButtons(now time.Time) {
	for i := 0; i < NumSymbols; i++ {
		raw, err := p.bank.ReadPin(p.cfg.ButtonPins[i])
		if err != nil {
			// No new data this tick; keep the last stable value.
			continue
		}

		stable := p.deb[i].Sample(raw, now)
		if !stable {
			p.consumed[i] = false
		}

		p.pressed[i] = stable
	}
}

// pressEvent reports a not-yet-consumed press of button i and consumes it.
func (p *Puzzle) pressEvent(i int) bool {
	if p.pressed[i] && !p.consumed[i] {
		p.consumed[i] = true
		return true
	}

	return false
}

func (p *Puzzle) updateAwaitingActivation(now time.Time) {
	for _, b := range p.cfg.ActivationButtons {
		if !p.pressed[b] {
			return
		}
	}

	for i := range p.consumed {
		p.consumed[i] = true
	}

	p.startCue(startCue(), now)
	p.st = stateArmedDelay
	p.stateSince = now
}

func (p *Puzzle) updateArmedDelay(now time.Time) {
	p.advanceCue(now)

	elapsed := now.Sub(p.stateSince)
	p.blinkOn = (elapsed/p.cfg.ArmedBlink)%2 == 0

	if elapsed >= p.cfg.ArmedDelay {
		p.startPlayback(now)
	}
}

func (p *Puzzle) startPlayback(now time.Time) {
	p.playIdx = 0
	p.st = statePlayback
	p.stateSince = now
	p.allLamps(false)
	_ = p.tone.Stop()
}

func (p *Puzzle) updatePlayback(now time.Time) {
	r := p.currentRound()
	elapsed := now.Sub(p.stateSince)

	switch {
	case elapsed < p.cfg.NoteOn:
		sym := r.Sequence[p.playIdx]
		p.setLamp(sym, true)
		_ = p.tone.Tone(r.NoteFor(sym, p.playIdx))
	case elapsed < p.cfg.NoteOn+p.cfg.NoteOff:
		p.allLamps(false)
		_ = p.tone.Stop()
	default:
		p.playIdx++
		p.stateSince = now

		if p.playIdx >= p.buildLen {
			p.st = stateAwaitingInput
			p.cursor = 0
			p.inputSince = now

			// A button still held from before playback must be released and
			// pressed again to count.
			for i := range p.consumed {
				p.consumed[i] = p.pressed[i]
			}
		}
	}
}

func (p *Puzzle) updateAwaitingInput(now time.Time) {
	if now.Sub(p.inputSince) >= p.cfg.InputTimeout {
		p.timeoutCount++

		if p.timeoutCount >= p.cfg.TimeoutLimit {
			p.logger.Printf("%s: %d consecutive timeouts, resetting",
				p.name, p.timeoutCount)
			p.resetAt(now, "timeout limit reached")

			return
		}

		p.beginFailure(now)

		return
	}

	for i := 0; i < NumSymbols; i++ {
		if p.pressEvent(i) {
			p.handlePress(i, now)
			return
		}
	}
}

func (p *Puzzle) handlePress(sym int, now time.Time) {
	// Any input, right or wrong, clears the consecutive-timeout counter and
	// restarts the idle window.
	p.timeoutCount = 0
	p.inputSince = now

	r := p.currentRound()

	p.setLamp(sym, true)
	_ = p.tone.Tone(r.NoteFor(sym, p.cursor))

	if sym == r.Sequence[p.cursor] {
		p.cursor++

		if p.cursor >= p.buildLen {
			p.pending = outcomeSuccess
		} else {
			p.pending = outcomeContinue
		}
	} else {
		p.pending = outcomeFailure
	}

	p.st = stateInputFeedback
	p.stateSince = now
}

func (p *Puzzle) updateInputFeedback(now time.Time) {
	if now.Sub(p.stateSince) < p.cfg.InputFeedback {
		return
	}

	p.allLamps(false)
	_ = p.tone.Stop()

	switch p.pending {
	case outcomeContinue:
		p.st = stateAwaitingInput
	case outcomeSuccess:
		p.beginSuccess(now)
	case outcomeFailure:
		p.beginFailure(now)
	}
}

func (p *Puzzle) beginSuccess(now time.Time) {
	p.roundDone = p.buildLen >= p.currentRound().FullLength()

	if p.roundDone {
		p.startCue(roundSuccessCue(), now)
	} else {
		p.startCue(stepSuccessCue(), now)
	}

	p.st = stateSuccessPause
	p.stateSince = now
}

func (p *Puzzle) updateSuccessPause(now time.Time) {
	p.advanceCue(now)

	if now.Sub(p.stateSince) < p.cfg.SuccessPause || !p.cueDone() {
		return
	}

	if p.roundDone {
		p.advanceRound(now)
		return
	}

	r := p.currentRound()
	if p.buildLen >= r.Checkpoint {
		p.buildLen = r.FullLength()
	} else {
		p.buildLen++
	}

	p.startPlayback(now)
}

func (p *Puzzle) advanceRound(now time.Time) {
	p.round++

	if p.round >= len(p.cfg.Rounds) {
		p.solved = true
		p.st = stateSolved
		p.allLamps(false)
		_ = p.tone.Stop()
		p.InvokeHook(puzzle.HookCtx{Domain: p, Pos: puzzle.HookPosSolved})

		return
	}

	p.buildLen = p.cfg.Rounds[p.round].Baseline
	p.st = stateAwaitingActivation
	p.stateSince = now
	p.InvokeHook(puzzle.HookCtx{
		Domain: p,
		Pos:    puzzle.HookPosRoundAdvance,
		Detail: p.round + 1,
	})
}

func (p *Puzzle) beginFailure(now time.Time) {
	p.startCue(failureCue(), now)
	p.st = stateFailurePause
	p.stateSince = now
}

func (p *Puzzle) updateFailurePause(now time.Time) {
	p.advanceCue(now)

	if now.Sub(p.stateSince) < p.cfg.FailurePause || !p.cueDone() {
		return
	}

	// Replay at the same build-up length; length only shrinks via Reset.
	p.startPlayback(now)
}

func (p *Puzzle) startCue(cue []cueStep, now time.Time) {
	p.cue = cue
	p.cueIdx = 0
	p.cueSince = now
	p.applyCueStep()
}

func (p *Puzzle) cueDone() bool {
	return p.cueIdx >= len(p.cue)
}

func (p *Puzzle) applyCueStep() {
	s := p.cue[p.cueIdx]

	if s.freq > 0 {
		_ = p.tone.Tone(s.freq)
	} else {
		_ = p.tone.Stop()
	}

	p.allLamps(s.lamps)
}

func (p *Puzzle) advanceCue(now time.Time) {
	if p.cueDone() {
		return
	}

	if now.Sub(p.cueSince) < p.cue[p.cueIdx].dur {
		return
	}

	p.cueIdx++
	p.cueSince = now

	if p.cueDone() {
		_ = p.tone.Stop()
		p.allLamps(false)

		return
	}

	p.applyCueStep()
}

func (p *Puzzle) setLamp(sym int, on bool) {
	_ = p.bank.WritePin(p.cfg.LampPins[sym], on)
}

func (p *Puzzle) allLamps(on bool) {
	for i := 0; i < NumSymbols; i++ {
		p.setLamp(i, on)
	}
}
