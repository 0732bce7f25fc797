// Package memio provides in-memory implementations of the hw capability
// contracts. They back the simulated box run by the CLI and the package
// tests; no real hardware is touched.
package memio

import (
	"fmt"
	"sync"

	"github.com/sintlab/lockbox/hw"
)

// An Input is a DigitalInput whose value is set programmatically.
type Input struct {
	mu  sync.Mutex
	on  bool
	err error
}

// NewInput creates an inactive Input.
func NewInput() *Input {
	return &Input{}
}

// Set changes the raw value seen by subsequent reads.
func (i *Input) Set(on bool) {
	i.mu.Lock()
	i.on = on
	i.mu.Unlock()
}

// FailWith makes subsequent reads return err. Pass nil to recover.
func (i *Input) FailWith(err error) {
	i.mu.Lock()
	i.err = err
	i.mu.Unlock()
}

func (i *Input) Read() (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.err != nil {
		return false, i.err
	}

	return i.on, nil
}

// An Output is a PWMOutput that remembers the last commanded state and level.
type Output struct {
	mu    sync.Mutex
	on    bool
	level uint8
}

// NewOutput creates an off Output.
func NewOutput() *Output {
	return &Output{}
}

func (o *Output) Set(on bool) error {
	o.mu.Lock()
	o.on = on
	if on {
		o.level = 255
	} else {
		o.level = 0
	}
	o.mu.Unlock()

	return nil
}

func (o *Output) SetLevel(level uint8) error {
	o.mu.Lock()
	o.level = level
	o.on = level > 0
	o.mu.Unlock()

	return nil
}

// On returns the last commanded boolean state.
func (o *Output) On() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.on
}

// Level returns the last commanded intensity.
func (o *Output) Level() uint8 {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.level
}

// A Tone is a ToneOutput that records the frequencies it was asked to play.
type Tone struct {
	mu      sync.Mutex
	playing bool
	freq    int
	history []int
}

// NewTone creates a silent Tone.
func NewTone() *Tone {
	return &Tone{}
}

func (t *Tone) Tone(freqHz int) error {
	t.mu.Lock()
	t.playing = true
	t.freq = freqHz
	t.history = append(t.history, freqHz)
	t.mu.Unlock()

	return nil
}

func (t *Tone) Stop() error {
	t.mu.Lock()
	t.playing = false
	t.mu.Unlock()

	return nil
}

// Playing reports whether a tone is currently sounding.
func (t *Tone) Playing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.playing
}

// Freq returns the frequency of the current or most recent tone.
func (t *Tone) Freq() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.freq
}

// History returns all frequencies played so far, in order.
func (t *Tone) History() []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := make([]int, len(t.history))
	copy(h, t.history)

	return h
}

// A Servo is an Actuator that records commanded angles.
type Servo struct {
	mu     sync.Mutex
	angle  uint8
	moved  bool
	moves  int
	failed error
}

// NewServo creates a Servo that has not been commanded yet.
func NewServo() *Servo {
	return &Servo{}
}

// FailWith makes subsequent commands return err. Pass nil to recover.
func (s *Servo) FailWith(err error) {
	s.mu.Lock()
	s.failed = err
	s.mu.Unlock()
}

func (s *Servo) SetAngle(deg uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failed != nil {
		return s.failed
	}

	s.angle = deg
	s.moved = true
	s.moves++

	return nil
}

// Angle returns the last commanded angle. The second return value is false
// if the servo was never commanded.
func (s *Servo) Angle() (uint8, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.angle, s.moved
}

// Moves returns the number of physical move commands received.
func (s *Servo) Moves() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.moves
}

// An Accel is an Accelerometer whose reading is set programmatically. The
// zero value reports rest (gravity along z).
type Accel struct {
	mu      sync.Mutex
	x, y, z float64
	set     bool
	err     error
}

// NewAccel creates an Accel at rest.
func NewAccel() *Accel {
	return &Accel{}
}

// SetAcceleration changes the reading seen by subsequent reads.
func (a *Accel) SetAcceleration(x, y, z float64) {
	a.mu.Lock()
	a.x, a.y, a.z = x, y, z
	a.set = true
	a.mu.Unlock()
}

// Rest returns the reading to gravity along z.
func (a *Accel) Rest() {
	a.SetAcceleration(0, 0, 9.81)
}

// FailWith makes subsequent reads return err. Pass nil to recover.
func (a *Accel) FailWith(err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

func (a *Accel) ReadAcceleration() (x, y, z float64, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.err != nil {
		return 0, 0, 0, a.err
	}

	if !a.set {
		return 0, 0, 9.81, nil
	}

	return a.x, a.y, a.z, nil
}

type bankPin struct {
	mode hw.PinMode
	on   bool
}

// A Bank is an in-memory IOBank. Reading an unconfigured pin is an error,
// mirroring how an unwired expander channel floats.
type Bank struct {
	mu   sync.Mutex
	pins map[int]*bankPin
	err  error
}

// NewBank creates an empty Bank.
func NewBank() *Bank {
	return &Bank{pins: make(map[int]*bankPin)}
}

// FailWith makes subsequent bank operations return err. Pass nil to recover.
func (b *Bank) FailWith(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

func (b *Bank) ConfigurePin(pin int, mode hw.PinMode) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return b.err
	}

	b.pins[pin] = &bankPin{mode: mode}

	return nil
}

func (b *Bank) ReadPin(pin int) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return false, b.err
	}

	p, ok := b.pins[pin]
	if !ok {
		return false, fmt.Errorf("memio: pin %d not configured", pin)
	}

	return p.on, nil
}

func (b *Bank) WritePin(pin int, on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return b.err
	}

	p, ok := b.pins[pin]
	if !ok {
		return fmt.Errorf("memio: pin %d not configured", pin)
	}

	p.on = on

	return nil
}

// SetPin forces the raw level of a pin, simulating an external signal such
// as a button press. The pin is created as an input if it does not exist.
func (b *Bank) SetPin(pin int, on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pins[pin]
	if !ok {
		p = &bankPin{mode: hw.ModeInput}
		b.pins[pin] = p
	}

	p.on = on
}

// PinOn returns the current level of a pin, false if unconfigured.
func (b *Bank) PinOn(pin int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.pins[pin]
	if !ok {
		return false
	}

	return p.on
}
