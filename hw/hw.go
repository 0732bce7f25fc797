// Package hw defines the hardware capability contracts that the puzzle-box
// core consumes. Concrete drivers (I/O expanders, servo controllers, tone
// generators) live outside the core and implement these interfaces.
package hw

import "errors"

// ErrUnavailable indicates that a hardware dependency failed to initialize.
// A puzzle that receives this error during Begin stays permanently unsolved.
var ErrUnavailable = errors.New("hw: device unavailable")

// PinMode configures the direction of an IOBank pin.
type PinMode int

const (
	ModeInput PinMode = iota
	ModeInputPullUp
	ModeOutput
)

// A DigitalInput reads one debounce-ready boolean channel. Read returns the
// raw, active-high sample. A failed read reports an error and the caller
// treats it as "no new data this tick".
type DigitalInput interface {
	Read() (bool, error)
}

// A DigitalOutput drives one boolean channel.
type DigitalOutput interface {
	Set(on bool) error
}

// A PWMOutput is a DigitalOutput that additionally supports intermediate
// intensity levels. SetLevel(0) and Set(false) are equivalent.
type PWMOutput interface {
	DigitalOutput
	SetLevel(level uint8) error
}

// A ToneOutput emits a tone at the given frequency until Stop is called.
type ToneOutput interface {
	Tone(freqHz int) error
	Stop() error
}

// An Actuator moves the physical lock to an absolute angle. The call returns
// once the command is issued; physical settling may lag behind.
type Actuator interface {
	SetAngle(deg uint8) error
}

// An Accelerometer reports acceleration along three axes in m/s². A failed
// read reports an error and the caller skips the tick.
type Accelerometer interface {
	ReadAcceleration() (x, y, z float64, err error)
}

// An IOBank is a multi-channel I/O expander with per-pin direction
// configuration. Pins are addressed by bank-local index. Inputs read
// active-high after any pull-up inversion is applied by the driver.
type IOBank interface {
	ConfigurePin(pin int, mode PinMode) error
	ReadPin(pin int) (bool, error)
	WritePin(pin int, on bool) error
}
