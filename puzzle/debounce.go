package puzzle

import (
	"time"

	"github.com/sintlab/lockbox/hw"
)

// A Debouncer tracks one raw boolean channel and derives a stable value.
// The policy is asymmetric: a rising edge (inactive to active) is accepted
// immediately so button presses feel instant; a falling edge is accepted
// only after the raw value holds constant for the debounce window.
type Debouncer struct {
	window time.Duration

	raw        bool
	stable     bool
	lastChange time.Time
	primed     bool
}

// NewDebouncer creates a Debouncer with the given stability window.
func NewDebouncer(window time.Duration) *Debouncer {
	return &Debouncer{window: window}
}

// Sample feeds one raw reading taken at now and returns the stable value.
func (d *Debouncer) Sample(raw bool, now time.Time) bool {
	if !d.primed {
		d.raw = raw
		d.stable = raw
		d.lastChange = now
		d.primed = true

		return d.stable
	}

	if raw != d.raw {
		d.raw = raw
		d.lastChange = now

		if raw && !d.stable {
			d.stable = true
		}
	}

	if now.Sub(d.lastChange) >= d.window {
		d.stable = raw
	}

	return d.stable
}

// Stable returns the last derived stable value without taking a new sample.
func (d *Debouncer) Stable() bool {
	return d.stable
}

// Reset discards all tracked state. The next Sample primes the debouncer.
func (d *Debouncer) Reset() {
	d.raw = false
	d.stable = false
	d.primed = false
	d.lastChange = time.Time{}
}

// A DebouncedInput bundles a DigitalInput with a Debouncer. A read failure
// leaves the stable value untouched, treating the tick as "no new data".
type DebouncedInput struct {
	src hw.DigitalInput
	deb *Debouncer
}

// NewDebouncedInput wraps src with the given debounce window.
func NewDebouncedInput(src hw.DigitalInput, window time.Duration) *DebouncedInput {
	return &DebouncedInput{
		src: src,
		deb: NewDebouncer(window),
	}
}

// Read samples the underlying input and returns the stable value.
func (i *DebouncedInput) Read(now time.Time) bool {
	raw, err := i.src.Read()
	if err != nil {
		return i.deb.Stable()
	}

	return i.deb.Sample(raw, now)
}

// Reset discards all tracked state.
func (i *DebouncedInput) Reset() {
	i.deb.Reset()
}
