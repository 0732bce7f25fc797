package main

import (
	"log"

	"github.com/sintlab/lockbox/box"
	"github.com/sintlab/lockbox/hw/memio"
	"github.com/sintlab/lockbox/melody"
	"github.com/sintlab/lockbox/puzzles/knock"
	"github.com/sintlab/lockbox/puzzles/tilt"
)

// simHardware bundles the simulated devices so commands can poke at them.
type simHardware struct {
	Bank       *memio.Bank
	Tone       *memio.Tone
	Servo      *memio.Servo
	Accel      *memio.Accel
	TiltInput  *memio.Input
	Indicators []*memio.Output
}

// buildSimBox wires the full box over simulated hardware: the melody puzzle
// on the shared bank, the tilt puzzle, and the knock puzzle, one indicator
// each.
func buildSimBox(logger *log.Logger) (*box.Coordinator, *simHardware) {
	hardware := &simHardware{
		Bank:      memio.NewBank(),
		Tone:      memio.NewTone(),
		Servo:     memio.NewServo(),
		Accel:     memio.NewAccel(),
		TiltInput: memio.NewInput(),
		Indicators: []*memio.Output{
			memio.NewOutput(),
			memio.NewOutput(),
			memio.NewOutput(),
		},
	}

	melodyPuzzle := melody.MakeBuilder().
		WithTone(hardware.Tone).
		WithLogger(logger).
		Build("Melody")

	tiltPuzzle := tilt.New("Tilt", hardware.TiltInput, tilt.DefaultConfig())

	knockPuzzle := knock.New(
		"Knock", hardware.Accel, knock.DefaultConfig(), logger)

	coordinator := box.MakeBuilder().
		WithActuator(hardware.Servo).
		WithIndicators(
			hardware.Indicators[0],
			hardware.Indicators[1],
			hardware.Indicators[2],
		).
		WithSharedBank(hardware.Bank).
		WithLogger(logger).
		Build("Box")

	coordinator.Attach(melodyPuzzle, tiltPuzzle, knockPuzzle)

	return coordinator, hardware
}
