package physics

import (
	"sync"

	"github.com/robotalks/rig.go/pkg/sim"
)

// StepperAxis simulates a stepper driven axis between two limit switches.
// It moves one count on each rising edge of Pulse: left while Dir is high.
// Limit pins read high while travel is free.
type StepperAxis struct {
	ID string

	Enable     *sim.Pin
	Dir        *sim.Pin
	Pulse      *sim.Pin
	LeftLimit  *sim.Pin
	RightLimit *sim.Pin
	Alarm      *sim.Pin

	// LeftStop and RightStop are the physical ends of travel.
	LeftStop, RightStop int32

	lock     sync.Mutex
	position int32
	pulses   int
}

// NewStepperAxis creates an axis at position.
func NewStepperAxis(name string, leftStop, rightStop, position int32) *StepperAxis {
	a := &StepperAxis{
		ID:         name,
		Enable:     sim.NewPin(true),
		Dir:        sim.NewPin(false),
		Pulse:      sim.NewPin(false),
		LeftLimit:  sim.NewPin(true),
		RightLimit: sim.NewPin(true),
		Alarm:      sim.NewPin(false),
		LeftStop:   leftStop,
		RightStop:  rightStop,
		position:   position,
	}
	a.Pulse.OnSet(func(level bool) {
		if level {
			a.step()
		}
	})
	a.sense()
	return a
}

// Name implements sim.Object.
func (a *StepperAxis) Name() string {
	return a.ID
}

// Position returns the physical position.
func (a *StepperAxis) Position() int32 {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.position
}

// Pulses returns the number of pulses received.
func (a *StepperAxis) Pulses() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.pulses
}

func (a *StepperAxis) step() {
	a.lock.Lock()
	a.pulses++
	if a.Dir.Read() {
		if a.position > a.LeftStop {
			a.position--
		}
	} else if a.position < a.RightStop {
		a.position++
	}
	a.lock.Unlock()
	a.sense()
}

func (a *StepperAxis) sense() {
	pos := a.Position()
	a.LeftLimit.Drive(pos > a.LeftStop)
	a.RightLimit.Drive(pos < a.RightStop)
}
