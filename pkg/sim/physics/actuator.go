package physics

import (
	"time"

	fx "github.com/robotalks/rig.go/pkg/framework"
	"github.com/robotalks/rig.go/pkg/hal"
	"github.com/robotalks/rig.go/pkg/sim"
)

// LinearActuator simulates a linear actuator with a potentiometer on its
// shaft. Driving forward lowers the reading; at the forward end the limit
// switch opens.
type LinearActuator struct {
	ID string

	In1   *sim.Pin
	In2   *sim.Pin
	Limit *sim.Pin

	ADC     *sim.ADC
	Channel hal.Channel

	// Min and Max bound the travel in ADC units.
	Min, Max float64
	// Speed is the travel rate in ADC units per second.
	Speed float64

	sim.ObjectsChangeCaster

	position float64
	last     time.Time
	changed  bool
}

// NewLinearActuator creates an actuator at position with its own pins.
func NewLinearActuator(name string, adc *sim.ADC, ch hal.Channel, position float64) *LinearActuator {
	a := &LinearActuator{
		ID:       name,
		In1:      sim.NewPin(false),
		In2:      sim.NewPin(false),
		Limit:    sim.NewPin(true),
		ADC:      adc,
		Channel:  ch,
		Min:      0,
		Max:      sim.ADCMax,
		Speed:    2000,
		position: position,
	}
	a.sense()
	return a
}

// Name implements sim.Object.
func (a *LinearActuator) Name() string {
	return a.ID
}

// Position returns the simulated shaft position.
func (a *LinearActuator) Position() float64 {
	return a.position
}

// Direction returns -1 moving forward, 1 in reverse and 0 otherwise.
func (a *LinearActuator) Direction() int {
	fwd, rev := a.In1.Read(), a.In2.Read()
	switch {
	case fwd && !rev:
		return -1
	case rev && !fwd:
		return 1
	}
	return 0
}

// Advance implements Plant.
func (a *LinearActuator) Advance(ctx Context) {
	now := ctx.Time()
	if !a.last.IsZero() {
		a.Move(now.Sub(a.last))
	}
	a.last = now
}

// Move advances the plant by dt.
func (a *LinearActuator) Move(dt time.Duration) {
	dir := a.Direction()
	if dir == 0 || dt <= 0 {
		return
	}
	pos := a.position + float64(dir)*a.Speed*dt.Seconds()
	if pos < a.Min {
		pos = a.Min
	} else if pos > a.Max {
		pos = a.Max
	}
	if pos != a.position {
		a.position, a.changed = pos, true
	}
	a.sense()
}

func (a *LinearActuator) sense() {
	a.Limit.Drive(a.position > a.Min)
	a.ADC.SetValue(a.Channel, uint16(a.position))
}

// AddToLoop implements LoopAdder.
func (a *LinearActuator) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvAcuate, fx.ControlFunc(a.Execute))
}

// Execute is a controller advancing the plant each iteration.
func (a *LinearActuator) Execute(cc fx.ControlContext) error {
	a.Advance(cc)
	if a.changed {
		a.changed = false
		a.ObjectsChanged(cc, a)
	}
	return nil
}
