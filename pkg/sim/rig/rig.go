// Package rig assembles a driver board on simulated hardware: the board's
// outputs move the plants in sim/physics which drive its inputs back.
package rig

import (
	"errors"

	"github.com/robotalks/rig.go/pkg/board"
	fx "github.com/robotalks/rig.go/pkg/framework"
	"github.com/robotalks/rig.go/pkg/hal"
	"github.com/robotalks/rig.go/pkg/l0/actuator"
	"github.com/robotalks/rig.go/pkg/l0/comm"
	"github.com/robotalks/rig.go/pkg/l0/stepper"
	"github.com/robotalks/rig.go/pkg/sim"
	"github.com/robotalks/rig.go/pkg/sim/physics"
)

var errNoLine = errors.New("board link is not simulated")

// Rig is a driver board wired to simulated mechanics.
type Rig struct {
	Board    *board.Board
	ADC      *sim.ADC
	Gear     *physics.LinearActuator
	Throttle *physics.LinearActuator
	Steering *physics.StepperAxis
	// Line and Remote are set when the board link is simulated, Remote
	// being the other end of the board's serial line.
	Line   *sim.Line
	Remote *sim.Endpoint

	sim.ObjectsChangeCaster

	steeringPos int32
	notified    bool
}

// New creates a Rig for conf on line.
func New(conf *board.Config, line *sim.Line, timer hal.Timer) *Rig {
	r := NewWithLink(conf, line.Attach(), timer)
	r.Line, r.Remote = line, line.Attach()
	return r
}

// NewWithLink creates a Rig receiving frames from link. The gear starts
// idle, the throttle closed and the steering column centered. A nil timer
// steps on the wall clock.
func NewWithLink(conf *board.Config, link hal.ByteSource, timer hal.Timer) *Rig {
	if timer == nil {
		timer = sim.NewClockTimer()
	}
	presets := conf.Drive.Presets
	r := &Rig{ADC: sim.NewADC()}
	r.Gear = physics.NewLinearActuator("gear", r.ADC, conf.Channels.Gear, float64(presets.GearIdle))
	r.Throttle = physics.NewLinearActuator("throttle", r.ADC, conf.Channels.Throttle, float64(presets.ThrottleMin))
	travel := conf.Drive.SteeringTravel
	r.Steering = physics.NewStepperAxis("steering", 0, travel, travel/2)

	r.Board = board.New(conf, board.Hardware{
		ADC:           r.ADC,
		Gear:          &actuator.Relay{In1: r.Gear.In1, In2: r.Gear.In2},
		GearLimit:     r.Gear.Limit,
		Throttle:      &actuator.Relay{In1: r.Throttle.In1, In2: r.Throttle.In2},
		ThrottleLimit: r.Throttle.Limit,
		Stepper: stepper.Pins{
			Enable:     r.Steering.Enable,
			Dir:        r.Steering.Dir,
			Pulse:      r.Steering.Pulse,
			LeftLimit:  r.Steering.LeftLimit,
			RightLimit: r.Steering.RightLimit,
			Alarm:      r.Steering.Alarm,
		},
		StepTimer: timer,
		Link:      link,
	})
	r.Gear.SubscribeObjectsChange(r)
	r.Throttle.SubscribeObjectsChange(r)
	r.Board.Loop.Add(r.Gear, r.Throttle, r)
	return r
}

// Name implements Named.
func (r *Rig) Name() string {
	return r.Board.Name()
}

// AddToLoop implements LoopAdder.
func (r *Rig) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvPostProc, fx.ControlFunc(r.NotifySteering))
}

// NotifySteering casts a change when the steering column moved since the
// last tick.
func (r *Rig) NotifySteering(cc fx.ControlContext) error {
	if pos := r.Steering.Position(); !r.notified || pos != r.steeringPos {
		r.steeringPos, r.notified = pos, true
		r.ObjectsChanged(cc, r.Steering)
	}
	return nil
}

// Send transmits a frame from the remote end of the line.
func (r *Rig) Send(f comm.Frame) error {
	if r.Remote == nil {
		return errNoLine
	}
	return f.Send(r.Remote)
}
