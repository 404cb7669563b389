package drive

import (
	fx "github.com/robotalks/rig.go/pkg/framework"
	"github.com/robotalks/rig.go/pkg/l0/comm"
	"github.com/robotalks/rig.go/pkg/mailbox"
)

// Actuator is what Sequencer needs from an actuator.Controller.
type Actuator interface {
	Goto(uint16)
	Within(uint16) bool
	Stopped() bool
}

// Sequencer moves gear and throttle to the received MotorState one at a
// time: the gear only shifts with the throttle closed, and the throttle
// only opens with the gear in place.
type Sequencer struct {
	Presets

	Gear     Actuator
	Throttle Actuator

	motor *mailbox.Cell[comm.MotorState]
}

// NewSequencer creates a Sequencer reading motor.
func NewSequencer(p Presets, gear, throttle Actuator, motor *mailbox.Cell[comm.MotorState]) *Sequencer {
	return &Sequencer{Presets: p, Gear: gear, Throttle: throttle, motor: motor}
}

// GearPreset returns the gear position for kind.
func (s *Sequencer) GearPreset(kind comm.MotorKind) uint16 {
	switch kind {
	case comm.MotorFwd:
		return s.GearFwd
	case comm.MotorRev:
		return s.GearRev
	}
	return s.GearIdle
}

// ThrottlePosition maps power to a throttle position.
func (s *Sequencer) ThrottlePosition(power byte) uint16 {
	return uint16(comm.Remap(int64(power), 0, 255, int64(s.ThrottleMin), int64(s.ThrottleMax)))
}

// Start sends both actuators to their safe positions.
func (s *Sequencer) Start() {
	s.Gear.Goto(s.GearIdle)
	s.Throttle.Goto(s.ThrottleMin)
}

// Step issues the targets for the current MotorState.
func (s *Sequencer) Step() {
	state, ok := s.motor.Get()
	if !ok {
		state = comm.Idle(0)
	}
	gear := s.GearPreset(state.Kind)
	switch {
	case s.Gear.Within(gear):
		if !s.Gear.Stopped() {
			s.Gear.Goto(gear)
		}
		s.Throttle.Goto(s.ThrottlePosition(state.Power))
	case s.Throttle.Within(s.ThrottleMin):
		if !s.Throttle.Stopped() {
			s.Throttle.Goto(s.ThrottleMin)
		}
		s.Gear.Goto(gear)
	default:
		s.Throttle.Goto(s.ThrottleMin)
	}
}

// Control implements fx.Controller.
func (s *Sequencer) Control(fx.ControlContext) error {
	s.Step()
	return nil
}
