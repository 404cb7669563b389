// Package drive turns received frames into actuator and steering targets.
// Dispatcher runs in the receive context, Sequencer and Calibrator run in
// the tick context.
package drive

import (
	"github.com/robotalks/rig.go/pkg/mailbox"
)

// Presets are the calibrated actuator positions in raw ADC units.
type Presets struct {
	GearRev  uint16 `yaml:"gear_rev"`
	GearFwd  uint16 `yaml:"gear_fwd"`
	GearIdle uint16 `yaml:"gear_idle"`
	// ThrottleMin is the closed throttle, ThrottleMax full power.
	// ThrottleMax may be lower than ThrottleMin.
	ThrottleMin uint16 `yaml:"throttle_min"`
	ThrottleMax uint16 `yaml:"throttle_max"`
}

// WithIdleGear sets GearIdle halfway between GearRev and GearFwd.
func (p Presets) WithIdleGear() Presets {
	p.GearIdle = uint16((uint32(p.GearRev) + uint32(p.GearFwd)) / 2)
	return p
}

// Config defines a driver board's dispatch settings.
type Config struct {
	// ID selects the frames this board obeys.
	ID      byte    `yaml:"id"`
	Presets Presets `yaml:"presets"`
	// SteeringTravel is the stepper position for direction 255.
	SteeringTravel int32 `yaml:"steering_travel"`
	// SteeringPolicy selects how steering set-points reach the stepper.
	SteeringPolicy mailbox.Policy `yaml:"steering_policy"`
}

// DefaultSteeringTravel is the stepper travel of the rig's steering column.
const DefaultSteeringTravel int32 = 800 * 18
