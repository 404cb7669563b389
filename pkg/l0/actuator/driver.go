package actuator

import (
	"fmt"

	"github.com/robotalks/rig.go/pkg/hal"
)

// Driver applies a State to the motor outputs. It is only called when the
// State changes.
type Driver interface {
	Drive(State)
}

// Relay drives an H-bridge through two on/off lines.
type Relay struct {
	In1 hal.OutputPin
	In2 hal.OutputPin
}

// Drive implements Driver.
func (r *Relay) Drive(s State) {
	switch s {
	case Fwd:
		r.In2.Set(false)
		r.In1.Set(true)
	case Rev:
		r.In1.Set(false)
		r.In2.Set(true)
	default:
		r.In1.Set(false)
		r.In2.Set(false)
	}
}

// PWM drives an H-bridge with two PWM lines. Stop brakes with both lines
// at full duty, a moving state lowers the duty of the leading line.
type PWM struct {
	In1 hal.PWMPin
	In2 hal.PWMPin

	duty  byte
	state State
}

// NewPWM creates a PWM driver at full power.
func NewPWM(in1, in2 hal.PWMPin) *PWM {
	return &PWM{In1: in1, In2: in2, duty: 255}
}

// Drive implements Driver.
func (p *PWM) Drive(s State) {
	p.state = s
	switch s {
	case Fwd:
		p.In2.SetDuty(p.In2.MaxDuty())
		p.In1.SetDuty(scaleDuty(p.In1.MaxDuty(), p.duty))
	case Rev:
		p.In1.SetDuty(p.In1.MaxDuty())
		p.In2.SetDuty(scaleDuty(p.In2.MaxDuty(), p.duty))
	default:
		p.In1.SetDuty(p.In1.MaxDuty())
		p.In2.SetDuty(p.In2.MaxDuty())
	}
}

// SetDuty changes the power, re-applying the outputs if it differs.
func (p *PWM) SetDuty(duty byte) {
	if p.duty != duty {
		p.duty = duty
		p.Drive(p.state)
	}
}

// Duty returns the current power.
func (p *PWM) Duty() byte {
	return p.duty
}

func scaleDuty(max uint16, duty byte) uint16 {
	return uint16(uint32(max) * uint32(duty) / 255)
}

// DriveMode selects the Driver built for an actuator.
type DriveMode string

// Drive modes.
const (
	DriveRelay DriveMode = "relay"
	DrivePWM   DriveMode = "pwm"
)

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *DriveMode) UnmarshalText(text []byte) error {
	switch mode := DriveMode(text); mode {
	case DriveRelay, DrivePWM:
		*m = mode
	case "":
		*m = DriveRelay
	default:
		return fmt.Errorf("unknown drive mode %q", string(text))
	}
	return nil
}
