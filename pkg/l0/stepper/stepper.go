package stepper

import (
	"context"
	"errors"

	"github.com/golang/glog"

	"github.com/robotalks/rig.go/pkg/hal"
)

var (
	// ErrZeroFrequency indicates a speed which gives no pulses.
	ErrZeroFrequency = errors.New("zero step frequency")
	// ErrZeroFailed indicates the left limit wasn't found within MaxZeroSteps.
	ErrZeroFailed = errors.New("left limit not found")
	// ErrAlarm indicates the driver raised its alarm line.
	ErrAlarm = errors.New("stepper driver alarm")
)

// Default settings.
const (
	DefaultPPR uint32 = 8000
	DefaultRPM uint32 = 60
)

// Config defines the stepper settings.
type Config struct {
	// PPR is the pulses per revolution set on the driver.
	PPR uint32 `yaml:"ppr"`
	// RPM is the stepping speed.
	RPM uint32 `yaml:"rpm"`
	// MaxZeroSteps bounds the zeroing travel, 0 means unbounded.
	MaxZeroSteps int32 `yaml:"max_zero_steps"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{PPR: DefaultPPR, RPM: DefaultRPM}
}

// Pins are the stepper driver lines. Limit inputs read high while travel
// in that direction is free. Alarm is optional.
type Pins struct {
	Enable     hal.OutputPin
	Dir        hal.OutputPin
	Pulse      hal.OutputPin
	LeftLimit  hal.InputPin
	RightLimit hal.InputPin
	Alarm      hal.InputPin
}

// Stepper is the background context of the axis.
type Stepper struct {
	Config

	pins  Pins
	timer hal.Timer
	ctl   *Controller

	position int32
}

// New creates a Stepper.
func New(conf Config, pins Pins, timer hal.Timer, ctl *Controller) *Stepper {
	return &Stepper{Config: conf, pins: pins, timer: timer, ctl: ctl}
}

// Controller returns the handle for other contexts.
func (s *Stepper) Controller() *Controller {
	return s.ctl
}

// Position returns the step count from the zero point.
// Only valid in the Stepper's own context.
func (s *Stepper) Position() int32 {
	return s.position
}

// SetSpeed starts the step timer for rpm. A full step takes two timer
// periods.
func (s *Stepper) SetSpeed(rpm uint32) error {
	hz := 2 * s.PPR * rpm / 60
	if hz == 0 {
		return ErrZeroFrequency
	}
	return s.timer.Start(hz)
}

// Zero steps left until the left limit is reached, then defines that
// point as position 0.
func (s *Stepper) Zero(ctx context.Context) error {
	s.publish(Zeroing)
	defer s.publish(Ready)
	s.pins.Enable.Set(false)
	var steps int32
	for !s.leftReached() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.MaxZeroSteps > 0 && steps >= s.MaxZeroSteps {
			return ErrZeroFailed
		}
		if err := s.StepLeft(); err != nil {
			return err
		}
		steps++
	}
	s.position = 0
	glog.Infof("stepper zeroed after %d steps", steps)
	return nil
}

// Run moves toward the target until ctx is done.
func (s *Stepper) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.pins.Alarm != nil && s.pins.Alarm.Read() {
			return ErrAlarm
		}
		s.publish(Ready)
		if cmd, ok := s.ctl.commands.Recv(); ok {
			glog.V(2).Infof("stepper %s", cmd)
			switch cmd.Kind {
			case CmdZero:
				if err := s.Zero(ctx); err != nil {
					return err
				}
			case CmdGoto:
				s.ctl.target.Set(cmd.Position)
			}
		}
		if err := s.Step(s.ctl.Target()); err != nil {
			return err
		}
	}
}

// Step makes one step toward target, or waits one timer period when
// already there or blocked by a limit.
func (s *Stepper) Step(target int32) error {
	switch {
	case s.position > target && !s.leftReached():
		return s.StepLeft()
	case s.position < target && !s.rightReached():
		return s.StepRight()
	}
	return s.timer.Wait()
}

// StepLeft steps once unless the left limit is reached.
func (s *Stepper) StepLeft() error {
	if s.leftReached() {
		return nil
	}
	s.pins.Dir.Set(true)
	if err := s.singleStep(); err != nil {
		return err
	}
	s.position--
	return nil
}

// StepRight steps once unless the right limit is reached.
func (s *Stepper) StepRight() error {
	if s.rightReached() {
		return nil
	}
	s.pins.Dir.Set(false)
	if err := s.singleStep(); err != nil {
		return err
	}
	s.position++
	return nil
}

func (s *Stepper) leftReached() bool {
	return !s.pins.LeftLimit.Read()
}

func (s *Stepper) rightReached() bool {
	return !s.pins.RightLimit.Read()
}

func (s *Stepper) singleStep() error {
	s.pins.Pulse.Set(true)
	if err := s.timer.Wait(); err != nil {
		s.pins.Pulse.Set(false)
		return err
	}
	s.pins.Pulse.Set(false)
	return s.timer.Wait()
}

func (s *Stepper) publish(action Action) {
	s.ctl.state.Set(State{Position: s.position, Action: action})
}
