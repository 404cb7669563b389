// Package board assembles a driver board: two actuators and a steering
// stepper obeying frames received from the remote board.
//
// A Board owns three execution contexts run by framework.Runner:
//
//	tick     framework.Loop: actuator ticks, then Sequencer, then snapshot
//	link     comm.Link feeding the Dispatcher
//	stepper  Stepper.Zero followed by Stepper.Run
//
// They share state only through mailboxes guarded by one CriticalSection.
package board

import (
	"context"
	"fmt"

	fx "github.com/robotalks/rig.go/pkg/framework"
	"github.com/robotalks/rig.go/pkg/hal"
	"github.com/robotalks/rig.go/pkg/l0/actuator"
	"github.com/robotalks/rig.go/pkg/l0/comm"
	"github.com/robotalks/rig.go/pkg/l0/drive"
	"github.com/robotalks/rig.go/pkg/l0/stepper"
	"github.com/robotalks/rig.go/pkg/l1/telemetry"
	"github.com/robotalks/rig.go/pkg/mailbox"
)

// ADCFullScale is the largest reading of the 12-bit ADC.
const ADCFullScale uint16 = 4095

// Hardware is what a driver board is wired to.
type Hardware struct {
	ADC           hal.ADC
	Gear          actuator.Driver
	GearLimit     hal.InputPin
	Throttle      actuator.Driver
	ThrottleLimit hal.InputPin
	Stepper       stepper.Pins
	StepTimer     hal.Timer
	Link          hal.ByteSource
}

// Board is an assembled driver board.
type Board struct {
	Config *Config

	Loop       *fx.Loop
	Link       *comm.Link
	Dispatcher *drive.Dispatcher
	Sequencer  *drive.Sequencer
	Gear       *actuator.Controller
	Throttle   *actuator.Controller
	Stepper    *stepper.Stepper
	Steering   *stepper.Controller
	Motor      *mailbox.Cell[comm.MotorState]
	Snapshots  *mailbox.Cell[telemetry.Snapshot]

	cs         hal.CriticalSection
	adc        hal.ADC
	calibrator *drive.Calibrator
}

// New builds a Board from conf on hw.
func New(conf *Config, hw Hardware) *Board {
	cs := hal.NewLock()
	b := &Board{
		Config:    conf,
		Steering:  stepper.NewController(cs),
		Motor:     mailbox.NewCellWith(cs, comm.Idle(0)),
		Snapshots: mailbox.NewCell[telemetry.Snapshot](cs),
		cs:        cs,
		adc:       hw.ADC,
	}
	b.Gear = actuator.New(conf.Gear, hw.Gear, hw.GearLimit, conf.Channels.Gear)
	b.Gear.Name = "gear"
	b.Throttle = actuator.New(conf.Throttle, hw.Throttle, hw.ThrottleLimit, conf.Channels.Throttle)
	b.Throttle.Name = "throttle"
	b.Stepper = stepper.New(conf.Stepper, hw.Stepper, hw.StepTimer, b.Steering)
	b.Dispatcher = drive.NewDispatcher(conf.Drive, b.Motor, b.Steering)
	b.Sequencer = drive.NewSequencer(conf.Drive.Presets, b.Gear, b.Throttle, b.Motor)
	b.Link = comm.NewLink(hw.Link, b.Dispatcher)
	b.Loop = fx.NewLoop()
	b.Loop.Interval = conf.TickInterval
	b.Loop.Add(b)
	return b
}

// Name implements Named.
func (b *Board) Name() string {
	return b.Config.Name
}

// Calibrate replaces the Sequencer with a Calibrator. It must be called
// before Run.
func (b *Board) Calibrate() *drive.Calibrator {
	if b.calibrator == nil {
		b.calibrator = drive.NewCalibrator(b.cs, b.Gear, b.Throttle, ADCFullScale)
	}
	return b.calibrator
}

// AddToLoop implements LoopAdder.
func (b *Board) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvSense, fx.ControlFunc(b.sense))
	l.AddController(fx.PrLvControl, fx.ControlFunc(b.control))
	l.AddController(fx.PrLvPostProc, fx.ControlFunc(b.snapshot))
	l.PreRunAt(fx.PrLvControl, fx.ControlFunc(b.start))
}

func (b *Board) sense(fx.ControlContext) error {
	var errs fx.AggregatedError
	errs.Add(b.Gear.Tick(b.adc), b.Throttle.Tick(b.adc))
	return errs.Aggregate()
}

func (b *Board) start(fx.ControlContext) error {
	if b.calibrator == nil {
		b.Sequencer.Start()
	}
	return nil
}

func (b *Board) control(cc fx.ControlContext) error {
	if b.calibrator != nil {
		return b.calibrator.Control(cc)
	}
	return b.Sequencer.Control(cc)
}

func (b *Board) snapshot(cc fx.ControlContext) error {
	b.Snapshots.Set(b.Snapshot(cc))
	return nil
}

// Snapshot captures the board state. It must be called in the tick
// context.
func (b *Board) Snapshot(cc fx.ControlContext) telemetry.Snapshot {
	motor, _ := b.Motor.Get()
	return telemetry.Snapshot{
		Time:           cc.Time(),
		Tick:           cc.Tick(),
		Gear:           b.Gear.Status(),
		Throttle:       b.Throttle.Status(),
		Steering:       b.Steering.State(),
		SteeringTarget: b.Steering.Target(),
		Motor:          motor,
		Link:           b.Link.Stats(),
		Dispatch:       b.Dispatcher.Stats(),
		Loop:           b.Loop.Stats(),
	}
}

// HandleCommand implements telemetry.CommandHandler. It's safe to call
// from any context.
func (b *Board) HandleCommand(cmd telemetry.Command) error {
	switch cmd.Kind {
	case telemetry.CmdZero:
		return b.Steering.Zero()
	case telemetry.CmdSteer:
		return b.Dispatcher.Steer(cmd.Direction)
	case telemetry.CmdMotor:
		if !cmd.Motor.Kind.IsValid() {
			return &comm.MotorKindError{Kind: cmd.Motor.Kind}
		}
		b.Motor.Set(cmd.Motor)
		return nil
	}
	return fmt.Errorf("%w: %q", telemetry.ErrUnknownCommand, cmd.Kind)
}

// RunStepper is the background context: zero the stepper, then follow
// the steering target.
func (b *Board) RunStepper(ctx context.Context) error {
	if err := b.Stepper.SetSpeed(b.Stepper.RPM); err != nil {
		return err
	}
	if err := b.Stepper.Zero(ctx); err != nil {
		return err
	}
	return b.Stepper.Run(ctx)
}

// Run runs the board contexts along with extra Runnables until ctx is
// done or any of them fails.
func (b *Board) Run(ctx context.Context, extra ...fx.Runnable) error {
	return fx.NewRunnerWith(ctx).
		Go(fx.NamedRun("tick", b.Loop),
			fx.NamedRun("link", b.Link),
			fx.NamedRun("stepper", fx.RunFunc(b.RunStepper))).
		Go(extra...).
		Wait()
}
