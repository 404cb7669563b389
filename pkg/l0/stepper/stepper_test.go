package stepper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rig.go/pkg/hal"
	"github.com/robotalks/rig.go/pkg/mailbox"
	"github.com/robotalks/rig.go/pkg/sim"
	"github.com/robotalks/rig.go/pkg/sim/physics"
)

type stepperTestCtx struct {
	t       *testing.T
	axis    *physics.StepperAxis
	timer   *sim.StepTimer
	stepper *Stepper
}

// the axis travels 200 steps, starting 50 steps right of the left end.
func newStepperTestCtx(t *testing.T, conf Config) *stepperTestCtx {
	c := &stepperTestCtx{
		t:     t,
		axis:  physics.NewStepperAxis("steering", -100, 100, -50),
		timer: sim.NewStepTimer(),
	}
	c.stepper = New(conf, Pins{
		Enable:     c.axis.Enable,
		Dir:        c.axis.Dir,
		Pulse:      c.axis.Pulse,
		LeftLimit:  c.axis.LeftLimit,
		RightLimit: c.axis.RightLimit,
		Alarm:      c.axis.Alarm,
	}, c.timer, NewController(hal.NewLock()))
	require.NoError(t, c.stepper.SetSpeed(c.stepper.RPM))
	return c
}

func (c *stepperTestCtx) zero() *stepperTestCtx {
	require.NoError(c.t, c.stepper.Zero(context.Background()))
	return c
}

// runUntil runs the stepper until cond holds at a timer period.
func (c *stepperTestCtx) runUntil(cond func() bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.timer.OnWait(func() {
		if cond() {
			cancel()
		}
	})
	return c.stepper.Run(ctx)
}

func TestSetSpeed(t *testing.T) {
	c := newStepperTestCtx(t, DefaultConfig())
	require.Equal(t, uint32(16000), c.timer.Hz())

	require.NoError(t, c.stepper.SetSpeed(30))
	require.Equal(t, uint32(8000), c.timer.Hz())

	require.Equal(t, ErrZeroFrequency, c.stepper.SetSpeed(0))
	require.Equal(t, uint32(8000), c.timer.Hz())
}

func TestZero(t *testing.T) {
	c := newStepperTestCtx(t, DefaultConfig())
	c.stepper.position = 1234
	c.zero()
	require.Equal(t, int32(0), c.stepper.Position())
	require.Equal(t, int32(-100), c.axis.Position())
	require.Equal(t, 50, c.axis.Pulses())
	require.Equal(t, 100, c.timer.Waits())
	require.False(t, c.axis.Enable.Read())
	require.Equal(t, State{Position: 0, Action: Ready}, c.stepper.Controller().State())

	// already at the limit.
	c.zero()
	require.Equal(t, 50, c.axis.Pulses())
}

func TestZeroFailed(t *testing.T) {
	conf := DefaultConfig()
	conf.MaxZeroSteps = 10
	c := newStepperTestCtx(t, conf)
	require.Equal(t, ErrZeroFailed, c.stepper.Zero(context.Background()))
	require.Equal(t, 10, c.axis.Pulses())
	require.Equal(t, Ready, c.stepper.Controller().State().Action)
}

func TestZeroCanceled(t *testing.T) {
	c := newStepperTestCtx(t, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	c.timer.OnWait(func() {
		if c.axis.Pulses() >= 3 {
			cancel()
		}
	})
	require.Equal(t, context.Canceled, c.stepper.Zero(ctx))
	require.Equal(t, 3, c.axis.Pulses())
	require.Equal(t, Ready, c.stepper.Controller().State().Action)
}

func TestStepBoundedLeft(t *testing.T) {
	c := newStepperTestCtx(t, DefaultConfig()).zero()
	pulses := c.axis.Pulses()
	for i := 0; i < 10; i++ {
		require.NoError(t, c.stepper.StepLeft())
		require.Equal(t, int32(0), c.stepper.Position())
	}
	require.Equal(t, pulses, c.axis.Pulses())
}

func TestStepBoundedRight(t *testing.T) {
	c := newStepperTestCtx(t, DefaultConfig()).zero()
	last := c.stepper.Position()
	for i := 0; i < 250; i++ {
		require.NoError(t, c.stepper.StepRight())
		require.True(t, c.stepper.Position() >= last)
		last = c.stepper.Position()
	}
	require.Equal(t, int32(200), c.stepper.Position())
	require.Equal(t, int32(100), c.axis.Position())

	for i := 0; i < 5; i++ {
		require.NoError(t, c.stepper.StepLeft())
	}
	require.Equal(t, int32(195), c.stepper.Position())
	require.Equal(t, int32(95), c.axis.Position())
}

func TestStepTowardTarget(t *testing.T) {
	c := newStepperTestCtx(t, DefaultConfig()).zero()
	for i := 0; i < 5; i++ {
		require.NoError(t, c.stepper.Step(5))
	}
	require.Equal(t, int32(5), c.stepper.Position())
	require.False(t, c.axis.Dir.Read())

	waits, pulses := c.timer.Waits(), c.axis.Pulses()
	require.NoError(t, c.stepper.Step(5))
	require.Equal(t, waits+1, c.timer.Waits())
	require.Equal(t, pulses, c.axis.Pulses())

	require.NoError(t, c.stepper.Step(0))
	require.Equal(t, int32(4), c.stepper.Position())
	require.True(t, c.axis.Dir.Read())
}

func TestStepBlockedWaits(t *testing.T) {
	c := newStepperTestCtx(t, DefaultConfig()).zero()
	waits, pulses := c.timer.Waits(), c.axis.Pulses()
	require.NoError(t, c.stepper.Step(-10))
	require.Equal(t, waits+1, c.timer.Waits())
	require.Equal(t, pulses, c.axis.Pulses())
	require.Equal(t, int32(0), c.stepper.Position())
}

func TestRunFollowsTarget(t *testing.T) {
	c := newStepperTestCtx(t, DefaultConfig()).zero()
	ctl := c.stepper.Controller()
	ctl.Goto(20)
	err := c.runUntil(func() bool { return c.axis.Position() == -80 })
	require.Equal(t, context.Canceled, err)
	require.Equal(t, int32(20), c.stepper.Position())
	require.Equal(t, int32(20), ctl.Target())
}

func TestRunCommands(t *testing.T) {
	c := newStepperTestCtx(t, DefaultConfig()).zero()
	ctl := c.stepper.Controller()

	require.NoError(t, ctl.Send(GotoCommand(7)))
	err := ctl.Send(GotoCommand(9))
	var full *mailbox.FullError[Command]
	require.True(t, errors.As(err, &full))
	require.Equal(t, GotoCommand(9), full.Value)
	require.True(t, errors.Is(err, mailbox.ErrFull))

	err = c.runUntil(func() bool { return c.axis.Position() == -93 })
	require.Equal(t, context.Canceled, err)
	require.Equal(t, int32(7), c.stepper.Position())
	require.Equal(t, int32(7), ctl.Target())
	require.NoError(t, ctl.Send(GotoCommand(9)), "command slot drained")
}

func TestRunZeroCommand(t *testing.T) {
	c := newStepperTestCtx(t, DefaultConfig())
	ctl := c.stepper.Controller()
	require.NoError(t, ctl.Zero())
	err := c.runUntil(func() bool {
		return !c.axis.LeftLimit.Read() && ctl.State().Action == Ready
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, int32(0), c.stepper.Position())
	require.Equal(t, int32(-100), c.axis.Position())
}

func TestRunAlarm(t *testing.T) {
	c := newStepperTestCtx(t, DefaultConfig())
	c.axis.Alarm.Drive(true)
	require.Equal(t, ErrAlarm, c.stepper.Run(context.Background()))
}

func TestTimerNotStarted(t *testing.T) {
	axis := physics.NewStepperAxis("steering", -10, 10, 0)
	s := New(DefaultConfig(), Pins{
		Enable:     axis.Enable,
		Dir:        axis.Dir,
		Pulse:      axis.Pulse,
		LeftLimit:  axis.LeftLimit,
		RightLimit: axis.RightLimit,
	}, sim.NewStepTimer(), NewController(hal.NewLock()))
	require.Equal(t, sim.ErrTimerStopped, s.StepRight())
	require.False(t, axis.Pulse.Read())
	require.Equal(t, int32(0), s.Position())
}
