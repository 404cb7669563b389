package rig

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rig.go/pkg/board"
	fx "github.com/robotalks/rig.go/pkg/framework"
	"github.com/robotalks/rig.go/pkg/l0/comm"
	"github.com/robotalks/rig.go/pkg/l0/drive"
	"github.com/robotalks/rig.go/pkg/sim"
)

func newRig(t *testing.T, profile string, line *sim.Line) *Rig {
	conf, err := board.Profile(profile)
	require.NoError(t, err)
	return New(&conf, line, sim.NewStepTimer())
}

func TestSharedLine(t *testing.T) {
	line := sim.NewLine()
	left, right := newRig(t, "left", line), newRig(t, "right", line)
	remote := line.Attach()

	require.NoError(t, comm.Frame{ID: 1, MotorState: comm.Fwd(10), MotorDirection: 0}.Send(remote))
	require.NoError(t, comm.Frame{ID: 2, MotorState: comm.Rev(20), MotorDirection: 255}.Send(remote))
	for _, r := range []*Rig{left, right} {
		require.NoError(t, r.Board.Link.Drain(context.TODO()))
		require.Equal(t, drive.DispatchStats{Accepted: 1, Foreign: 1}, r.Board.Dispatcher.Stats())
	}
	motor, _ := left.Board.Motor.Get()
	require.Equal(t, comm.Fwd(10), motor)
	motor, _ = right.Board.Motor.Get()
	require.Equal(t, comm.Rev(20), motor)
	require.Equal(t, int32(0), left.Board.Steering.Target())
	require.Equal(t, int32(14400), right.Board.Steering.Target())
}

func TestInitialPlant(t *testing.T) {
	r := newRig(t, "right", sim.NewLine())
	require.Equal(t, "right", r.Name())
	require.Equal(t, uint16(2297), r.ADC.Value(r.Board.Config.Channels.Gear))
	require.Equal(t, uint16(1900), r.ADC.Value(r.Board.Config.Channels.Throttle))
	require.Equal(t, int32(7200), r.Steering.Position())
	require.True(t, r.Steering.LeftLimit.Read())
	require.True(t, r.Steering.RightLimit.Read())
}

func TestNotifySteering(t *testing.T) {
	r := newRig(t, "left", sim.NewLine())
	var changed []string
	r.SubscribeObjectsChange(sim.ObjectsChangeFunc(func(_ fx.ControlContext, objs ...sim.Object) {
		for _, obj := range objs {
			changed = append(changed, obj.Name())
		}
	}))

	now := time.Unix(1000, 0)
	tick := func() {
		now = now.Add(time.Millisecond)
		r.Board.Loop.RunTick(context.TODO(), now)
	}
	tick()
	require.Equal(t, []string{"steering"}, changed)
	tick()
	require.Equal(t, []string{"steering"}, changed)

	r.Throttle.In2.Set(true)
	tick()
	require.Equal(t, []string{"steering", "throttle"}, changed)
}

func TestExternalLink(t *testing.T) {
	conf, err := board.Profile("left")
	require.NoError(t, err)
	line := sim.NewLine()
	r := NewWithLink(&conf, line.Attach(), sim.NewStepTimer())
	require.Nil(t, r.Remote)
	require.Error(t, r.Send(comm.Frame{ID: 1}))

	require.NoError(t, comm.Frame{ID: 1, MotorState: comm.Fwd(5)}.Send(line.Attach()))
	require.NoError(t, r.Board.Link.Drain(context.TODO()))
	require.Equal(t, uint64(1), r.Board.Link.Stats().Frames)
}
