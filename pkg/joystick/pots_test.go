package joystick

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rig.go/pkg/joystick/device"
	"github.com/robotalks/rig.go/pkg/l0/comm"
	"github.com/robotalks/rig.go/pkg/l0/remote"
)

type axisEvent struct {
	index, value int
}

func (e axisEvent) IsInit() bool { return false }
func (e axisEvent) Index() int   { return e.index }
func (e axisEvent) Value() int   { return e.value }

type buttonEvent struct{ index int }

func (e buttonEvent) IsInit() bool  { return false }
func (e buttonEvent) Index() int    { return e.index }
func (e buttonEvent) Pressed() bool { return true }

type fakeDevice struct {
	events chan device.Event
	once   sync.Once
	closed chan struct{}
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{events: make(chan device.Event), closed: make(chan struct{})}
}

func (d *fakeDevice) Close() error {
	d.once.Do(func() { close(d.closed) })
	return nil
}

func (d *fakeDevice) Index() int       { return 0 }
func (d *fakeDevice) Name() string     { return "fake" }
func (d *fakeDevice) AxisCount() int   { return 4 }
func (d *fakeDevice) ButtonCount() int { return 0 }

func (d *fakeDevice) ReadEvent() (device.Event, error) {
	select {
	case ev, ok := <-d.events:
		if !ok {
			return nil, io.EOF
		}
		return ev, nil
	case <-d.closed:
		return nil, errors.New("closed")
	}
}

func sample(t *testing.T, p *Pots) (l, m, r uint16) {
	ch := remote.DefaultConfig().Channels
	var err error
	l, err = p.Sample(ch.Left)
	require.NoError(t, err)
	m, err = p.Sample(ch.Mid)
	require.NoError(t, err)
	r, err = p.Sample(ch.Right)
	require.NoError(t, err)
	return
}

func TestAxisReading(t *testing.T) {
	testCases := []struct {
		axis   Axis
		value  int
		expect uint16
	}{
		{Axis{Center: 2048}, 0, 2048},
		{Axis{Center: 2048}, 32767, 4095},
		{Axis{Center: 2048}, -32767, 0},
		{Axis{Center: 2048}, -32768, 0},
		{Axis{Center: 300}, 32767, 4095},
		{Axis{Center: 300, Invert: true}, 32767, 0},
		{Axis{Center: 300, Invert: true}, -16384, 2197},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expect, tc.axis.Reading(tc.value), "%+v at %d", tc.axis, tc.value)
	}
}

func TestCenteredPotsIdle(t *testing.T) {
	p := NewConfig().NewPots()
	tx := remote.NewTransmitter(remote.DefaultConfig(), p, nil)
	left, right, err := tx.Frames()
	require.NoError(t, err)
	require.Equal(t, comm.MotorIdle, left.MotorState.Kind)
	require.Equal(t, comm.MotorIdle, right.MotorState.Kind)
	require.Equal(t, byte(128), left.MotorDirection)

	_, err = p.Sample(7)
	require.Error(t, err)
}

func TestHandleEvent(t *testing.T) {
	p := NewConfig().NewPots()
	p.HandleEvent(axisEvent{index: 0, value: 32767})
	p.HandleEvent(axisEvent{index: 1, value: -32767})
	p.HandleEvent(buttonEvent{index: 3})
	l, m, r := sample(t, p)
	require.Equal(t, uint16(4095), l)
	require.Equal(t, uint16(4095), m)
	require.Equal(t, uint16(2800), r)

	p.Recenter()
	l, m, r = sample(t, p)
	require.Equal(t, []uint16{300, 2048, 2800}, []uint16{l, m, r})
}

func TestRunFollowsDevice(t *testing.T) {
	dev := newFakeDevice()
	opened := make(chan struct{}, 1)
	p := NewConfig().NewPots()
	p.Open = func(int) (device.Device, error) {
		opened <- struct{}{}
		return dev, nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	<-opened
	dev.events <- axisEvent{index: 0, value: -32767}
	// unbuffered, so the second send waits for the first to be handled.
	dev.events <- axisEvent{index: 3, value: 32767}
	for i := 0; i < 100; i++ {
		if _, _, r := sample(t, p); r == 4095 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	_, m, r := sample(t, p)
	require.Equal(t, uint16(0), m)
	require.Equal(t, uint16(4095), r)

	cancel()
	require.Equal(t, context.Canceled, <-errCh)
	_, m, _ = sample(t, p)
	require.Equal(t, uint16(2048), m, "recentered when the device is gone")
}
