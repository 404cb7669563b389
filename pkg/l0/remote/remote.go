// Package remote implements the controller board: it samples the operator
// potentiometers and broadcasts one frame per driver board.
package remote

import (
	"sync/atomic"

	"github.com/golang/glog"

	fx "github.com/robotalks/rig.go/pkg/framework"
	"github.com/robotalks/rig.go/pkg/hal"
	"github.com/robotalks/rig.go/pkg/l0/comm"
)

// DefaultRate is the frame rate in Hz.
const DefaultRate = 10

// Channels maps the potentiometers to ADC channels.
type Channels struct {
	Left  hal.Channel `yaml:"left"`
	Mid   hal.Channel `yaml:"mid"`
	Right hal.Channel `yaml:"right"`
}

// Config defines the controller board.
type Config struct {
	// Rate is the number of frame pairs sent per second.
	Rate     uint32   `yaml:"rate"`
	LeftID   byte     `yaml:"left_id"`
	RightID  byte     `yaml:"right_id"`
	Channels Channels `yaml:"channels"`
}

// DefaultConfig returns the rig's controller settings.
func DefaultConfig() Config {
	return Config{
		Rate:     DefaultRate,
		LeftID:   1,
		RightID:  2,
		Channels: Channels{Left: 0, Mid: 1, Right: 2},
	}
}

// Linearize corrects the log taper of the side potentiometers, mapping the
// knee at raw 450 to the middle of the range.
func Linearize(x uint16) uint16 {
	if x < 450 {
		return uint16(comm.Remap(int64(x), 0, 439, 0, 2047))
	}
	return uint16(comm.Remap(int64(x), 450, 4096, 2048, 4096))
}

// Transmitter samples the potentiometers and writes frames to the link.
type Transmitter struct {
	Config

	// LeftIdle and RightIdle are optional indicators lit while the
	// corresponding side idles.
	LeftIdle  hal.OutputPin
	RightIdle hal.OutputPin

	adc  hal.ADC
	link hal.ByteWriter

	sent uint64
}

// NewTransmitter creates a Transmitter.
func NewTransmitter(conf Config, adc hal.ADC, link hal.ByteWriter) *Transmitter {
	return &Transmitter{Config: conf, adc: adc, link: link}
}

// Frames samples the potentiometers and builds the frames.
func (t *Transmitter) Frames() (left, right comm.Frame, err error) {
	var l, m, r uint16
	if l, err = t.adc.Sample(t.Channels.Left); err != nil {
		return
	}
	if m, err = t.adc.Sample(t.Channels.Mid); err != nil {
		return
	}
	if r, err = t.adc.Sample(t.Channels.Right); err != nil {
		return
	}
	if l > 4096 {
		l = 4096
	}
	if r > 4096 {
		r = 4096
	}
	dir := byte(m >> 4)
	left = comm.Frame{
		ID:             t.LeftID,
		MotorState:     comm.MotorStateFromPot(Linearize(l)),
		MotorDirection: dir,
	}
	right = comm.Frame{
		ID:             t.RightID,
		MotorState:     comm.MotorStateFromPot(4096 - Linearize(4096-r)),
		MotorDirection: dir,
	}
	return
}

// Transmit sends one pair of frames.
func (t *Transmitter) Transmit() error {
	left, right, err := t.Frames()
	if err != nil {
		return err
	}
	indicate(t.LeftIdle, left.MotorState)
	indicate(t.RightIdle, right.MotorState)
	for _, f := range []comm.Frame{left, right} {
		if err := f.Send(t.link); err != nil {
			return err
		}
		glog.V(2).Infof("SND %s", f)
	}
	atomic.AddUint64(&t.sent, 2)
	return nil
}

// Sent returns the number of frames sent.
func (t *Transmitter) Sent() uint64 {
	return atomic.LoadUint64(&t.sent)
}

// Control implements fx.Controller.
func (t *Transmitter) Control(fx.ControlContext) error {
	return t.Transmit()
}

// AddToLoop implements fx.LoopAdder.
func (t *Transmitter) AddToLoop(l *fx.Loop) {
	l.AddController(fx.PrLvAcuate, t)
}

func indicate(pin hal.OutputPin, s comm.MotorState) {
	if pin != nil {
		pin.Set(s.Kind == comm.MotorIdle)
	}
}
