// Package joystick turns a joystick into the potentiometers of the remote
// board, so the rig can be driven without the operator console.
package joystick

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rig.go/pkg/hal"
	"github.com/robotalks/rig.go/pkg/joystick/device"
)

// FullScale is the largest reading of a potentiometer.
const FullScale uint16 = 4095

// ReopenInterval is the delay before retrying a missing device.
const ReopenInterval = time.Second

// Pots is a hal.ADC reading joystick axes.
type Pots struct {
	DeviceIndex int
	Verbose     bool
	// Open is replaced in tests.
	Open func(index int) (device.Device, error)

	lock   sync.RWMutex
	axes   map[hal.Channel]Axis
	values map[hal.Channel]uint16
}

// NewPots creates Pots, every channel at its center.
func NewPots(axes ...Axis) *Pots {
	p := &Pots{
		DeviceIndex: -1,
		Open:        openDevice,
		axes:        make(map[hal.Channel]Axis),
		values:      make(map[hal.Channel]uint16),
	}
	for _, axis := range axes {
		p.axes[axis.Channel] = axis
		p.values[axis.Channel] = axis.Center
	}
	return p
}

func openDevice(index int) (device.Device, error) {
	if index >= 0 {
		return device.Open(index)
	}
	return device.DetectAndOpen(0)
}

// Name implements Named.
func (p *Pots) Name() string {
	return "joystick"
}

// Sample implements hal.ADC.
func (p *Pots) Sample(ch hal.Channel) (uint16, error) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	v, ok := p.values[ch]
	if !ok {
		return 0, fmt.Errorf("channel %d not mapped to any axis", ch)
	}
	return v, nil
}

// Reading maps an axis value in [-32767, 32767] to the potentiometer.
func (a Axis) Reading(value int) uint16 {
	if a.Invert {
		value = -value
	}
	center := int(a.Center)
	switch {
	case value < 0:
		center += value * center / 32767
	case value > 0:
		center += value * (int(FullScale) - center) / 32767
	}
	if center < 0 {
		return 0
	}
	if center > int(FullScale) {
		return FullScale
	}
	return uint16(center)
}

// HandleEvent updates the channel mapped to the event's axis.
func (p *Pots) HandleEvent(ev device.Event) {
	axisEv, ok := ev.(device.AxisEvent)
	if !ok {
		return
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	for ch, axis := range p.axes {
		if axis.Index == axisEv.Index() {
			p.values[ch] = axis.Reading(axisEv.Value())
		}
	}
}

// Recenter returns every channel to its center.
func (p *Pots) Recenter() {
	p.lock.Lock()
	defer p.lock.Unlock()
	for ch, axis := range p.axes {
		p.values[ch] = axis.Center
	}
}

// Run implements Runnable. It keeps (re)opening the device and follows its
// events until ctx is done. Losing the device recenters the sticks.
func (p *Pots) Run(ctx context.Context) error {
	for {
		js, err := p.Open(p.DeviceIndex)
		switch {
		case err != nil:
			glog.V(1).Infof("open joystick %d: %v", p.DeviceIndex, err)
		case js == nil:
			glog.V(1).Info("no joystick detected")
		default:
			glog.Infof("joystick %d %q opened", js.Index(), js.Name())
			p.follow(ctx, js)
			p.Recenter()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(ReopenInterval):
		}
	}
}

func (p *Pots) follow(ctx context.Context, js device.Device) {
	stop := make(chan struct{})
	defer close(stop)
	defer js.Close()
	// closing the device unblocks ReadEvent.
	go func() {
		select {
		case <-ctx.Done():
			js.Close()
		case <-stop:
		}
	}()
	for {
		ev, err := js.ReadEvent()
		if err != nil {
			if ctx.Err() == nil {
				glog.Warningf("joystick %d: %v", js.Index(), err)
			}
			return
		}
		if p.Verbose {
			glog.Infof("joystick event %#v", ev)
		}
		p.HandleEvent(ev)
	}
}
