package sim

import (
	"sync"

	"github.com/robotalks/rig.go/pkg/hal"
)

// ADC is a simulated 12-bit hal.ADC.
type ADC struct {
	lock    sync.Mutex
	values  map[hal.Channel]uint16
	err     error
	samples int
}

// ADCMax is the largest sample value.
const ADCMax = 4095

// NewADC creates an ADC reading 0 on every channel.
func NewADC() *ADC {
	return &ADC{values: make(map[hal.Channel]uint16)}
}

// Sample implements hal.ADC.
func (a *ADC) Sample(ch hal.Channel) (uint16, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if a.err != nil {
		return 0, a.err
	}
	a.samples++
	return a.values[ch], nil
}

// SetValue sets the reading of a channel, clamped to ADCMax.
func (a *ADC) SetValue(ch hal.Channel, v uint16) *ADC {
	if v > ADCMax {
		v = ADCMax
	}
	a.lock.Lock()
	a.values[ch] = v
	a.lock.Unlock()
	return a
}

// Value gets the current reading of a channel.
func (a *ADC) Value(ch hal.Channel) uint16 {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.values[ch]
}

// Fail makes every following Sample return err until cleared with nil.
func (a *ADC) Fail(err error) *ADC {
	a.lock.Lock()
	a.err = err
	a.lock.Unlock()
	return a
}

// Samples returns the number of successful samples.
func (a *ADC) Samples() int {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.samples
}
