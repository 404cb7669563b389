package sim

import (
	"sync"
	"sync/atomic"
)

// Pin is a digital pin usable as both hal.InputPin and hal.OutputPin.
// It counts writes so tests can check for redundant output changes.
type Pin struct {
	lock   sync.Mutex
	level  bool
	writes int
	onSet  []func(bool)
}

// NewPin creates a Pin at the given level.
func NewPin(level bool) *Pin {
	return &Pin{level: level}
}

// Read implements hal.InputPin.
func (p *Pin) Read() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.level
}

// Set implements hal.OutputPin.
func (p *Pin) Set(level bool) {
	p.lock.Lock()
	p.level = level
	p.writes++
	hooks := p.onSet
	p.lock.Unlock()
	for _, fn := range hooks {
		fn(level)
	}
}

// Drive changes the level from the outside world without counting it as
// a write from the firmware.
func (p *Pin) Drive(level bool) {
	p.lock.Lock()
	p.level = level
	p.lock.Unlock()
}

// Writes returns the number of Set calls.
func (p *Pin) Writes() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.writes
}

// OnSet installs a hook called after every Set.
func (p *Pin) OnSet(fn func(level bool)) *Pin {
	p.lock.Lock()
	p.onSet = append(p.onSet, fn)
	p.lock.Unlock()
	return p
}

// PWM is a simulated hal.PWMPin.
type PWM struct {
	Max    uint16
	duty   uint32
	writes int32
}

// NewPWM creates a PWM with the given max duty.
func NewPWM(max uint16) *PWM {
	return &PWM{Max: max}
}

// MaxDuty implements hal.PWMPin.
func (p *PWM) MaxDuty() uint16 {
	return p.Max
}

// SetDuty implements hal.PWMPin.
func (p *PWM) SetDuty(duty uint16) {
	atomic.StoreUint32(&p.duty, uint32(duty))
	atomic.AddInt32(&p.writes, 1)
}

// Duty returns the last duty set.
func (p *PWM) Duty() uint16 {
	return uint16(atomic.LoadUint32(&p.duty))
}

// Writes returns the number of SetDuty calls.
func (p *PWM) Writes() int {
	return int(atomic.LoadInt32(&p.writes))
}
