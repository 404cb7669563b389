package sim

import (
	"errors"
	"sync"
	"time"
)

// ErrTimerStopped is returned by Wait before the timer is started.
var ErrTimerStopped = errors.New("timer not started")

// StepTimer is a hal.Timer whose periods elapse instantly. Every Wait
// invokes the OnWait hooks, which is where a plant advances.
type StepTimer struct {
	lock   sync.Mutex
	hz     uint32
	waits  int
	onWait []func()
}

// NewStepTimer creates a stopped StepTimer.
func NewStepTimer() *StepTimer {
	return &StepTimer{}
}

// Start implements hal.Timer.
func (t *StepTimer) Start(hz uint32) error {
	t.lock.Lock()
	t.hz = hz
	t.lock.Unlock()
	return nil
}

// Wait implements hal.Timer.
func (t *StepTimer) Wait() error {
	t.lock.Lock()
	if t.hz == 0 {
		t.lock.Unlock()
		return ErrTimerStopped
	}
	t.waits++
	hooks := t.onWait
	t.lock.Unlock()
	for _, fn := range hooks {
		fn()
	}
	return nil
}

// OnWait installs a hook called on every elapsed period.
func (t *StepTimer) OnWait(fn func()) *StepTimer {
	t.lock.Lock()
	t.onWait = append(t.onWait, fn)
	t.lock.Unlock()
	return t
}

// Hz returns the frequency the timer was started with.
func (t *StepTimer) Hz() uint32 {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.hz
}

// Waits returns the number of elapsed periods.
func (t *StepTimer) Waits() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.waits
}

// ClockTimer is a hal.Timer on the wall clock.
type ClockTimer struct {
	lock   sync.Mutex
	ticker *time.Ticker
}

// NewClockTimer creates a stopped ClockTimer.
func NewClockTimer() *ClockTimer {
	return &ClockTimer{}
}

// Start implements hal.Timer.
func (t *ClockTimer) Start(hz uint32) error {
	if hz == 0 {
		return errors.New("zero frequency")
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.ticker != nil {
		t.ticker.Stop()
	}
	t.ticker = time.NewTicker(time.Second / time.Duration(hz))
	return nil
}

// Wait implements hal.Timer.
func (t *ClockTimer) Wait() error {
	t.lock.Lock()
	ticker := t.ticker
	t.lock.Unlock()
	if ticker == nil {
		return ErrTimerStopped
	}
	<-ticker.C
	return nil
}

// Stop stops the ticker.
func (t *ClockTimer) Stop() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
}
