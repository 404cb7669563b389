package hal

import "sync"

// CriticalSection guarantees mutual exclusion between execution contexts
// for the duration of fn.
type CriticalSection interface {
	Do(fn func())
}

// Lock is a CriticalSection backed by a mutex. The zero value is ready.
// One Lock is created at startup and shared by every component which
// hands data across contexts.
type Lock struct {
	mu sync.Mutex
}

// NewLock creates a Lock.
func NewLock() *Lock {
	return &Lock{}
}

// Do implements CriticalSection.
func (l *Lock) Do(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn()
}
