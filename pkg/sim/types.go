// Package sim provides simulated hardware for running the rig firmware
// off-target: pins, ADC, timers, a shared serial line and the plants in
// sim/physics which close the loop.
package sim

import (
	"sync"

	fx "github.com/robotalks/rig.go/pkg/framework"
)

// Object represents a simulated part of the rig.
type Object interface {
	fx.Named
}

// ObjectsChangeListener listens for object changes.
type ObjectsChangeListener interface {
	ObjectsChanged(fx.ControlContext, ...Object)
}

// ObjectsChangeSubscriber subscribes objects change notifications.
type ObjectsChangeSubscriber interface {
	SubscribeObjectsChange(ObjectsChangeListener)
}

// ObjectsChangeFunc is the func form of ObjectsChangeListener.
type ObjectsChangeFunc func(fx.ControlContext, ...Object)

// ObjectsChanged implements ObjectsChangeListener.
func (f ObjectsChangeFunc) ObjectsChanged(cc fx.ControlContext, objs ...Object) {
	f(cc, objs...)
}

// ObjectsChangeCaster forwards changes to its subscribers. Embedding it
// makes an object both a subscriber and a listener relaying to them.
// Subscribing is safe while the tick loop casts.
type ObjectsChangeCaster struct {
	lock      sync.RWMutex
	listeners []ObjectsChangeListener
}

// SubscribeObjectsChange implements ObjectsChangeSubscriber.
func (c *ObjectsChangeCaster) SubscribeObjectsChange(ln ObjectsChangeListener) {
	c.lock.Lock()
	c.listeners = append(c.listeners, ln)
	c.lock.Unlock()
}

// ObjectsChanged implements ObjectsChangeListener.
func (c *ObjectsChangeCaster) ObjectsChanged(cc fx.ControlContext, objs ...Object) {
	c.lock.RLock()
	listeners := c.listeners
	c.lock.RUnlock()
	for _, ln := range listeners {
		ln.ObjectsChanged(cc, objs...)
	}
}
