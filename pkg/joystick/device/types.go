// Package device reads the Linux joystick interface.
package device

import (
	"errors"
	"io"
)

// ErrUnsupported indicates the platform has no joystick interface.
var ErrUnsupported = errors.New("joystick not supported on this platform")

// Event defines the base event interface.
type Event interface {
	// IsInit indicates the event reports the initial state.
	IsInit() bool
	// Index returns either Axis or Button index.
	Index() int
}

// AxisEvent reports the position of an axis.
type AxisEvent interface {
	Event
	Value() int
}

// ButtonEvent reports the state of a button.
type ButtonEvent interface {
	Event
	Pressed() bool
}

// Device represents an opened joystick.
type Device interface {
	io.Closer
	Index() int
	Name() string
	AxisCount() int
	ButtonCount() int
	// ReadEvent blocks until the next event.
	ReadEvent() (Event, error)
}
