// Package hal defines the hardware collaborators consumed by the rig
// components. Implementations live with the platform (see pkg/sim and
// pkg/hal/serial).
package hal

import "errors"

// ErrWouldBlock indicates a non-blocking operation has nothing to offer yet.
var ErrWouldBlock = errors.New("would block")

// InputPin is a digital input.
type InputPin interface {
	Read() bool
}

// OutputPin is a digital output.
type OutputPin interface {
	Set(high bool)
}

// Channel identifies an analog input channel.
type Channel uint8

// ADC takes one-shot samples. A sample may block briefly.
type ADC interface {
	Sample(Channel) (uint16, error)
}

// Timer is a periodic count-down timer which auto-repeats once started.
type Timer interface {
	// Start (re)starts the timer at the given frequency.
	Start(hz uint32) error
	// Wait blocks until the current period elapses.
	Wait() error
}

// ByteSource is the receiving side of a serial endpoint.
type ByteSource interface {
	// TryRead returns the next received byte or ErrWouldBlock.
	TryRead() (byte, error)
	// Readable is signaled when bytes become available.
	Readable() <-chan struct{}
}

// ByteWriter is the transmitting side of a serial endpoint.
// WriteByte may poll until the byte is accepted.
type ByteWriter interface {
	WriteByte(byte) error
}

// ByteStream is a full-duplex serial endpoint.
type ByteStream interface {
	ByteSource
	ByteWriter
}

// PWMPin is a pulse-width modulated output.
type PWMPin interface {
	MaxDuty() uint16
	SetDuty(uint16)
}
