package sim

import (
	"math/rand"
	"sync"

	"github.com/robotalks/rig.go/pkg/hal"
)

// Line is a shared serial line. Every byte written by one endpoint is
// received by all the others, the way the remote board's TX reaches both
// driver boards.
type Line struct {
	lock      sync.Mutex
	endpoints []*Endpoint

	noise float64
	rnd   *rand.Rand
}

// NewLine creates a noiseless Line.
func NewLine() *Line {
	return &Line{}
}

// SetNoise corrupts each transmitted byte with the given probability.
func (l *Line) SetNoise(rate float64, seed int64) *Line {
	l.lock.Lock()
	l.noise, l.rnd = rate, rand.New(rand.NewSource(seed))
	l.lock.Unlock()
	return l
}

// Attach creates a new Endpoint on the line.
func (l *Line) Attach() *Endpoint {
	ep := &Endpoint{line: l, readable: make(chan struct{}, 1)}
	l.lock.Lock()
	l.endpoints = append(l.endpoints, ep)
	l.lock.Unlock()
	return ep
}

func (l *Line) transmit(from *Endpoint, b byte) {
	l.lock.Lock()
	if l.noise > 0 && l.rnd.Float64() < l.noise {
		b ^= byte(1 << uint(l.rnd.Intn(8)))
	}
	eps := l.endpoints
	l.lock.Unlock()
	for _, ep := range eps {
		if ep != from {
			ep.Inject(b)
		}
	}
}

// Endpoint is one station on a Line, implementing hal.ByteStream.
type Endpoint struct {
	line     *Line
	lock     sync.Mutex
	rx       []byte
	tx       int
	readable chan struct{}
}

// TryRead implements hal.ByteSource.
func (e *Endpoint) TryRead() (byte, error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	if len(e.rx) == 0 {
		return 0, hal.ErrWouldBlock
	}
	b := e.rx[0]
	e.rx = e.rx[1:]
	return b, nil
}

// Readable implements hal.ByteSource.
func (e *Endpoint) Readable() <-chan struct{} {
	return e.readable
}

// WriteByte implements hal.ByteWriter.
func (e *Endpoint) WriteByte(b byte) error {
	e.lock.Lock()
	e.tx++
	e.lock.Unlock()
	e.line.transmit(e, b)
	return nil
}

// Inject places bytes in the receive buffer as if they arrived on the line.
func (e *Endpoint) Inject(p ...byte) {
	e.lock.Lock()
	e.rx = append(e.rx, p...)
	e.lock.Unlock()
	select {
	case e.readable <- struct{}{}:
	default:
	}
}

// Transmitted returns the number of bytes written.
func (e *Endpoint) Transmitted() int {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.tx
}
