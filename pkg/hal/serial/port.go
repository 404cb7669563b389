// Package serial exposes a serial device as a hal.ByteStream.
package serial

import (
	"errors"
	"io"
	"sync"

	"github.com/golang/glog"
	"go.bug.st/serial.v1"

	"github.com/robotalks/rig.go/pkg/hal"
)

// DefaultBaudRate is the link speed between boards.
const DefaultBaudRate = 9600

// RxBufferSize is the number of received bytes held before the reader
// stops pulling from the device.
const RxBufferSize = 256

var (
	// ErrNoSerialPortFound indicates Find has nothing to open.
	ErrNoSerialPortFound = errors.New("didn't find any available serial port")
	// ErrClosedPort indicates the port is closed.
	ErrClosedPort = errors.New("serial port is closed")
)

// Mode returns the 8N1 mode at baud.
func Mode(baud int) *serial.Mode {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	return &serial.Mode{
		BaudRate: baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
}

// Port is a hal.ByteStream over a serial device. A reader goroutine pulls
// from the device into a receive buffer, TryRead never blocks.
type Port struct {
	rw   io.ReadWriteCloser
	path string

	rxCh     chan byte
	readable chan struct{}
	closeCh  chan struct{}

	errLock sync.Mutex
	err     error

	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewPort wraps an opened device and starts receiving.
func NewPort(rw io.ReadWriteCloser, path string) *Port {
	p := &Port{
		rw:       rw,
		path:     path,
		rxCh:     make(chan byte, RxBufferSize),
		readable: make(chan struct{}, 1),
		closeCh:  make(chan struct{}),
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.readRoutine()
	}()
	return p
}

// Open opens the named device at baud.
func Open(name string, baud int) (*Port, error) {
	port, err := serial.Open(name, Mode(baud))
	if err != nil {
		return nil, err
	}
	glog.Infof("serial %s opened at %d baud", name, Mode(baud).BaudRate)
	return NewPort(port, name), nil
}

// Find opens the first available device.
func Find(baud int) (*Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	for _, name := range ports {
		glog.V(2).Infof("trying %q...", name)
		p, e := Open(name, baud)
		if e == nil {
			return p, nil
		}
		err = e
	}
	if err == nil {
		return nil, ErrNoSerialPortFound
	}
	return nil, err
}

// MustOpen opens name, or finds the first device if name is empty.
// It panics on failure.
func MustOpen(name string, baud int) *Port {
	var p *Port
	var err error
	if name == "" {
		p, err = Find(baud)
	} else {
		p, err = Open(name, baud)
	}
	if err != nil {
		panic(err)
	}
	return p
}

// Path returns device name / path of the port.
func (p *Port) Path() string {
	return p.path
}

// TryRead implements hal.ByteSource.
func (p *Port) TryRead() (byte, error) {
	select {
	case b := <-p.rxCh:
		return b, nil
	default:
	}
	if err := p.readErr(); err != nil {
		// the reader queues every byte before recording its error.
		select {
		case b := <-p.rxCh:
			return b, nil
		default:
		}
		return 0, err
	}
	return 0, hal.ErrWouldBlock
}

// Readable implements hal.ByteSource.
func (p *Port) Readable() <-chan struct{} {
	return p.readable
}

// WriteByte implements hal.ByteWriter.
func (p *Port) WriteByte(b byte) error {
	select {
	case <-p.closeCh:
		return ErrClosedPort
	default:
	}
	_, err := p.rw.Write([]byte{b})
	return err
}

// Write sends p in one call.
func (p *Port) Write(b []byte) (int, error) {
	select {
	case <-p.closeCh:
		return 0, ErrClosedPort
	default:
	}
	return p.rw.Write(b)
}

// Close stops receiving and closes the device.
func (p *Port) Close() (err error) {
	p.closeOnce.Do(func() {
		close(p.closeCh)
		err = p.rw.Close()
		p.wg.Wait()
	})
	return
}

func (p *Port) readErr() error {
	p.errLock.Lock()
	defer p.errLock.Unlock()
	return p.err
}

func (p *Port) notify() {
	select {
	case p.readable <- struct{}{}:
	default:
	}
}

func (p *Port) readRoutine() {
	buf := make([]byte, 32)
	for {
		n, err := p.rw.Read(buf)
		for _, b := range buf[:n] {
			select {
			case p.rxCh <- b:
			case <-p.closeCh:
				return
			}
			p.notify()
		}
		if err != nil {
			select {
			case <-p.closeCh:
				err = ErrClosedPort
			default:
			}
			p.errLock.Lock()
			p.err = err
			p.errLock.Unlock()
			p.notify()
			return
		}
	}
}
