//go:build linux
// +build linux

package device

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"syscall"
	"unsafe"
)

const (
	iocGAXES    uint = 0x80016a11
	iocGBUTTONS uint = 0x80016a12
	iocGNAME    uint = 0x80ff6a13

	evBTN  uint8 = 0x01
	evAXIS uint8 = 0x02
	evINIT uint8 = 0x80

	maxIndex = 256
)

// jsEvent is struct js_event from linux/joystick.h.
type jsEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

func (e jsEvent) IsInit() bool {
	return e.Type&evINIT != 0
}

func (e jsEvent) Index() int {
	return int(e.Number)
}

type axisEvent struct{ jsEvent }

func (e axisEvent) Value() int {
	return int(e.jsEvent.Value)
}

type buttonEvent struct{ jsEvent }

func (e buttonEvent) Pressed() bool {
	return e.jsEvent.Value != 0
}

type joystick struct {
	file    *os.File
	index   int
	name    string
	axes    uint8
	buttons uint8
}

// Open opens /dev/input/jsN.
func Open(index int) (Device, error) {
	f, err := os.OpenFile(fmt.Sprintf("/dev/input/js%d", index), os.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	js := &joystick{file: f, index: index}
	var name [256]byte
	for _, q := range []struct {
		req uint
		ptr unsafe.Pointer
	}{
		{iocGAXES, unsafe.Pointer(&js.axes)},
		{iocGBUTTONS, unsafe.Pointer(&js.buttons)},
		{iocGNAME, unsafe.Pointer(&name)},
	} {
		if errno := js.ioctl(q.req, q.ptr); errno != 0 {
			f.Close()
			return nil, errno
		}
	}
	if pos := bytes.IndexByte(name[:], 0); pos >= 0 {
		js.name = string(name[:pos])
	} else {
		js.name = string(name[:])
	}
	return js, nil
}

// DetectAndOpen opens the first device from startIndex. It returns nil
// without error when there's none.
func DetectAndOpen(startIndex int) (Device, error) {
	for index := startIndex; index < maxIndex; index++ {
		js, err := Open(index)
		if os.IsNotExist(err) {
			continue
		}
		return js, err
	}
	return nil, nil
}

func (js *joystick) Close() error {
	return js.file.Close()
}

func (js *joystick) Index() int {
	return js.index
}

func (js *joystick) Name() string {
	return js.name
}

func (js *joystick) AxisCount() int {
	return int(js.axes)
}

func (js *joystick) ButtonCount() int {
	return int(js.buttons)
}

func (js *joystick) ReadEvent() (Event, error) {
	var ev jsEvent
	if err := binary.Read(js.file, binary.LittleEndian, &ev); err != nil {
		return nil, err
	}
	switch ev.Type &^ evINIT {
	case evAXIS:
		return axisEvent{ev}, nil
	case evBTN:
		return buttonEvent{ev}, nil
	}
	return ev, nil
}

func (js *joystick) ioctl(req uint, ptr unsafe.Pointer) syscall.Errno {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, js.file.Fd(), uintptr(req), uintptr(ptr))
	return errno
}
