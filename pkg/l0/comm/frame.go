package comm

import (
	"fmt"

	"github.com/robotalks/rig.go/pkg/hal"
)

// FrameSize is the encoded size of a Frame.
const FrameSize = 12

const (
	sync0   byte = 0xa3
	sync1   byte = 0xc9
	sync2   byte = 0x3d
	trailer byte = 0x65
)

// MotorKind is the direction part of a MotorState.
type MotorKind byte

// Motor kinds, valued by their wire tag.
const (
	MotorIdle MotorKind = 2
	MotorFwd  MotorKind = 3
	MotorRev  MotorKind = 4
)

// IsValid checks the kind has a wire tag.
func (k MotorKind) IsValid() bool {
	return k >= MotorIdle && k <= MotorRev
}

// String implements fmt.Stringer.
func (k MotorKind) String() string {
	switch k {
	case MotorIdle:
		return "idle"
	case MotorFwd:
		return "fwd"
	case MotorRev:
		return "rev"
	}
	return fmt.Sprintf("kind(%d)", byte(k))
}

// ParseMotorKind parses the String form of a valid kind.
func ParseMotorKind(name string) (MotorKind, bool) {
	for _, k := range []MotorKind{MotorIdle, MotorFwd, MotorRev} {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// MotorState is the desired motor state with its power.
type MotorState struct {
	Kind  MotorKind
	Power byte
}

// Idle creates an idle MotorState.
func Idle(power byte) MotorState { return MotorState{Kind: MotorIdle, Power: power} }

// Fwd creates a forward MotorState.
func Fwd(power byte) MotorState { return MotorState{Kind: MotorFwd, Power: power} }

// Rev creates a reverse MotorState.
func Rev(power byte) MotorState { return MotorState{Kind: MotorRev, Power: power} }

// String implements fmt.Stringer.
func (s MotorState) String() string {
	return fmt.Sprintf("%s(%d)", s.Kind, s.Power)
}

// MotorStateFromPot maps a 12-bit potentiometer reading to a MotorState:
// the low band reverses with power growing towards zero, the middle band
// idles and the high band drives forward.
func MotorStateFromPot(pot uint16) MotorState {
	switch {
	case pot < 1000:
		return Rev(byte(128 - Remap(int64(pot), 0, 999, 0, 128)))
	case pot < 2000:
		return Idle(0)
	default:
		return Fwd(byte(Remap(int64(pot), 2000, 4096, 0, 255)))
	}
}

// Remap linearly maps val from [inL, inH] to [outL, outH].
// The output range may be descending.
func Remap(val, inL, inH, outL, outH int64) int64 {
	return (val-inL)*(outH-outL)/(inH-inL) + outL
}

// Frame is one protocol message.
type Frame struct {
	ID             byte
	MotorState     MotorState
	MotorDirection byte
}

// String implements fmt.Stringer.
func (f Frame) String() string {
	return fmt.Sprintf("frame[%d] %s dir=%d", f.ID, f.MotorState, f.MotorDirection)
}

// Encode returns encoded bytes for sending.
func (f Frame) Encode() (b [FrameSize]byte) {
	b[0], b[1], b[2] = sync0, sync1, sync2
	b[3] = f.ID
	b[4] = byte(f.MotorState.Kind)
	b[5] = f.MotorState.Power
	b[6] = f.MotorDirection
	copy(b[7:11], b[3:7])
	b[11] = trailer
	return
}

// Decode parses an encoded frame. It returns false if the sync pattern,
// the state tag, the mirror copy or the trailer doesn't match.
func Decode(b *[FrameSize]byte) (f Frame, ok bool) {
	if b[0] != sync0 || b[1] != sync1 || b[2] != sync2 {
		return
	}
	kind := MotorKind(b[4])
	if !kind.IsValid() {
		return
	}
	if b[3] != b[7] || b[4] != b[8] || b[5] != b[9] || b[6] != b[10] {
		return
	}
	if b[11] != trailer {
		return
	}
	return Frame{
		ID:             b[3],
		MotorState:     MotorState{Kind: kind, Power: b[5]},
		MotorDirection: b[6],
	}, true
}

// Send writes encoded bytes one by one.
func (f Frame) Send(w hal.ByteWriter) error {
	if !f.MotorState.Kind.IsValid() {
		return &MotorKindError{Kind: f.MotorState.Kind}
	}
	b := f.Encode()
	for _, c := range b {
		if err := w.WriteByte(c); err != nil {
			return err
		}
	}
	return nil
}
