package comm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

type byteRecorder struct {
	bytes []byte
	limit int
}

func (r *byteRecorder) WriteByte(b byte) error {
	if r.limit > 0 && len(r.bytes) >= r.limit {
		return errors.New("tx full")
	}
	r.bytes = append(r.bytes, b)
	return nil
}

func TestFrameEncode(t *testing.T) {
	f := Frame{ID: 1, MotorState: Fwd(200), MotorDirection: 77}
	require.Equal(t, [FrameSize]byte{
		0xa3, 0xc9, 0x3d,
		0x01, 0x03, 0xc8, 0x4d,
		0x01, 0x03, 0xc8, 0x4d,
		0x65,
	}, f.Encode())
}

func TestFrameRoundTrip(t *testing.T) {
	for _, state := range []MotorState{Idle(0), Idle(54), Fwd(32), Fwd(255), Rev(154), Rev(0)} {
		for _, id := range []byte{0, 1, 2, 0xff} {
			for _, dir := range []byte{0, 77, 128, 255} {
				f := Frame{ID: id, MotorState: state, MotorDirection: dir}
				b := f.Encode()
				decoded, ok := Decode(&b)
				require.True(t, ok, f.String())
				require.Equal(t, f, decoded)
			}
		}
	}
}

func TestFrameCorruption(t *testing.T) {
	valid := Frame{ID: 2, MotorState: Rev(17), MotorDirection: 200}.Encode()
	for i := 0; i < FrameSize; i++ {
		t.Run(fmt.Sprintf("byte %d", i), func(t *testing.T) {
			b := valid
			b[i] ^= 0x5a
			_, ok := Decode(&b)
			require.False(t, ok)
		})
	}
}

func TestFrameBadTag(t *testing.T) {
	for _, tag := range []byte{0, 1, 5, 0xff} {
		b := Frame{ID: 1, MotorState: Idle(0)}.Encode()
		b[4], b[8] = tag, tag
		_, ok := Decode(&b)
		require.Falsef(t, ok, "tag %d", tag)
	}
}

func TestFrameSend(t *testing.T) {
	f := Frame{ID: 1, MotorState: Fwd(200), MotorDirection: 77}
	var rec byteRecorder
	require.NoError(t, f.Send(&rec))
	expect := f.Encode()
	require.Equal(t, expect[:], rec.bytes)

	rec = byteRecorder{limit: 3}
	require.Error(t, f.Send(&rec))
	require.Len(t, rec.bytes, 3)

	err := Frame{MotorState: MotorState{Kind: 9}}.Send(&byteRecorder{})
	var kindErr *MotorKindError
	require.True(t, errors.As(err, &kindErr))
	require.Equal(t, MotorKind(9), kindErr.Kind)
}

func TestRemap(t *testing.T) {
	require.Equal(t, int64(50), Remap(5, 0, 10, 0, 100))
	require.Equal(t, int64(5), Remap(50, 0, 100, 0, 10))
	require.Equal(t, int64(2720), Remap(0, 0, 255, 2720, 1500))
	require.Equal(t, int64(1500), Remap(255, 0, 255, 2720, 1500))
}

func TestMotorStateFromPot(t *testing.T) {
	testCases := []struct {
		pot    uint16
		expect MotorState
	}{
		{0, Rev(128)},
		{999, Rev(0)},
		{1000, Idle(0)},
		{1999, Idle(0)},
		{2000, Fwd(0)},
		{4095, Fwd(254)},
		{4096, Fwd(255)},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("pot %d", tc.pot), func(t *testing.T) {
			require.Equal(t, tc.expect, MotorStateFromPot(tc.pot))
		})
	}
}

func TestParseMotorKind(t *testing.T) {
	for _, kind := range []MotorKind{MotorIdle, MotorFwd, MotorRev} {
		parsed, ok := ParseMotorKind(kind.String())
		require.True(t, ok)
		require.Equal(t, kind, parsed)
	}
	_, ok := ParseMotorKind("kind(5)")
	require.False(t, ok)
}
