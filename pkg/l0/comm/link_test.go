package comm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/rig.go/pkg/hal"
)

type testStream struct {
	lock     sync.Mutex
	pending  []byte
	err      error
	empty    error
	readable chan struct{}
}

func newTestStream() *testStream {
	return &testStream{empty: hal.ErrWouldBlock, readable: make(chan struct{}, 1)}
}

func (s *testStream) TryRead() (byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if len(s.pending) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		return 0, s.empty
	}
	b := s.pending[0]
	s.pending = s.pending[1:]
	return b, nil
}

func (s *testStream) Readable() <-chan struct{} {
	return s.readable
}

func (s *testStream) inject(p []byte) {
	s.lock.Lock()
	s.pending = append(s.pending, p...)
	s.lock.Unlock()
	select {
	case s.readable <- struct{}{}:
	default:
	}
}

func (s *testStream) fail(err error) {
	s.lock.Lock()
	s.err = err
	s.lock.Unlock()
	select {
	case s.readable <- struct{}{}:
	default:
	}
}

type linkTestCtx struct {
	t       *testing.T
	stream  *testStream
	link    *Link
	frameCh chan Frame
	errCh   chan error
	cancel  func()
}

func newLinkTestCtx(t *testing.T) *linkTestCtx {
	tctx := &linkTestCtx{
		t:       t,
		stream:  newTestStream(),
		frameCh: make(chan Frame, 16),
		errCh:   make(chan error, 1),
	}
	tctx.link = NewLink(tctx.stream, HandleFrameFunc(func(ctx context.Context, f Frame) {
		tctx.frameCh <- f
	}))
	return tctx
}

func (c *linkTestCtx) start() *linkTestCtx {
	ctx, cancel := context.WithCancel(context.TODO())
	c.cancel = cancel
	go func() {
		c.errCh <- c.link.Run(ctx)
	}()
	return c
}

func (c *linkTestCtx) expectFrames(frames ...Frame) *linkTestCtx {
	for n, expected := range frames {
		select {
		case f := <-c.frameCh:
			require.Equalf(c.t, expected, f, "frame[%d] mismatch", n)
		case <-time.After(500 * time.Millisecond):
			c.t.Fatalf("frame[%d] timeout", n)
		}
	}
	return c
}

func (c *linkTestCtx) expectNoFrame() *linkTestCtx {
	select {
	case f := <-c.frameCh:
		c.t.Fatalf("unexpected frame %s", f)
	case <-time.After(50 * time.Millisecond):
	}
	return c
}

func encodeAll(frames ...Frame) []byte {
	var out []byte
	for _, f := range frames {
		enc := f.Encode()
		out = append(out, enc[:]...)
	}
	return out
}

func TestLinkReceive(t *testing.T) {
	f1 := Frame{ID: 1, MotorState: Fwd(200), MotorDirection: 77}
	f2 := Frame{ID: 2, MotorState: Idle(0), MotorDirection: 128}

	tctx := newLinkTestCtx(t).start()
	defer tctx.cancel()

	tctx.stream.inject(encodeAll(f1, f2))
	tctx.expectFrames(f1, f2)

	enc := f1.Encode()
	tctx.stream.inject(append([]byte{0x00, 0xa3, 0x17}, enc[:5]...))
	tctx.expectNoFrame()
	tctx.stream.inject(enc[5:])
	tctx.expectFrames(f1)

	require.Equal(t, LinkStats{Bytes: 39, Frames: 3}, tctx.link.Stats())
}

func TestLinkPendingBeforeRun(t *testing.T) {
	f := Frame{ID: 1, MotorState: Rev(10), MotorDirection: 1}
	tctx := newLinkTestCtx(t)
	tctx.stream.pending = encodeAll(f)
	tctx.start()
	defer tctx.cancel()
	tctx.expectFrames(f)
}

func TestLinkSourceError(t *testing.T) {
	tctx := newLinkTestCtx(t).start()
	defer tctx.cancel()
	failure := errors.New("framing error")
	tctx.stream.fail(failure)
	select {
	case err := <-tctx.errCh:
		require.Equal(t, failure, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("link didn't stop")
	}
}

func TestLinkCancel(t *testing.T) {
	tctx := newLinkTestCtx(t).start()
	tctx.cancel()
	select {
	case err := <-tctx.errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("link didn't stop")
	}
}

func TestLinkDrainWrappedWouldBlock(t *testing.T) {
	f := Frame{ID: 2, MotorState: Fwd(9), MotorDirection: 3}
	tctx := newLinkTestCtx(t)
	tctx.stream.empty = fmt.Errorf("uart: %w", hal.ErrWouldBlock)
	tctx.stream.pending = encodeAll(f)
	require.NoError(t, tctx.link.Drain(context.Background()))
	tctx.expectFrames(f)
	require.Equal(t, LinkStats{Bytes: 12, Frames: 1}, tctx.link.Stats())
}
