package comm

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/rig.go/pkg/hal"
)

// FrameHandler is called when a frame is received.
type FrameHandler interface {
	HandleFrame(context.Context, Frame)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, Frame)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, frame Frame) {
	f(ctx, frame)
}

// LinkStats counts received traffic.
type LinkStats struct {
	Bytes  uint64
	Frames uint64
}

// Link is the receiving context of a serial endpoint. It waits until the
// source is readable, drains every available byte through the parser and
// hands decoded frames to Handler.
type Link struct {
	Source  hal.ByteSource
	Handler FrameHandler

	parser StreamParser
	bytes  uint64
	frames uint64
}

// NewLink creates a Link.
func NewLink(src hal.ByteSource, handler FrameHandler) *Link {
	return &Link{Source: src, Handler: handler}
}

// Stats gets the traffic counters. It's safe to call from any context.
func (l *Link) Stats() LinkStats {
	return LinkStats{
		Bytes:  atomic.LoadUint64(&l.bytes),
		Frames: atomic.LoadUint64(&l.frames),
	}
}

// Run processes the Link until ctx is done or the source fails.
func (l *Link) Run(ctx context.Context) error {
	readable := l.Source.Readable()
	for {
		// bytes may already be waiting before the first notification.
		if err := l.Drain(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-readable:
		}
	}
}

// Drain feeds every byte currently available from the source.
func (l *Link) Drain(ctx context.Context) error {
	for {
		frame, ok, err := l.parser.PollAndFeed(l.Source)
		if errors.Is(err, hal.ErrWouldBlock) {
			return nil
		}
		if err != nil {
			return err
		}
		atomic.AddUint64(&l.bytes, 1)
		if !ok {
			continue
		}
		atomic.AddUint64(&l.frames, 1)
		glog.V(2).Infof("RCV %s", frame)
		if h := l.Handler; h != nil {
			h.HandleFrame(ctx, frame)
		}
	}
}
