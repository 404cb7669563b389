package comm

import "github.com/robotalks/rig.go/pkg/hal"

// StreamParser finds frames in a byte stream. It keeps the last FrameSize
// bytes received and tests them on every byte, so it resynchronizes after
// corruption or a misaligned start without any extra state.
// The zero value is ready to use.
type StreamParser struct {
	ring [FrameSize]byte
	next byte
}

// Feed consumes one byte and returns the frame ending with it, if any.
func (p *StreamParser) Feed(b byte) (Frame, bool) {
	p.ring[p.next] = b
	if p.next++; p.next >= FrameSize {
		p.next = 0
	}
	var window [FrameSize]byte
	for i := range window {
		window[i] = p.ring[(int(p.next)+i)%FrameSize]
	}
	return Decode(&window)
}

// PollAndFeed reads at most one byte from src without blocking.
// It returns hal.ErrWouldBlock if nothing is available, in which case the
// parser is untouched. Otherwise the byte is fed and the result returned.
func (p *StreamParser) PollAndFeed(src hal.ByteSource) (f Frame, ok bool, err error) {
	var b byte
	if b, err = src.TryRead(); err != nil {
		return
	}
	f, ok = p.Feed(b)
	return
}

// Reset forgets all buffered bytes.
func (p *StreamParser) Reset() {
	*p = StreamParser{}
}
