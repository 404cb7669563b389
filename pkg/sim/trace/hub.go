package trace

import (
	"bytes"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// HubBacklog is the number of records queued per viewer. A viewer falling
// further behind misses records.
const HubBacklog = 256

// Hub is an io.Writer broadcasting each written line to the connected
// websocket viewers as a text message.
type Hub struct {
	lock    sync.Mutex
	viewers map[chan string]struct{}
	partial bytes.Buffer
	dropped int
}

// NewHub creates a Hub without viewers.
func NewHub() *Hub {
	return &Hub{viewers: make(map[chan string]struct{})}
}

// Write implements io.Writer.
func (h *Hub) Write(p []byte) (int, error) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.partial.Write(p)
	for {
		line, err := h.partial.ReadString('\n')
		if err != nil {
			// incomplete, keep it for the next Write.
			h.partial.Reset()
			h.partial.WriteString(line)
			break
		}
		h.broadcast(line[:len(line)-1])
	}
	return len(p), nil
}

func (h *Hub) broadcast(msg string) {
	for ch := range h.viewers {
		select {
		case ch <- msg:
		default:
			h.dropped++
		}
	}
}

// Viewers returns the number of connected viewers.
func (h *Hub) Viewers() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return len(h.viewers)
}

// Dropped returns the number of records not delivered to slow viewers.
func (h *Hub) Dropped() int {
	h.lock.Lock()
	defer h.lock.Unlock()
	return h.dropped
}

func (h *Hub) attach() chan string {
	ch := make(chan string, HubBacklog)
	h.lock.Lock()
	h.viewers[ch] = struct{}{}
	h.lock.Unlock()
	return ch
}

func (h *Hub) detach(ch chan string) {
	h.lock.Lock()
	delete(h.viewers, ch)
	h.lock.Unlock()
}

// Handler serves the viewers until they disconnect.
func (h *Hub) Handler() websocket.Handler {
	return func(conn *websocket.Conn) {
		defer conn.Close()
		ch := h.attach()
		defer h.detach(ch)
		glog.Infof("trace viewer %s connected", conn.Request().RemoteAddr)
		closed := make(chan struct{})
		go func() {
			// viewers don't talk, a failed receive means it's gone.
			var discard string
			for websocket.Message.Receive(conn, &discard) == nil {
			}
			close(closed)
		}()
		for {
			select {
			case msg := <-ch:
				if err := websocket.Message.Send(conn, msg); err != nil {
					glog.V(1).Infof("trace viewer: %v", err)
					return
				}
			case <-closed:
				glog.Infof("trace viewer %s disconnected", conn.Request().RemoteAddr)
				return
			}
		}
	}
}
