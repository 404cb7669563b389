package telemetry

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rig.go/pkg/l1"
	"github.com/robotalks/rig.go/pkg/l1/mqtt"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Monitor watches boards from a tool.
type Monitor struct {
	DiscoverTimeout time.Duration

	queue *mqtt.Queue
}

// NewMonitor connects to the broker.
func NewMonitor(brokerURL string) (*Monitor, error) {
	q, err := mqtt.NewQueueFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	token := q.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return newMonitor(q), nil
}

func newMonitor(q *mqtt.Queue) *Monitor {
	return &Monitor{DiscoverTimeout: DefaultDiscoverTimeout, queue: q}
}

// Close implements io.Closer.
func (m *Monitor) Close() error {
	return m.queue.Close()
}

// Discover collects the boards with a retained meta until the timeout.
func (m *Monitor) Discover(ctx context.Context) (res []l1.BoardInfo, err error) {
	resCh := make(chan l1.BoardInfo, 1)
	sub := m.queue.Sub("+/+/meta", func(topic string, payload []byte) {
		info, ok := parseMeta(topic, payload)
		if !ok {
			return
		}
		select {
		case resCh <- info:
		case <-time.After(time.Second):
		}
	})
	defer sub.Close()

	dur := m.DiscoverTimeout
	if dur == 0 {
		dur = DefaultDiscoverTimeout
	}
	timeout := time.After(dur)
	for {
		select {
		case info := <-resCh:
			res = append(res, info)
		case <-timeout:
			return
		case <-ctx.Done():
			err = ctx.Err()
			return
		}
	}
}

func parseMeta(topic string, payload []byte) (info l1.BoardInfo, ok bool) {
	// an empty payload clears the retained meta of a board gone away.
	if len(payload) == 0 {
		return
	}
	if info.Ref, ok = l1.ParseBoardRef(strings.TrimSuffix(topic, "/meta")); !ok {
		return
	}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.Warningf("%s: invalid meta: %v", topic, err)
		return info, false
	}
	return info, true
}

// Watch calls fn with every Snapshot from the board until ctx is done.
func (m *Monitor) Watch(ctx context.Context, ref l1.BoardRef, fn func(Snapshot)) error {
	sub := m.queue.Sub(SnapshotTopic(ref), func(topic string, payload []byte) {
		snapshot, err := DecodeSnapshot(payload)
		if err != nil {
			glog.Warningf("%s: invalid snapshot: %v", topic, err)
			return
		}
		fn(snapshot)
	})
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}

// SendCommand delivers a command to the board.
func (m *Monitor) SendCommand(ref l1.BoardRef, cmd Command) error {
	data, err := cmd.Encode()
	if err != nil {
		return err
	}
	token := m.queue.PubWith(CommandTopic(ref), data, 1, false)
	token.Wait()
	return token.Error()
}
