package telemetry

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/rig.go/pkg/l1"
	"github.com/robotalks/rig.go/pkg/l1/mqtt"
	"github.com/robotalks/rig.go/pkg/mailbox"
)

// Defaults of Publisher.
const (
	DefaultInterval      = 200 * time.Millisecond
	DefaultRetryInterval = 5 * time.Second
)

// MetaTopic is where a board keeps its retained BoardMeta. It's cleared
// when the board leaves.
func MetaTopic(ref l1.BoardRef) string {
	return ref.Name() + "/meta"
}

// SnapshotTopic is where a board publishes Snapshots.
func SnapshotTopic(ref l1.BoardRef) string {
	return ref.Name() + "/snapshot"
}

// CommandTopic is where a board receives Commands.
func CommandTopic(ref l1.BoardRef) string {
	return ref.Name() + "/cmd"
}

// Publisher registers a board on the broker and publishes the latest
// Snapshot from Source every Interval. Commands received are passed to
// Handler in the MQTT client context.
type Publisher struct {
	Queue         *mqtt.Queue
	Info          l1.BoardInfo
	Interval      time.Duration
	RetryInterval time.Duration
	Source        *mailbox.Cell[Snapshot]
	Handler       CommandHandler

	meta      []byte
	published uint64
	commands  uint64
}

// NewPublisher creates a Publisher.
func NewPublisher(brokerURL string, info l1.BoardInfo, source *mailbox.Cell[Snapshot], handler CommandHandler) (*Publisher, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := mqtt.ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+MetaTopic(info.Ref), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("rig:" + info.Ref.Name())
	}
	p := &Publisher{
		Queue:         mqtt.NewQueue(opts, topicPrefix),
		Info:          info,
		Interval:      DefaultInterval,
		RetryInterval: DefaultRetryInterval,
		Source:        source,
		Handler:       handler,
		meta:          meta,
	}
	p.Queue.OnConnect = func(*mqtt.Queue) { p.onConnected() }
	p.Queue.Sub(CommandTopic(info.Ref), p.handleCommand)
	return p, nil
}

// Name implements Named.
func (p *Publisher) Name() string {
	return "telemetry"
}

// Published returns the number of snapshots published.
func (p *Publisher) Published() uint64 {
	return atomic.LoadUint64(&p.published)
}

// Commands returns the number of commands executed.
func (p *Publisher) Commands() uint64 {
	return atomic.LoadUint64(&p.commands)
}

// Run implements Runnable. A broker which can't be reached is retried
// without failing the board.
func (p *Publisher) Run(ctx context.Context) error {
	if err := p.connect(ctx); err != nil {
		return nil
	}
	defer func() {
		p.Queue.PubWith(MetaTopic(p.Info.Ref), nil, 1, true).WaitTimeout(time.Second)
		p.Queue.Close()
	}()

	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := p.Publish(); err != nil {
				glog.Errorf("telemetry error: %v", err)
			}
		}
	}
}

func (p *Publisher) connect(ctx context.Context) error {
	retry := p.RetryInterval
	if retry <= 0 {
		retry = DefaultRetryInterval
	}
	for {
		token := p.Queue.Connect()
		token.Wait()
		err := token.Error()
		if err == nil {
			return nil
		}
		glog.Warningf("telemetry connect error: %v", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry):
		}
	}
}

// Publish sends the latest Snapshot if there's one.
func (p *Publisher) Publish() error {
	snapshot, ok := p.Source.Get()
	if !ok {
		return nil
	}
	data, err := snapshot.Encode()
	if err != nil {
		return err
	}
	p.Queue.Pub(SnapshotTopic(p.Info.Ref), data)
	atomic.AddUint64(&p.published, 1)
	return nil
}

func (p *Publisher) onConnected() {
	p.Queue.PubWith(MetaTopic(p.Info.Ref), p.meta, 1, true)
}

func (p *Publisher) handleCommand(topic string, payload []byte) {
	cmd, err := DecodeCommand(payload)
	if err != nil {
		glog.Warningf("invalid command: %v", err)
		return
	}
	if p.Handler == nil {
		return
	}
	glog.Infof("command %s", cmd)
	if err = p.Handler.HandleCommand(cmd); err != nil {
		glog.Warningf("command %s error: %v", cmd, err)
		return
	}
	atomic.AddUint64(&p.commands, 1)
}
