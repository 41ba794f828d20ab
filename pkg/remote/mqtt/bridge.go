package mqtt

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/ledctl.go/pkg/at"
	"github.com/robotalks/ledctl.go/pkg/led"
	"github.com/robotalks/ledctl.go/pkg/msgs"
)

// Topic suffixes under the device ID.
const (
	TopicCmd   = "cmd"
	TopicReply = "reply"
	TopicState = "state"
	TopicMeta  = "meta"
)

// Backoff of reconnecting when the broker is not reachable on start.
const (
	DefaultRetryInterval = 500 * time.Millisecond
	MaxRetryInterval     = 30 * time.Second
)

// Meta is published retained to announce the device.
type Meta struct {
	ID       string   `json:"id"`
	Protocol string   `json:"protocol"`
	Channels []string `json:"channels"`
}

// Bridge executes command lines received on <id>/cmd, publishes replies
// to <id>/reply and color changes to <id>/state.
type Bridge struct {
	ID            string
	Display       *led.Display
	Queue         *Queue
	Publisher     Publisher
	MaxLineLength int
	// RetryInterval is the first delay before retrying the initial connect,
	// doubled on every failure up to MaxRetryInterval.
	RetryInterval time.Duration

	metaJSON []byte
	active   bool
	lock     sync.Mutex
}

// NewBridge creates a Bridge connecting to the broker.
func NewBridge(brokerURL, id string, display *led.Display) (*Bridge, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetConnectTimeout(DefaultPublishTimeout)
	opts.SetBinaryWill(topicPrefix+Topic(id, TopicMeta), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("ledctl:" + id)
	}
	b := NewBridgeWith(id, display, NewQueue(opts, topicPrefix))
	b.Queue.OnConnect = func(*Queue) { b.announce() }
	return b, nil
}

// NewBridgeWith creates a Bridge over an existing Queue.
func NewBridgeWith(id string, display *led.Display, q *Queue) *Bridge {
	b := &Bridge{
		ID:            id,
		Display:       display,
		Queue:         q,
		Publisher:     q,
		MaxLineLength: at.DefaultMaxLineLength,
		RetryInterval: DefaultRetryInterval,
	}
	meta := Meta{ID: id, Protocol: "AT"}
	for _, ch := range led.Channels {
		meta.Channels = append(meta.Channels, ch.String())
	}
	data, err := json.Marshal(&meta)
	if err != nil {
		panic(err)
	}
	b.metaJSON = data
	display.Subscribe(b.publishState)
	return b
}

// Topic builds a topic under the device ID.
func Topic(id, suffix string) string {
	return id + "/" + suffix
}

// Name implements Named.
func (b *Bridge) Name() string {
	return "mqtt:" + b.ID
}

// Run implements Runnable. The initial connect is retried until it
// succeeds or ctx is done, later reconnects are handled by the client.
func (b *Bridge) Run(ctx context.Context) error {
	b.setActive(true)
	sub := b.Queue.Sub(Topic(b.ID, TopicCmd), b.HandleCommand)
	connected := b.connect(ctx) == nil
	<-ctx.Done()
	b.setActive(false)
	sub.Close()
	if connected {
		if err := WaitToken(b.Publisher.PubWith(Topic(b.ID, TopicMeta), nil, 1, true), DefaultPublishTimeout); err != nil {
			glog.Warningf("%s: clear meta: %v", b.Name(), err)
		}
	}
	b.Queue.Close()
	return ctx.Err()
}

func (b *Bridge) connect(ctx context.Context) error {
	delay := b.RetryInterval
	if delay <= 0 {
		delay = DefaultRetryInterval
	}
	for {
		token := b.Queue.Connect()
		token.Wait()
		err := token.Error()
		if err == nil {
			return nil
		}
		glog.Warningf("%s: connect: %v, retry in %s", b.Name(), err, delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		if delay *= 2; delay > MaxRetryInterval {
			delay = MaxRetryInterval
		}
	}
}

// HandleCommand executes every line in the payload and publishes all the
// replies as one message. A final line without terminator is executed.
func (b *Bridge) HandleCommand(_ string, payload []byte) {
	var out bytes.Buffer
	interp := at.NewInterpreter(b.Display, &out)
	if n := len(payload); n == 0 || payload[n-1] != at.LineTerminator {
		payload = append(payload[:n:n], at.LineTerminator)
	}
	reader := at.NewLineReader(bytes.NewReader(payload), b.MaxLineLength)
	for {
		line, err := reader.ReadLine()
		if err == io.EOF {
			break
		}
		res, _ := interp.Exec(line)
		if !res.OK() {
			glog.Warningf("%s: %q: %v", b.Name(), line, res.Err)
		}
	}
	b.publish(TopicReply, out.Bytes(), false)
}

func (b *Bridge) announce() {
	b.publish(TopicMeta, b.metaJSON, true)
	b.publishState(b.Display.State())
}

func (b *Bridge) publishState(s led.State) {
	if !b.isActive() {
		return
	}
	data, err := msgs.EncodeState(s)
	if err != nil {
		glog.Errorf("%s: encode state: %v", b.Name(), err)
		return
	}
	b.publish(TopicState, data, true)
}

func (b *Bridge) publish(suffix string, payload []byte, retain bool) {
	// never blocks, it may be called from paho's dispatching.
	token := b.Publisher.PubWith(Topic(b.ID, suffix), payload, 1, retain)
	go func() {
		if err := WaitToken(token, DefaultPublishTimeout); err != nil {
			glog.Warningf("%s: publish %s: %v", b.Name(), suffix, err)
		}
	}()
}

func (b *Bridge) setActive(active bool) {
	b.lock.Lock()
	b.active = active
	b.lock.Unlock()
}

func (b *Bridge) isActive() bool {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.active
}
