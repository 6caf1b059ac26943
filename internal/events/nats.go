package events

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "forum."

// subscribeTimeout bounds the wait for the server to acknowledge a new
// subscription.
const subscribeTimeout = 5 * time.Second

// NATSBroker publishes events as JSON on core NATS subjects, one subject
// per topic under the forum. prefix.
type NATSBroker struct {
	nc        *nats.Conn
	buffer    int
	done      chan struct{}
	closeOnce sync.Once
}

// Connect dials NATS and logs connection state changes.
func Connect(url string, logger *slog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("forum-api"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return nc, nil
}

func NewNATSBroker(nc *nats.Conn) *NATSBroker {
	return &NATSBroker{nc: nc, buffer: defaultBuffer, done: make(chan struct{})}
}

func (b *NATSBroker) Publish(_ context.Context, ev Event) error {
	select {
	case <-b.done:
		return ErrClosed
	default:
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.nc.Publish(subject(ev.Topic), data); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Topic, err)
	}
	return nil
}

func (b *NATSBroker) Subscribe(ctx context.Context, topic string) iter.Seq2[Event, error] {
	ch := make(chan *nats.Msg, b.buffer)
	sub, err := b.nc.ChanSubscribe(subject(topic), ch)
	if err == nil {
		// the server must know about the interest before any snapshot is read
		if err = b.nc.FlushTimeout(subscribeTimeout); err != nil {
			_ = sub.Unsubscribe()
		}
	}
	if err != nil {
		err = fmt.Errorf("subscribe %s: %w", topic, err)
		return func(yield func(Event, error) bool) { yield(Event{}, err) }
	}
	release := sync.OnceFunc(func() { _ = sub.Unsubscribe() })
	stop := context.AfterFunc(ctx, release)

	return func(yield func(Event, error) bool) {
		defer release()
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-b.done:
				return
			case msg := <-ch:
				var ev Event
				if err := json.Unmarshal(msg.Data, &ev); err != nil {
					if !yield(Event{}, fmt.Errorf("decode %s event: %w", topic, err)) {
						return
					}
					continue
				}
				if !yield(ev, nil) {
					return
				}
			}
		}
	}
}

// Flush waits until the server has processed everything published so far.
func (b *NATSBroker) Flush() error {
	return b.nc.Flush()
}

// Close ends all subscriptions. The connection is left to its owner.
func (b *NATSBroker) Close() error {
	b.closeOnce.Do(func() { close(b.done) })
	return nil
}

func subject(topic string) string {
	return subjectPrefix + topic
}
