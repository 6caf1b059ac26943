package events

import (
	"context"
	"iter"
	"log/slog"
	"sync"
)

const defaultBuffer = 64

// Hub is an in-process Broker for single-instance deployments and tests.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan Event]struct{}
	buffer int
	closed bool
	done   chan struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]map[chan Event]struct{}),
		buffer: defaultBuffer,
		done:   make(chan struct{}),
		logger: logger,
	}
}

func (h *Hub) Publish(_ context.Context, ev Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return ErrClosed
	}

	for ch := range h.subs[ev.Topic] {
		select {
		case ch <- ev:
		default:
			h.logger.Warn("dropping event for slow subscriber", "topic", ev.Topic, "kind", ev.Kind, "id", ev.ID)
		}
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context, topic string) iter.Seq2[Event, error] {
	ch, err := h.add(topic)
	if err != nil {
		return func(yield func(Event, error) bool) { yield(Event{}, err) }
	}
	release := sync.OnceFunc(func() { h.remove(topic, ch) })
	stop := context.AfterFunc(ctx, release)

	return func(yield func(Event, error) bool) {
		defer release()
		defer stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-h.done:
				return
			case ev := <-ch:
				if !yield(ev, nil) {
					return
				}
			}
		}
	}
}

// Subscribers reports how many live subscriptions a topic has.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.closed {
		h.closed = true
		close(h.done)
	}
	return nil
}

func (h *Hub) add(topic string) (chan Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	ch := make(chan Event, h.buffer)
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[chan Event]struct{})
	}
	h.subs[topic][ch] = struct{}{}
	return ch, nil
}

func (h *Hub) remove(topic string, ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.subs[topic], ch)
	if len(h.subs[topic]) == 0 {
		delete(h.subs, topic)
	}
}
