package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"time"
)

type Kind string

const (
	Created Kind = "created"
	Updated Kind = "updated"
	Deleted Kind = "deleted"
)

const (
	FeedTopic     = "posts"
	PresenceTopic = "presence"
)

func PostTopic(postID string) string {
	return "posts." + postID
}

func CommentsTopic(postID string) string {
	return "posts." + postID + ".comments"
}

// Event is one change notification. Data carries the changed document,
// or nothing for deletions.
type Event struct {
	Topic string          `json:"topic"`
	Kind  Kind            `json:"kind"`
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data,omitempty"`
	At    time.Time       `json:"at"`
}

func New(topic string, kind Kind, id string, doc any) (Event, error) {
	ev := Event{Topic: topic, Kind: kind, ID: id, At: time.Now().UTC()}
	if doc != nil {
		data, err := json.Marshal(doc)
		if err != nil {
			return Event{}, fmt.Errorf("encode %s event: %w", topic, err)
		}
		ev.Data = data
	}
	return ev, nil
}

// Broker fans change events out to subscribers.
//
// Subscribe registers the subscription before it returns, so events
// published after the call are buffered for the sequence. The sequence is
// single use and never ends on its own; it stops when ctx is done or the
// consumer breaks out of the loop. The subscription is released either
// way, and also when ctx ends before the sequence is ranged over.
type Broker interface {
	Publish(ctx context.Context, ev Event) error
	Subscribe(ctx context.Context, topic string) iter.Seq2[Event, error]
	Close() error
}

// Publish encodes doc and publishes it on every topic. Failures are
// returned joined; delivery to one topic does not depend on another.
func Publish(ctx context.Context, b Broker, kind Kind, id string, doc any, topics ...string) error {
	var errs []error
	for _, topic := range topics {
		ev, err := New(topic, kind, id, doc)
		if err == nil {
			err = b.Publish(ctx, ev)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
