package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/forum/backend/internal/logging"
)

func collect(ctx context.Context, b Broker, topic string, n int) <-chan Event {
	out := make(chan Event, n)
	go func() {
		defer close(out)
		for ev, err := range b.Subscribe(ctx, topic) {
			if err != nil {
				return
			}
			out <- ev
			if len(out) == n {
				return
			}
		}
	}()
	return out
}

func waitSubscribers(t *testing.T, hub *Hub, topic string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Subscribers(topic) == n }, time.Second, 5*time.Millisecond)
}

func TestHubDeliversOnlyMatchingTopic(t *testing.T) {
	hub := NewHub(logging.Discard())
	ctx := t.Context()

	got := collect(ctx, hub, FeedTopic, 1)
	waitSubscribers(t, hub, FeedTopic, 1)

	require.NoError(t, Publish(ctx, hub, Updated, "p1", nil, PostTopic("p1")))
	require.NoError(t, Publish(ctx, hub, Created, "p2", map[string]string{"content": "hi"}, FeedTopic))

	select {
	case ev := <-got:
		assert.Equal(t, FeedTopic, ev.Topic)
		assert.Equal(t, Created, ev.Kind)
		assert.Equal(t, "p2", ev.ID)

		var doc map[string]string
		require.NoError(t, json.Unmarshal(ev.Data, &doc))
		assert.Equal(t, "hi", doc["content"])
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}

	// breaking out of the loop tears the subscription down
	waitSubscribers(t, hub, FeedTopic, 0)
}

func TestHubSubscribeRegistersBeforeRanging(t *testing.T) {
	hub := NewHub(logging.Discard())
	ctx, cancel := context.WithCancel(t.Context())

	seq := hub.Subscribe(ctx, FeedTopic)
	assert.Equal(t, 1, hub.Subscribers(FeedTopic))

	// published before anyone ranges over the sequence
	require.NoError(t, Publish(ctx, hub, Created, "p1", nil, FeedTopic))

	for ev, err := range seq {
		require.NoError(t, err)
		assert.Equal(t, "p1", ev.ID)
		break
	}
	assert.Equal(t, 0, hub.Subscribers(FeedTopic))

	hub.Subscribe(ctx, PresenceTopic)
	assert.Equal(t, 1, hub.Subscribers(PresenceTopic))
	cancel()
	waitSubscribers(t, hub, PresenceTopic, 0)
}

func TestHubContextCancelEndsSubscription(t *testing.T) {
	hub := NewHub(logging.Discard())
	ctx, cancel := context.WithCancel(t.Context())

	got := collect(ctx, hub, PresenceTopic, 10)
	waitSubscribers(t, hub, PresenceTopic, 1)

	cancel()

	select {
	case _, ok := <-got:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription did not end")
	}
	waitSubscribers(t, hub, PresenceTopic, 0)
}

func TestHubClose(t *testing.T) {
	hub := NewHub(logging.Discard())

	got := collect(t.Context(), hub, FeedTopic, 10)
	waitSubscribers(t, hub, FeedTopic, 1)

	require.NoError(t, hub.Close())

	select {
	case _, ok := <-got:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription did not end on close")
	}

	assert.ErrorIs(t, hub.Publish(t.Context(), Event{Topic: FeedTopic}), ErrClosed)

	for _, err := range hub.Subscribe(t.Context(), FeedTopic) {
		assert.ErrorIs(t, err, ErrClosed)
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	hub := NewHub(logging.Discard())
	ctx := t.Context()

	gate := make(chan struct{})
	received := make(chan Event, 1)
	go func() {
		for ev, err := range hub.Subscribe(ctx, FeedTopic) {
			if err != nil {
				return
			}
			<-gate
			received <- ev
			return
		}
	}()
	waitSubscribers(t, hub, FeedTopic, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range defaultBuffer * 2 {
			_ = hub.Publish(ctx, Event{Topic: FeedTopic, ID: fmt.Sprint(i)})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	close(gate)
	select {
	case ev := <-received:
		assert.Equal(t, "0", ev.ID)
	case <-time.After(time.Second):
		t.Fatal("subscriber never saw the first event")
	}
}

func TestPostTopics(t *testing.T) {
	assert.Equal(t, "posts.abc", PostTopic("abc"))
	assert.Equal(t, "posts.abc.comments", CommentsTopic("abc"))
}
