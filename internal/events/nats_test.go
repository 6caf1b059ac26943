package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/forum/backend/internal/logging"
	"github.com/emilythestrangee/forum/backend/internal/testutil"
)

func TestNATSBrokerRoundTrip(t *testing.T) {
	url := testutil.StartNATS(t)

	nc, err := Connect(url, logging.Discard())
	require.NoError(t, err)
	defer nc.Close()

	broker := NewNATSBroker(nc)
	ctx := t.Context()

	got := collect(ctx, broker, CommentsTopic("p1"), 1)

	// the subscription registers asynchronously, so keep publishing until it lands
	var ev Event
	require.Eventually(t, func() bool {
		if err := Publish(ctx, broker, Created, "c1", map[string]string{"content": "first"}, CommentsTopic("p1")); err != nil {
			return false
		}
		if err := broker.Flush(); err != nil {
			return false
		}
		select {
		case ev = <-got:
			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, CommentsTopic("p1"), ev.Topic)
	assert.Equal(t, Created, ev.Kind)
	assert.Equal(t, "c1", ev.ID)
	assert.JSONEq(t, `{"content":"first"}`, string(ev.Data))
}

func TestNATSBrokerCloseEndsSubscriptions(t *testing.T) {
	url := testutil.StartNATS(t)

	nc, err := Connect(url, logging.Discard())
	require.NoError(t, err)
	defer nc.Close()

	broker := NewNATSBroker(nc)
	got := collect(t.Context(), broker, FeedTopic, 10)

	require.NoError(t, broker.Close())
	require.NoError(t, broker.Close())

	select {
	case _, open := <-got:
		assert.False(t, open)
	case <-time.After(5 * time.Second):
		t.Fatal("subscription still open after Close")
	}

	assert.ErrorIs(t, broker.Publish(t.Context(), Event{Topic: FeedTopic}), ErrClosed)
}
