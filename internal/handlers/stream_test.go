package handlers_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/forum/backend/internal/events"
	"github.com/emilythestrangee/forum/backend/internal/handlers"
	"github.com/emilythestrangee/forum/backend/internal/models"
)

type sseEvent struct {
	name string
	data string
}

// openStream starts a server-sent event stream and returns a channel of
// its events. The stream closes with the test.
func openStream(t *testing.T, h *harness, path, token string) <-chan sseEvent {
	t.Helper()

	srv := httptest.NewServer(h.router)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+path, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "text/event-stream", res.Header.Get("Content-Type"))

	out := make(chan sseEvent, 16)
	go func() {
		defer res.Body.Close()
		defer close(out)

		var ev sseEvent
		scanner := bufio.NewScanner(res.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				ev.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				ev.data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			case line == "":
				if ev.name == "" && ev.data == "" {
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
				ev = sseEvent{}
			}
		}
	}()
	return out
}

func nextSSE(t *testing.T, ch <-chan sseEvent) sseEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "stream closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no stream event received")
		return sseEvent{}
	}
}

func waitSubscribed(t *testing.T, h *harness, topic string) {
	t.Helper()
	require.Eventually(t, func() bool { return h.hub.Subscribers(topic) > 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestFeedStream(t *testing.T) {
	h := newHarness(t)
	tok := h.token("u1", "Alice", "")
	existing := h.createPost(tok, "already here")

	stream := openStream(t, h, "/api/posts/stream", "")

	snap := nextSSE(t, stream)
	assert.Equal(t, "snapshot", snap.name)
	var posts []models.Post
	require.NoError(t, json.Unmarshal([]byte(snap.data), &posts))
	require.Len(t, posts, 1)
	assert.Equal(t, existing.ID, posts[0].ID)

	waitSubscribed(t, h, events.FeedTopic)
	created := h.createPost(tok, "fresh")

	ev := nextSSE(t, stream)
	assert.Equal(t, string(events.Created), ev.name)
	var change events.Event
	require.NoError(t, json.Unmarshal([]byte(ev.data), &change))
	assert.Equal(t, created.ID, change.ID)
	assert.Equal(t, events.FeedTopic, change.Topic)

	rec := h.do(http.MethodDelete, "/api/posts/"+existing.ID, tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ev = nextSSE(t, stream)
	assert.Equal(t, string(events.Deleted), ev.name)
	require.NoError(t, json.Unmarshal([]byte(ev.data), &change))
	assert.Equal(t, existing.ID, change.ID)
}

// racingPosts publishes a new post right after the first feed read,
// before the stream has written its snapshot.
type racingPosts struct {
	handlers.PostStore
	hub  *events.Hub
	once sync.Once
}

func (r *racingPosts) ListRecent(ctx context.Context, limit int) ([]models.Post, error) {
	posts, err := r.PostStore.ListRecent(ctx, limit)
	r.once.Do(func() {
		late := &models.Post{AuthorID: "u2", AuthorName: "Bob", Content: "raced the snapshot"}
		if r.PostStore.Create(ctx, late) == nil {
			_ = events.Publish(ctx, r.hub, events.Created, late.ID, late, events.FeedTopic)
		}
	})
	return posts, err
}

func TestFeedStreamKeepsChangesDuringSnapshot(t *testing.T) {
	h := newHarness(t, func(h *harness, d *handlers.Deps) {
		d.Posts = &racingPosts{PostStore: d.Posts, hub: h.hub}
	})

	stream := openStream(t, h, "/api/posts/stream", "")

	snap := nextSSE(t, stream)
	assert.Equal(t, "snapshot", snap.name)
	assert.JSONEq(t, `[]`, snap.data)

	ev := nextSSE(t, stream)
	assert.Equal(t, string(events.Created), ev.name)
	assert.Contains(t, ev.data, `"content":"raced the snapshot"`)
}

func TestCommentsStream(t *testing.T) {
	h := newHarness(t)
	tok := h.token("u1", "Alice", "")
	post := h.createPost(tok, "discuss")

	stream := openStream(t, h, "/api/posts/"+post.ID+"/comments/stream", "")

	snap := nextSSE(t, stream)
	assert.Equal(t, "snapshot", snap.name)
	assert.JSONEq(t, `[]`, snap.data)

	waitSubscribed(t, h, events.CommentsTopic(post.ID))
	rec := h.do(http.MethodPost, "/api/posts/"+post.ID+"/comments", tok, map[string]string{"content": "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)

	ev := nextSSE(t, stream)
	assert.Equal(t, string(events.Created), ev.name)
	assert.Contains(t, ev.data, `"content":"hello"`)
}

func TestPostStreamUnknownPost(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/posts/missing/stream", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPresenceStream(t *testing.T) {
	h := newHarness(t)
	me := h.token("me", "Me", "")

	stream := openStream(t, h, "/api/presence/stream", me)

	snap := nextSSE(t, stream)
	assert.Equal(t, "snapshot", snap.name)
	assert.JSONEq(t, `{"users":[],"remaining":0}`, snap.data)

	waitSubscribed(t, h, events.PresenceTopic)
	heartbeat(t, h, h.token("bob", "Bob", ""))

	ev := nextSSE(t, stream)
	assert.Equal(t, "snapshot", ev.name)
	var got models.OnlineResponse
	require.NoError(t, json.Unmarshal([]byte(ev.data), &got))
	require.Len(t, got.Users, 1)
	assert.Equal(t, "Bob", got.Users[0].DisplayName)

	// the caller's own heartbeat refreshes the view without listing them
	heartbeat(t, h, me)
	ev = nextSSE(t, stream)
	require.NoError(t, json.Unmarshal([]byte(ev.data), &got))
	assert.Len(t, got.Users, 1)
}
