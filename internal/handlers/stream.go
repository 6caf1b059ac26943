package handlers

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/events"
	"github.com/emilythestrangee/forum/backend/internal/metrics"
	"github.com/emilythestrangee/forum/backend/internal/models"
)

// snapshotEvent is the SSE event name carrying the current state, sent
// first on every stream.
const snapshotEvent = "snapshot"

// StreamHandler serves live views as server-sent events.
type StreamHandler struct {
	broker   events.Broker
	posts    PostStore
	comments CommentStore
	presence PresenceStore
	logger   *slog.Logger
	now      func() time.Time
}

type snapshotFunc func(ctx context.Context) (any, error)

// Feed streams the post feed: a snapshot of the newest posts, then every
// created, updated and deleted post.
func (h *StreamHandler) Feed(c *gin.Context) {
	h.serve(c, "feed", events.FeedTopic, false, func(ctx context.Context) (any, error) {
		posts, err := h.posts.ListRecent(ctx, models.FeedLimit)
		if posts == nil {
			posts = []models.Post{}
		}
		return posts, err
	})
}

// Post streams one post's changes.
func (h *StreamHandler) Post(c *gin.Context) {
	h.serve(c, "post", events.PostTopic(c.Param("id")), false, func(ctx context.Context) (any, error) {
		return h.posts.Get(ctx, c.Param("id"))
	})
}

// Comments streams new comments on a post.
func (h *StreamHandler) Comments(c *gin.Context) {
	h.serve(c, "comments", events.CommentsTopic(c.Param("id")), false, func(ctx context.Context) (any, error) {
		return listComments(ctx, h.comments, c.Param("id"))
	})
}

// Presence sends a fresh online list whenever anyone's presence changes.
func (h *StreamHandler) Presence(c *gin.Context) {
	limit, ok := visibleLimit(c)
	if !ok {
		return
	}
	selfID := callerID(c)
	h.serve(c, "presence", events.PresenceTopic, true, func(ctx context.Context) (any, error) {
		return onlineFor(ctx, h.presence, h.now(), selfID, limit)
	})
}

// serve subscribes to topic, writes the snapshot, then relays events
// until the client goes away. With refresh set, each event triggers a new snapshot
// instead of being relayed.
func (h *StreamHandler) serve(c *gin.Context, name, topic string, refresh bool, snapshot snapshotFunc) {
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// subscribe before reading so nothing published in between is missed
	changes := h.broker.Subscribe(ctx, topic)

	initial, err := snapshot(ctx)
	if err != nil {
		respondSnapshotError(c, err)
		return
	}

	defer metrics.StreamOpened(name)()

	next, stop := iter.Pull2(changes)
	defer stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent(snapshotEvent, initial)
	c.Writer.Flush()

	c.Stream(func(io.Writer) bool {
		ev, err, ok := next()
		if !ok {
			return false
		}
		if err != nil {
			h.logger.WarnContext(ctx, "event stream failed", "topic", topic, "error", err)
			c.SSEvent("error", gin.H{"error": err.Error()})
			return false
		}

		if !refresh {
			c.SSEvent(string(ev.Kind), ev)
			return true
		}
		state, err := snapshot(ctx)
		if err != nil {
			h.logger.WarnContext(ctx, "refresh stream snapshot", "topic", topic, "error", err)
			return ctx.Err() == nil
		}
		c.SSEvent(snapshotEvent, state)
		return true
	})
}

func respondSnapshotError(c *gin.Context, err error) {
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	serverError(c, err)
}
