package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/forum/backend/internal/events"
	"github.com/emilythestrangee/forum/backend/internal/middleware"
	"github.com/emilythestrangee/forum/backend/internal/models"
	"github.com/emilythestrangee/forum/backend/internal/presence"
)

type PresenceHandler struct {
	presence PresenceStore
	notifier
	now func() time.Time
}

// Heartbeat refreshes the caller's presence record
func (h *PresenceHandler) Heartbeat(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	record := presence.Record(sess, h.now())
	if err := h.presence.Upsert(c.Request.Context(), record); err != nil {
		serverError(c, err)
		return
	}
	h.publish(c.Request.Context(), events.Updated, record.UserID, record, events.PresenceTopic)

	c.JSON(http.StatusOK, record)
}

// Online lists who else was seen recently. Anonymous callers see everyone.
func (h *PresenceHandler) Online(c *gin.Context) {
	limit, ok := visibleLimit(c)
	if !ok {
		return
	}

	online, err := onlineFor(c.Request.Context(), h.presence, h.now(), callerID(c), limit)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, online)
}

// visibleLimit reads ?limit, defaulting to presence.DefaultVisible.
func visibleLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return presence.DefaultVisible, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return 0, false
	}
	return n, true
}

func callerID(c *gin.Context) string {
	if sess, ok := middleware.CurrentSession(c); ok {
		return sess.UserID
	}
	return ""
}

func onlineFor(ctx context.Context, store PresenceStore, now time.Time, selfID string, limit int) (models.OnlineResponse, error) {
	records, err := store.ActiveSince(ctx, now.Add(-presence.Window), presence.ScanLimit)
	if err != nil {
		return models.OnlineResponse{}, err
	}
	return presence.Online(records, now, selfID, limit), nil
}
