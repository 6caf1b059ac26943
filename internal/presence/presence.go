package presence

import (
	"time"

	"github.com/samber/lo"

	"github.com/emilythestrangee/forum/backend/internal/identity"
	"github.com/emilythestrangee/forum/backend/internal/models"
)

const (
	// Window is how recently a user must have been seen to count as online.
	Window = 5 * time.Minute
	// HeartbeatInterval is how often signed-in clients refresh their record.
	HeartbeatInterval = 2 * time.Minute
	// DefaultVisible is how many online users are listed by name.
	DefaultVisible = 5
	// ScanLimit caps how many recent records are considered.
	ScanLimit = 50
)

// Record builds the presence record a session writes on a heartbeat.
func Record(s *identity.Session, now time.Time) *models.Presence {
	return &models.Presence{
		UserID:      s.UserID,
		DisplayName: identity.ResolveName(s.Profile(), identity.ProfileRules()),
		PhotoURL:    s.Picture,
		Email:       s.Email,
		LastSeen:    now.UTC(),
		IsOnline:    true,
	}
}

// Online filters records to signed-in users seen within Window of now,
// drops selfID, and splits the rest into the first visible users and a count
// of the remainder. Records keep their incoming order.
func Online(records []models.Presence, now time.Time, selfID string, visible int) models.OnlineResponse {
	cutoff := now.Add(-Window)

	others := lo.Filter(records, func(p models.Presence, _ int) bool {
		return p.IsOnline && p.LastSeen.After(cutoff) && p.UserID != selfID
	})
	others = lo.UniqBy(others, func(p models.Presence) string { return p.UserID })

	if visible < 0 {
		visible = 0
	}
	shown := others[:min(visible, len(others))]

	return models.OnlineResponse{
		Users:     append([]models.Presence{}, shown...),
		Remaining: len(others) - len(shown),
	}
}
