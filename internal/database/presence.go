package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

type PresenceRepository struct {
	db *gorm.DB
}

func NewPresenceRepository(db *gorm.DB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

// Upsert writes the whole presence record, creating it on first sight.
func (r *PresenceRepository) Upsert(ctx context.Context, p *models.Presence) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"display_name", "photo_url", "email", "last_seen", "is_online"}),
		}).
		Create(p).Error
	if err != nil {
		return fmt.Errorf("upsert presence %s: %w", p.UserID, err)
	}
	return nil
}

func (r *PresenceRepository) SetOffline(ctx context.Context, userID string, at time.Time) error {
	err := r.db.WithContext(ctx).
		Model(&models.Presence{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"is_online": false, "last_seen": at}).Error
	if err != nil {
		return fmt.Errorf("mark %s offline: %w", userID, err)
	}
	return nil
}

// ActiveSince returns up to limit signed-in records seen after since,
// newest first.
func (r *PresenceRepository) ActiveSince(ctx context.Context, since time.Time, limit int) ([]models.Presence, error) {
	var records []models.Presence
	err := r.db.WithContext(ctx).
		Where("is_online AND last_seen > ?", since).
		Order("last_seen desc").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list presence: %w", err)
	}
	return records, nil
}
