package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/emilythestrangee/forum/backend/internal/models"
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// ListRecent returns up to limit posts, newest first.
func (r *PostRepository) ListRecent(ctx context.Context, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Order("id").
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	for i := range posts {
		posts[i].Normalize()
	}
	return posts, nil
}

func (r *PostRepository) Get(ctx context.Context, id string) (*models.Post, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	var post models.Post
	err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	return post.Normalize(), nil
}

// Create stores a new post and assigns its id.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	post.ID = uuid.NewString()
	post.Normalize()

	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

// Delete removes a post and its comments when ownerID wrote it.
func (r *PostRepository) Delete(ctx context.Context, id, ownerID string) error {
	if !validID(id) {
		return ErrNotFound
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load post %s: %w", id, err)
		}

		if !post.OwnedBy(ownerID) {
			return ErrForbidden
		}

		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments of %s: %w", id, err)
		}
		if err := tx.Delete(&post).Error; err != nil {
			return fmt.Errorf("delete post %s: %w", id, err)
		}
		return nil
	})
}

// ToggleVote applies a vote toggle in one UPDATE. Both arrays are
// computed from the same row version, so a user never lands in both.
func (r *PostRepository) ToggleVote(ctx context.Context, id, userID string, d models.Direction) (*models.Post, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}

	toggle, other := d.Columns()

	var post models.Post
	res := r.db.WithContext(ctx).
		Model(&post).
		Clauses(clause.Returning{}).
		Where("id = ?", id).
		Updates(map[string]any{
			toggle: gorm.Expr(
				"CASE WHEN ?::text = ANY("+toggle+") THEN array_remove("+toggle+", ?::text) ELSE array_append("+toggle+", ?::text) END",
				userID, userID, userID,
			),
			other: gorm.Expr("array_remove("+other+", ?::text)", userID),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("vote on post %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return post.Normalize(), nil
}

func validID(id string) bool {
	return uuid.Validate(id) == nil
}
