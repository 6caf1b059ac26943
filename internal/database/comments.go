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

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// ListByPost returns a post's comments oldest first. Ids that cannot name
// a post have no comments.
func (r *CommentRepository) ListByPost(ctx context.Context, postID string) ([]models.Comment, error) {
	if !validID(postID) {
		return nil, nil
	}

	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at asc").
		Order("id").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments of %s: %w", postID, err)
	}
	return comments, nil
}

// Create appends a comment to an existing post. The post row is share
// locked so a concurrent delete cannot orphan the comment.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if !validID(comment.PostID) {
		return ErrNotFound
	}
	comment.ID = uuid.NewString()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id").
			First(&post, "id = ?", comment.PostID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load post %s: %w", comment.PostID, err)
		}

		if err := tx.Create(comment).Error; err != nil {
			return fmt.Errorf("create comment: %w", err)
		}
		return nil
	})
}
