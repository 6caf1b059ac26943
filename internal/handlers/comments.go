package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/events"
	"github.com/emilythestrangee/forum/backend/internal/identity"
	"github.com/emilythestrangee/forum/backend/internal/models"
)

type CommentHandler struct {
	comments CommentStore
	notifier
}

// GetComments returns a post's comments in the order they were written
func (h *CommentHandler) GetComments(c *gin.Context) {
	comments, err := listComments(c.Request.Context(), h.comments, c.Param("id"))
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

// listComments reads a post's comments, never nil. A post that does not
// exist simply has none.
func listComments(ctx context.Context, store CommentStore, postID string) ([]models.Comment, error) {
	comments, err := store.ListByPost(ctx, postID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}

// CreateComment creates a new comment on a post
func (h *CommentHandler) CreateComment(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content"})
		return
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content"})
		return
	}

	comment := &models.Comment{
		PostID:       c.Param("id"),
		Content:      content,
		AuthorID:     sess.UserID,
		AuthorName:   identity.ResolveName(sess.Profile(), identity.ProfileRules()),
		AuthorAvatar: sess.Picture,
	}
	err := h.comments.Create(c.Request.Context(), comment)
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	case err != nil:
		serverError(c, err)
		return
	}

	h.publish(c.Request.Context(), events.Created, comment.ID, comment, events.CommentsTopic(comment.PostID))

	c.JSON(http.StatusCreated, comment)
}
