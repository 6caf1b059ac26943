package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/events"
	"github.com/emilythestrangee/forum/backend/internal/identity"
	"github.com/emilythestrangee/forum/backend/internal/metrics"
	"github.com/emilythestrangee/forum/backend/internal/models"
)

type PostHandler struct {
	posts     PostStore
	directory identity.Directory
	notifier
}

// GetPosts returns the newest posts, newest first
func (h *PostHandler) GetPosts(c *gin.Context) {
	posts, err := h.posts.ListRecent(c.Request.Context(), models.FeedLimit)
	if err != nil {
		serverError(c, err)
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	c.JSON(http.StatusOK, posts)
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.posts.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	case err != nil:
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// CreatePost creates a new post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid image URL"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content"})
		return
	}
	if strings.TrimSpace(input.Content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid content"})
		return
	}

	post := &models.Post{
		Content:    input.Content,
		AuthorName: identity.ResolveName(sess.Profile(), h.directory.PostAuthorRules()),
		AuthorID:   sess.UserID,
		ImageURL:   input.ImageURL,
	}
	if err := h.posts.Create(c.Request.Context(), post); err != nil {
		serverError(c, err)
		return
	}
	post.Normalize()

	metrics.PostCreated()
	h.publish(c.Request.Context(), events.Created, post.ID, post, events.FeedTopic)

	c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post and its comments (PROTECTED - requires ownership)
func (h *PostHandler) DeletePost(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	postID := c.Param("id")
	err := h.posts.Delete(c.Request.Context(), postID, sess.UserID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	case errors.Is(err, database.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only delete your own posts"})
		return
	case err != nil:
		serverError(c, err)
		return
	}

	h.publish(c.Request.Context(), events.Deleted, postID, nil, events.FeedTopic, events.PostTopic(postID))

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

// VotePost toggles the caller's vote on a post (PROTECTED - requires authentication)
func (h *PostHandler) VotePost(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Direction must be up or down"})
		return
	}
	direction, err := models.ParseDirection(input.Direction)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Direction must be up or down"})
		return
	}

	post, err := h.posts.ToggleVote(c.Request.Context(), c.Param("id"), sess.UserID, direction)
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	case err != nil:
		serverError(c, err)
		return
	}

	metrics.VoteCast(direction)
	h.publish(c.Request.Context(), events.Updated, post.ID, post, events.PostTopic(post.ID), events.FeedTopic)

	c.JSON(http.StatusOK, post)
}
