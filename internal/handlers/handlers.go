package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/forum/backend/internal/events"
	"github.com/emilythestrangee/forum/backend/internal/identity"
	"github.com/emilythestrangee/forum/backend/internal/middleware"
	"github.com/emilythestrangee/forum/backend/internal/models"
	"github.com/emilythestrangee/forum/backend/internal/storage"
)

type PostStore interface {
	ListRecent(ctx context.Context, limit int) ([]models.Post, error)
	Get(ctx context.Context, id string) (*models.Post, error)
	Create(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id, ownerID string) error
	ToggleVote(ctx context.Context, id, userID string, d models.Direction) (*models.Post, error)
}

type CommentStore interface {
	ListByPost(ctx context.Context, postID string) ([]models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
}

type PresenceStore interface {
	Upsert(ctx context.Context, p *models.Presence) error
	SetOffline(ctx context.Context, userID string, at time.Time) error
	ActiveSince(ctx context.Context, since time.Time, limit int) ([]models.Presence, error)
}

type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// Deps is everything the handlers need from the rest of the process.
type Deps struct {
	Posts    PostStore
	Comments CommentStore
	Presence PresenceStore
	Accounts AccountStore

	Broker    events.Broker
	Images    storage.ObjectStore
	Issuer    *identity.Issuer
	Directory identity.Directory
	Mailer    identity.Mailer
	Logger    *slog.Logger

	PublicURL     string
	MaxImageBytes int64

	// Now defaults to time.Now.
	Now func() time.Time
}

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Post     *PostHandler
	Comment  *CommentHandler
	Presence *PresenceHandler
	Image    *ImageHandler
	Stream   *StreamHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(d Deps) *Handler {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Mailer == nil {
		d.Mailer = identity.LogMailer{Logger: d.Logger}
	}
	n := notifier{broker: d.Broker, logger: d.Logger}

	return &Handler{
		Auth:     &AuthHandler{accounts: d.Accounts, presence: d.Presence, issuer: d.Issuer, directory: d.Directory, mailer: d.Mailer, notifier: n, now: d.Now},
		Post:     &PostHandler{posts: d.Posts, directory: d.Directory, notifier: n},
		Comment:  &CommentHandler{comments: d.Comments, notifier: n},
		Presence: &PresenceHandler{presence: d.Presence, notifier: n, now: d.Now},
		Image:    &ImageHandler{images: d.Images, publicURL: d.PublicURL, maxBytes: d.MaxImageBytes, now: d.Now},
		Stream:   &StreamHandler{broker: d.Broker, posts: d.Posts, comments: d.Comments, presence: d.Presence, logger: d.Logger, now: d.Now},
	}
}

// notifier publishes change events. Publishing is best effort: the write
// has already happened, so failures are logged and not returned.
type notifier struct {
	broker events.Broker
	logger *slog.Logger
}

func (n notifier) publish(ctx context.Context, kind events.Kind, id string, doc any, topics ...string) {
	if n.broker == nil {
		return
	}
	if err := events.Publish(ctx, n.broker, kind, id, doc, topics...); err != nil {
		n.logger.WarnContext(ctx, "publish change event", "kind", kind, "id", id, "error", err)
	}
}

func session(c *gin.Context) (*identity.Session, bool) {
	s, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return s, ok
}

func serverError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
