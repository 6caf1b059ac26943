package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/forum/backend/internal/handlers"
	"github.com/emilythestrangee/forum/backend/internal/metrics"
	"github.com/emilythestrangee/forum/backend/internal/middleware"
)

// HealthChecker reports the state of the backing database.
type HealthChecker interface {
	Health() map[string]string
}

type Server struct {
	handler  *handlers.Handler
	verifier middleware.Verifier
	health   HealthChecker
	logger   *slog.Logger
}

func New(handler *handlers.Handler, verifier middleware.Verifier, health HealthChecker, logger *slog.Logger) *Server {
	return &Server{
		handler:  handler,
		verifier: verifier,
		health:   health,
		logger:   logger,
	}
}

// HTTPServer wraps the routes in an http.Server listening on port.
// Writes have no deadline so event streams can stay open.
func (s *Server) HTTPServer(port string) *http.Server {
	return &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(s.logger), metrics.Middleware())

	r.GET("/health", s.healthHandler)
	r.GET("/metrics", metrics.Handler())

	h := s.handler
	requireAuth := middleware.AuthMiddleware(s.verifier)
	optionalAuth := middleware.OptionalAuth(s.verifier)

	api := r.Group("/api")
	api.Use(middleware.CORS())
	{
		// Preflight requests are answered by the CORS middleware
		api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })

		// Auth routes (public)
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/password-reset", h.Auth.RequestPasswordReset)
		api.POST("/auth/password-reset/confirm", h.Auth.ConfirmPasswordReset)

		// Post routes (public reads)
		api.GET("/posts", h.Post.GetPosts)
		api.GET("/posts/stream", h.Stream.Feed)
		api.GET("/posts/:id", h.Post.GetPost)
		api.GET("/posts/:id/stream", h.Stream.Post)
		api.GET("/posts/:id/comments", h.Comment.GetComments)
		api.GET("/posts/:id/comments/stream", h.Stream.Comments)

		api.GET("/images/*name", h.Image.GetImage)

		// Presence reads hide the caller when signed in
		api.GET("/presence/online", optionalAuth, h.Presence.Online)
		api.GET("/presence/stream", optionalAuth, h.Stream.Presence)

		api.POST("/posts/:id/vote", middleware.AuthMiddlewareWithMessage(s.verifier, "Please login to vote."), h.Post.VotePost)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(requireAuth)
		{
			protected.GET("/me", h.Auth.GetMe)
			protected.POST("/auth/logout", h.Auth.Logout)

			protected.POST("/posts", h.Post.CreatePost)
			protected.DELETE("/posts/:id", h.Post.DeletePost)
			protected.POST("/posts/:id/comments", h.Comment.CreateComment)

			protected.PUT("/presence/heartbeat", h.Presence.Heartbeat)

			protected.POST("/images", h.Image.UploadImage)
		}
	}

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	stats := s.health.Health()
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}
