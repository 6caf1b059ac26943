package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/forum/backend/internal/config"
	"github.com/emilythestrangee/forum/backend/internal/database"
	"github.com/emilythestrangee/forum/backend/internal/events"
	"github.com/emilythestrangee/forum/backend/internal/handlers"
	"github.com/emilythestrangee/forum/backend/internal/identity"
	"github.com/emilythestrangee/forum/backend/internal/logging"
	"github.com/emilythestrangee/forum/backend/internal/server"
	"github.com/emilythestrangee/forum/backend/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("api exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.Init(cfg.LogLevel)
	if err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	broker, images, closeBackends, err := backends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeBackends()

	issuer := identity.NewIssuer(cfg.JWTSecret, cfg.TokenTTL, cfg.ResetTTL)
	gormDB := db.GetDB()

	handler := handlers.NewHandler(handlers.Deps{
		Posts:         database.NewPostRepository(gormDB),
		Comments:      database.NewCommentRepository(gormDB),
		Presence:      database.NewPresenceRepository(gormDB),
		Accounts:      database.NewAccountRepository(gormDB),
		Broker:        broker,
		Images:        images,
		Issuer:        issuer,
		Directory:     identity.Directory{Domain: cfg.PrivateEmailDomain},
		Mailer:        identity.LogMailer{Logger: logger},
		Logger:        logger,
		PublicURL:     cfg.PublicURL,
		MaxImageBytes: cfg.MaxImageBytes,
	})

	srv := server.New(handler, issuer, db, logger).HTTPServer(cfg.Port)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "broker", cfg.EventBroker)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Close the broker first so open event streams end and Shutdown can finish.
	if err := broker.Close(); err != nil {
		logger.Warn("close broker", "error", err)
	}
	return srv.Shutdown(shutdownCtx)
}

// backends picks the event broker and image store. NATS provides both;
// memory mode keeps everything in process.
func backends(ctx context.Context, cfg *config.Config, logger *slog.Logger) (events.Broker, storage.ObjectStore, func(), error) {
	if cfg.EventBroker == config.BrokerMemory {
		hub := events.NewHub(logger)
		return hub, storage.NewMemory(), func() { _ = hub.Close() }, nil
	}

	nc, err := events.Connect(cfg.NATSURL, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	images, err := storage.NewJetStreamStore(ctx, nc, cfg.ImageBucket)
	if err != nil {
		nc.Close()
		return nil, nil, nil, err
	}
	return events.NewNATSBroker(nc), images, func() { _ = nc.Drain() }, nil
}
