// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notegraph/internal/aicache"
	"github.com/starford/notegraph/internal/aigateway"
	"github.com/starford/notegraph/internal/api"
	"github.com/starford/notegraph/internal/autosave"
	"github.com/starford/notegraph/internal/inbox"
	"github.com/starford/notegraph/internal/noteservice"
	"github.com/starford/notegraph/internal/ratelimit"
	"github.com/starford/notegraph/internal/sse"
)

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := newApplication(opts)
	logger, err := app.logger()
	if err != nil {
		return err
	}
	cfg := app.config

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("inbox_dir", cfg.Backup.InboxDir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	c, err := openCore(ctx, cfg, logger, noteservice.WithPublisher(broker))
	if err != nil {
		return err
	}
	defer c.Close()

	saver := autosave.NewManager(c.svc, autosave.Config{
		ContentDelay: cfg.Autosave.ContentIdle,
		TitleDelay:   cfg.Autosave.TitleIdle,
	}, logger, nil)

	ai, closeAI := newAIClient(ctx, cfg.AI, logger)
	defer closeAI()

	apiRouter := api.NewRouter(api.Deps{
		Service:       c.svc,
		Autosave:      saver,
		Codec:         c.codec,
		AI:            ai,
		Settings:      c.db,
		Logger:        logger,
		ImportMaxSize: cfg.Backup.MaxFileSize,
		AuthEnabled:   cfg.Auth.AuthEnabled(),
		Token:         cfg.Auth.Token,
		Events:        broker,
	})

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := c.db.Ping(req.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the backup inbox when configured.
	if cfg.Backup.InboxDir != "" {
		w := inbox.New(inbox.Config{
			Dir:     cfg.Backup.InboxDir,
			Options: cfg.Backup.ImportOptions(),
			MaxSize: cfg.Backup.MaxFileSize,
		}, c.codec, c.svc, logger, nil)
		g.Go(func() error {
			return w.Run(gCtx)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		timeout := cfg.App.HTTP.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		// Closing the broker ends open event streams so Shutdown does not
		// wait on them.
		broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		// Drafts still waiting for their idle gap are saved now.
		if err := saver.FlushAll(shutdownCtx); err != nil {
			logger.Error("autosave flush failed", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the inbox watcher stops with the server.
var errShutdown = errors.New("shutdown")

// newAIClient builds the gateway, with the Redis cache when configured. A
// cache that cannot be reached is logged and skipped.
func newAIClient(ctx context.Context, cfg AIConfig, logger *slog.Logger) (*aigateway.Client, func()) {
	var opts []aigateway.Option
	closer := func() {}
	if cfg.Cache.Enabled() {
		cache, err := aicache.Connect(ctx, aicache.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			TTL:      cfg.Cache.TTL,
		}, logger)
		if err != nil {
			logger.Warn("aicache: disabled", slog.String("error", err.Error()))
		} else {
			opts = append(opts, aigateway.WithCache(cache))
			closer = func() { _ = cache.Close() }
		}
	}
	client := aigateway.New(aigateway.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}, ratelimit.New(cfg.MaxRequests, cfg.Window), logger, opts...)
	return client, closer
}
