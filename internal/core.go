package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/notegraph/internal/backup"
	"github.com/starford/notegraph/internal/noteservice"
	"github.com/starford/notegraph/internal/storage"
)

// core is the state every command needs: the store and the loaded service.
type core struct {
	cfg    *Config
	logger *slog.Logger
	db     *storage.DB
	codec  *backup.Codec
	svc    *noteservice.Service
}

func (a *application) logger() (*slog.Logger, error) {
	if a.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger := slog.New(slog.NewJSONHandler(a.logOutput, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger, nil
}

// openCore opens the store and loads the note collection. opts are passed
// to the service, e.g. a change publisher.
func openCore(ctx context.Context, cfg *Config, logger *slog.Logger, opts ...noteservice.Option) (*core, error) {
	if dir := filepath.Dir(cfg.Store.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := storage.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	codec := backup.NewCodec(logger, cfg.App.Version)
	svc := noteservice.NewService(db, codec, logger, opts...)
	if err := svc.Load(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("load notes: %w", err)
	}
	return &core{cfg: cfg, logger: logger, db: db, codec: codec, svc: svc}, nil
}

func (c *core) Close() error {
	return c.db.Close()
}
