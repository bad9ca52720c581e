package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/starford/notegraph/internal/mcpserver"
	"github.com/starford/notegraph/internal/reconcile"
)

// Export writes a full backup of the store to out.
func Export(ctx context.Context, out io.Writer, opts ...Option) error {
	app := newApplication(opts)
	logger, err := app.logger()
	if err != nil {
		return err
	}
	c, err := openCore(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	b := c.svc.ExportBackup()
	if err := c.codec.Encode(out, b); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// Import reads a backup file and applies it to the store.
func Import(ctx context.Context, path string, importOpts reconcile.Options, opts ...Option) (reconcile.Result, error) {
	app := newApplication(opts)
	logger, err := app.logger()
	if err != nil {
		return reconcile.Result{}, err
	}
	c, err := openCore(ctx, app.config, logger)
	if err != nil {
		return reconcile.Result{}, err
	}
	defer c.Close()

	f, err := os.Open(path)
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("import: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return reconcile.Result{}, fmt.Errorf("import: %w", err)
	}

	b, err := c.codec.ParseFile(filepath.Base(path), "", info.Size(), app.config.Backup.MaxFileSize, f)
	if err != nil {
		return reconcile.Result{}, err
	}
	res, err := c.svc.ImportBackup(ctx, *b, importOpts)
	if err != nil {
		return res, err
	}
	logger.Info("import: done",
		slog.Int("notes", res.Imported.Notes),
		slog.Int("folders", res.Imported.Folders),
		slog.Int("tags", res.Imported.Tags),
		slog.Int("warnings", len(res.Warnings)))
	return res, nil
}

// ServeMCP runs the MCP server on stdin/stdout until the client disconnects.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	logger, err := app.logger()
	if err != nil {
		return err
	}
	c, err := openCore(ctx, app.config, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	logger.Info("mcp: serving on stdio", slog.Int("notes", len(c.svc.Notes())))
	return mcpserver.New(c.svc, app.config.App.Version).ServeStdio()
}
