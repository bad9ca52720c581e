// Package inbox imports backup files dropped into a watched directory.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/notegraph/internal/backup"
	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/reconcile"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"

	// DefaultSettle is how long a file must stay quiet before it is read.
	DefaultSettle = 500 * time.Millisecond
)

// Importer applies a parsed backup, e.g. noteservice.Service.
type Importer interface {
	ImportBackup(ctx context.Context, b models.BackupData, opts reconcile.Options) (reconcile.Result, error)
}

// EventCallback is called after each file is handled. outcome is
// "imported" or "failed".
type EventCallback func(outcome, name string)

// Config controls a Watcher.
type Config struct {
	Dir     string
	Options reconcile.Options
	MaxSize int64
	Settle  time.Duration
}

// Watcher moves every *.json file in Dir through the importer and then
// into processed/ or failed/.
type Watcher struct {
	cfg      Config
	codec    *backup.Codec
	importer Importer
	logger   *slog.Logger
	cb       EventCallback
}

// New creates a Watcher. cb may be nil.
func New(cfg Config, codec *backup.Codec, importer Importer, logger *slog.Logger, cb EventCallback) *Watcher {
	if cfg.Settle <= 0 {
		cfg.Settle = DefaultSettle
	}
	return &Watcher{cfg: cfg, codec: codec, importer: importer, logger: logger, cb: cb}
}

// Run watches the inbox until ctx is cancelled. Files already present at
// start are imported first.
func (w *Watcher) Run(ctx context.Context) error {
	for _, sub := range []string{"", ProcessedDir, FailedDir} {
		if err := os.MkdirAll(filepath.Join(w.cfg.Dir, sub), 0o755); err != nil {
			return fmt.Errorf("inbox: %w", err)
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inbox: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", w.cfg.Dir, err)
	}
	w.logger.Info("inbox: started", slog.String("dir", w.cfg.Dir))

	pending := make(map[string]struct{})
	w.queueExisting(pending)

	// One timer debounces every pending file: writers often emit several
	// events per file and the content is only complete once they stop.
	timer := time.NewTimer(w.cfg.Settle)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("inbox: stopped")
			return nil

		case <-timer.C:
			for name := range pending {
				w.process(ctx, name)
				delete(pending, name)
			}

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || !isBackupFile(ev.Name) {
				continue
			}
			if filepath.Dir(ev.Name) != filepath.Clean(w.cfg.Dir) {
				continue
			}
			pending[filepath.Base(ev.Name)] = struct{}{}
			timer.Reset(w.cfg.Settle)

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("inbox: watch error", slog.String("error", watchErr.Error()))
		}
	}
}

func (w *Watcher) queueExisting(pending map[string]struct{}) {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		w.logger.Warn("inbox: list failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		if !e.IsDir() && isBackupFile(e.Name()) {
			pending[e.Name()] = struct{}{}
		}
	}
}

// process imports one file. The file is moved out of the inbox whatever
// the outcome so it is never retried in a loop.
func (w *Watcher) process(ctx context.Context, name string) {
	path := filepath.Join(w.cfg.Dir, name)
	err := w.importFile(ctx, path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}

	dest, outcome := ProcessedDir, "imported"
	if err != nil {
		dest, outcome = FailedDir, "failed"
		w.logger.Error("inbox: import failed", slog.String("file", name), slog.String("error", err.Error()))
	} else {
		w.logger.Info("inbox: imported", slog.String("file", name))
	}
	if mvErr := move(path, filepath.Join(w.cfg.Dir, dest)); mvErr != nil {
		w.logger.Warn("inbox: move failed", slog.String("file", name), slog.String("error", mvErr.Error()))
	}
	if w.cb != nil {
		w.cb(outcome, name)
	}
}

func (w *Watcher) importFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	b, err := w.codec.ParseFile(filepath.Base(path), "application/json", info.Size(), w.cfg.MaxSize, f)
	if err != nil {
		return err
	}
	_, err = w.importer.ImportBackup(ctx, *b, w.cfg.Options)
	return err
}

// move renames src into dir, adding a timestamp when the name is taken.
func move(src, dir string) error {
	dst := filepath.Join(dir, filepath.Base(src))
	if _, err := os.Stat(dst); err == nil {
		ext := filepath.Ext(dst)
		dst = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(dst, ext), time.Now().UnixNano(), ext)
	}
	return os.Rename(src, dst)
}

func isBackupFile(name string) bool {
	base := filepath.Base(name)
	return strings.HasSuffix(strings.ToLower(base), ".json") && !strings.HasPrefix(base, ".")
}
