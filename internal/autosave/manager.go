package autosave

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/notegraph/internal/apperr"
)

const (
	DefaultContentDelay = 2 * time.Second
	DefaultTitleDelay   = time.Second
)

// Saver writes note fields to durable storage.
type Saver interface {
	SaveContent(ctx context.Context, noteID, content string) error
	SaveTitle(ctx context.Context, noteID, title string) error
}

// Config sets the idle gaps. Zero values use the defaults.
type Config struct {
	ContentDelay time.Duration
	TitleDelay   time.Duration
}

type noteDrafts struct {
	content *Debouncer[string]
	title   *Debouncer[string]
}

// Manager keeps one content and one title debouncer per note.
type Manager struct {
	saver   Saver
	cfg     Config
	logger  *slog.Logger
	onError func(noteID string, err error)

	mu    sync.Mutex
	notes map[string]*noteDrafts
}

// NewManager creates a Manager. onError is told about every failed save,
// after it has been logged; it may be nil.
func NewManager(saver Saver, cfg Config, logger *slog.Logger, onError func(noteID string, err error)) *Manager {
	if cfg.ContentDelay <= 0 {
		cfg.ContentDelay = DefaultContentDelay
	}
	if cfg.TitleDelay <= 0 {
		cfg.TitleDelay = DefaultTitleDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{saver: saver, cfg: cfg, logger: logger, onError: onError, notes: make(map[string]*noteDrafts)}
}

// push hands v to the note's debouncer, creating the note's drafts on
// first use. It holds mu so release never drops an entry mid-push.
func (m *Manager) push(noteID string, pick func(*noteDrafts)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.notes[noteID]
	if !ok {
		d = &noteDrafts{
			content: NewDebouncer(m.cfg.ContentDelay, func(ctx context.Context, v string) error {
				return m.ignoreGone(noteID, m.saver.SaveContent(ctx, noteID, v))
			}, m.failed(noteID, "content"), m.logger),
			title: NewDebouncer(m.cfg.TitleDelay, func(ctx context.Context, v string) error {
				return m.ignoreGone(noteID, m.saver.SaveTitle(ctx, noteID, v))
			}, m.failed(noteID, "title"), m.logger),
		}
		release := func() { m.release(noteID) }
		d.content.idle = release
		d.title.idle = release
		m.notes[noteID] = d
	}
	pick(d)
}

// release forgets a note once neither field has anything left to write.
func (m *Manager) release(noteID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.notes[noteID]
	if ok && !d.content.busy() && !d.title.busy() {
		delete(m.notes, noteID)
	}
}

// tracked reports how many notes hold drafts.
func (m *Manager) tracked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notes)
}

// ignoreGone treats a save for a deleted note as done.
func (m *Manager) ignoreGone(noteID string, err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		m.logger.Debug("autosave: note gone, draft dropped", slog.String("note_id", noteID))
		return nil
	}
	return err
}

func (m *Manager) failed(noteID, field string) func(string, error) {
	return func(_ string, err error) {
		m.logger.Error("autosave: save failed",
			slog.String("note_id", noteID),
			slog.String("field", field),
			slog.String("error", err.Error()))
		if m.onError != nil {
			m.onError(noteID, err)
		}
	}
}

// PushContent schedules a content save for the note.
func (m *Manager) PushContent(noteID, content string) {
	m.push(noteID, func(d *noteDrafts) { d.content.Push(content) })
}

// PushTitle schedules a title save for the note.
func (m *Manager) PushTitle(noteID, title string) {
	m.push(noteID, func(d *noteDrafts) { d.title.Push(title) })
}

// Pending reports whether the note has unsaved edits.
func (m *Manager) Pending(noteID string) bool {
	m.mu.Lock()
	d, ok := m.notes[noteID]
	m.mu.Unlock()
	return ok && (d.content.Pending() || d.title.Pending())
}

// FlushNote saves the note's pending edits now, title first.
func (m *Manager) FlushNote(ctx context.Context, noteID string) error {
	m.mu.Lock()
	d, ok := m.notes[noteID]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	err := errors.Join(d.title.Flush(ctx), d.content.Flush(ctx))
	m.release(noteID)
	return err
}

// FlushAll saves every pending edit. It is called on shutdown.
func (m *Manager) FlushAll(ctx context.Context) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.notes))
	for id := range m.notes {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range ids {
		errs = append(errs, m.FlushNote(ctx, id))
	}
	return errors.Join(errs...)
}

// Cancel discards the note's pending edits, e.g. when it is deleted.
func (m *Manager) Cancel(noteID string) {
	m.mu.Lock()
	d, ok := m.notes[noteID]
	delete(m.notes, noteID)
	m.mu.Unlock()
	if ok {
		d.content.Cancel()
		d.title.Cancel()
	}
}
