// Package autosave coalesces rapid edits into a single persist call fired
// after an idle gap.
package autosave

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Debouncer persists the most recently pushed value once no push has
// arrived for the configured delay.
type Debouncer[V any] struct {
	delay   time.Duration
	persist func(ctx context.Context, v V) error
	onError func(v V, err error)
	logger  *slog.Logger

	mu       sync.Mutex
	timer    *time.Timer
	pending  bool
	inFlight bool
	value    V

	// idle runs after a timer-driven save finishes.
	idle func()

	// saving serializes persist calls so values are written in push order.
	saving sync.Mutex
}

// NewDebouncer creates a Debouncer. onError may be nil.
func NewDebouncer[V any](delay time.Duration, persist func(ctx context.Context, v V) error, onError func(v V, err error), logger *slog.Logger) *Debouncer[V] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Debouncer[V]{delay: delay, persist: persist, onError: onError, logger: logger}
}

// Push records v as the latest value and restarts the idle timer.
func (d *Debouncer[V]) Push(v V) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value = v
	d.pending = true
	if d.timer == nil {
		d.timer = time.AfterFunc(d.delay, d.fire)
		return
	}
	d.timer.Reset(d.delay)
}

func (d *Debouncer[V]) fire() {
	_ = d.save(context.Background())
	if d.idle != nil {
		d.idle()
	}
}

// save persists the value current at call time, not the one that armed
// the timer.
func (d *Debouncer[V]) save(ctx context.Context) error {
	d.saving.Lock()
	defer d.saving.Unlock()

	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return nil
	}
	v := d.value
	d.pending = false
	d.inFlight = true
	d.mu.Unlock()

	err := d.persist(ctx, v)

	d.mu.Lock()
	d.inFlight = false
	// Keep a failed value for the next flush unless a newer one arrived.
	if err != nil && !d.pending {
		d.value = v
		d.pending = true
	}
	d.mu.Unlock()

	if err != nil {
		if d.onError != nil {
			d.onError(v, err)
		} else {
			d.logger.Error("autosave: persist failed", slog.String("error", err.Error()))
		}
		return err
	}
	return nil
}

// Flush persists any pending value immediately.
func (d *Debouncer[V]) Flush(ctx context.Context) error {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()
	return d.save(ctx)
}

// Cancel drops any pending value without persisting it.
func (d *Debouncer[V]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = false
	var zero V
	d.value = zero
}

// busy reports whether a value is pending or being written.
func (d *Debouncer[V]) busy() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending || d.inFlight
}

// Pending reports whether a value is waiting to be persisted.
func (d *Debouncer[V]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
