// Package ratelimit provides a sliding-window admission gate.
package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

const (
	DefaultMaxRequests = 10
	DefaultWindow      = time.Minute
)

// Info is a snapshot of the limiter state.
type Info struct {
	Remaining int       `json:"remaining"`
	ResetTime time.Time `json:"resetTime"`
	IsLimited bool      `json:"isLimited"`
}

// Window admits at most a fixed number of requests in any rolling window. Requests over
// quota are rejected immediately, never queued.
type Window struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	requests []time.Time
	now      func() time.Time
}

// New creates a Window. Non-positive arguments fall back to the defaults.
func New(limit int, window time.Duration) *Window {
	if limit <= 0 {
		limit = DefaultMaxRequests
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Window{max: limit, window: window, now: time.Now}
}

// cleanup drops requests that have left the window. Caller holds mu.
func (w *Window) cleanup(now time.Time) {
	kept := w.requests[:0]
	for _, t := range w.requests {
		if now.Sub(t) < w.window {
			kept = append(kept, t)
		}
	}
	w.requests = kept
}

// CanMakeRequest reports whether a request would be admitted now.
func (w *Window) CanMakeRequest() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cleanup(w.now())
	return len(w.requests) < w.max
}

// RecordRequest counts a request against the quota.
func (w *Window) RecordRequest() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = append(w.requests, w.now())
}

// Acquire admits and records a request in one step. When the quota is
// exhausted it returns false and the time the oldest request expires.
func (w *Window) Acquire() (bool, time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	w.cleanup(now)
	if len(w.requests) >= w.max {
		return false, w.resetTime()
	}
	w.requests = append(w.requests, now)
	return true, time.Time{}
}

// Remaining returns how many requests are left in the current window.
func (w *Window) Remaining() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cleanup(w.now())
	return max(0, w.max-len(w.requests))
}

// ResetTime returns when the oldest recorded request expires. ok is false
// when nothing is recorded.
func (w *Window) ResetTime() (t time.Time, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.requests) == 0 {
		return time.Time{}, false
	}
	return w.resetTime(), true
}

func (w *Window) resetTime() time.Time {
	oldest := w.requests[0]
	for _, t := range w.requests[1:] {
		if t.Before(oldest) {
			oldest = t
		}
	}
	return oldest.Add(w.window)
}

// Info returns a consistent snapshot of the limiter.
func (w *Window) Info() Info {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.now()
	w.cleanup(now)
	info := Info{
		Remaining: max(0, w.max-len(w.requests)),
		ResetTime: now.Add(w.window),
		IsLimited: len(w.requests) >= w.max,
	}
	if len(w.requests) > 0 {
		info.ResetTime = w.resetTime()
	}
	return info
}

// Reset forgets every recorded request.
func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.requests = nil
}

// StatusMessage describes the limiter state for display.
func (w *Window) StatusMessage() string {
	info := w.Info()
	if info.IsLimited {
		return "Rate limit exceeded. Please try again at " + info.ResetTime.Local().Format(time.Kitchen)
	}
	return fmt.Sprintf("%d requests remaining", info.Remaining)
}
