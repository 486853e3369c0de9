// Package ratelimit implements the per-client request limiter that gates
// every inbound gateway request. The window is reset-based rather than a
// precise sliding log: each client carries one counter and one reset
// timestamp, which is a coarse but sufficient approximation for
// upstream-quota protection.
package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

const (
	// DefaultLimit is the per-client request budget per window.
	DefaultLimit = 50

	// DefaultWindow is the limiter window duration.
	DefaultWindow = time.Minute
)

type window struct {
	count   int
	resetAt time.Time
}

// Decision reports the outcome of one limiter check.
type Decision struct {
	Permitted  bool
	RetryAfter time.Duration
}

// RetryAfterSeconds returns the retry hint rounded up to whole seconds.
func (d Decision) RetryAfterSeconds() int {
	if d.Permitted || d.RetryAfter <= 0 {
		return 0
	}
	return int(math.Ceil(d.RetryAfter.Seconds()))
}

// Limiter tracks request windows per client identifier.
type Limiter struct {
	mu      sync.Mutex
	windows map[string]window
	limit   int
	window  time.Duration
	clock   func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithLimit overrides the per-window request budget.
func WithLimit(limit int) Option {
	return func(l *Limiter) {
		if limit > 0 {
			l.limit = limit
		}
	}
}

// WithWindow overrides the window duration.
func WithWindow(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.window = d
		}
	}
}

// WithClock injects a clock for tests.
func WithClock(clock func() time.Time) Option {
	return func(l *Limiter) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// New constructs a Limiter with empty state.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		windows: make(map[string]window),
		limit:   DefaultLimit,
		window:  DefaultWindow,
		clock:   func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow checks and records one request for clientID. The first request
// from a client, or the first one after its window lapses, opens a fresh
// window with count 1. Denials carry a positive retry-after hint.
func (l *Limiter) Allow(clientID string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()

	w, ok := l.windows[clientID]
	if !ok || !now.Before(w.resetAt) {
		l.windows[clientID] = window{count: 1, resetAt: now.Add(l.window)}
		return Decision{Permitted: true}
	}

	if w.count >= l.limit {
		return Decision{Permitted: false, RetryAfter: w.resetAt.Sub(now)}
	}

	w.count++
	l.windows[clientID] = w
	return Decision{Permitted: true}
}

// Clear drops all client state.
func (l *Limiter) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.windows = make(map[string]window)
}

// Len reports the number of tracked clients.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Sweep removes windows whose reset time has passed, bounding the table
// under client churn. Returns the number of entries removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	removed := 0
	for clientID, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, clientID)
			removed++
		}
	}
	return removed
}

// StartSweeping runs Sweep every interval until ctx is canceled.
func (l *Limiter) StartSweeping(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = l.window
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
