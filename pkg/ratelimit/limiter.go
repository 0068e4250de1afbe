package ratelimit

import (
	"sync"
	"time"

	"github.com/dmitrymomot/gatekit/pkg/clock"
)

// Default limiter configuration applied for zero Config fields.
const (
	DefaultLimit  = 100
	DefaultWindow = time.Minute
)

// Config holds the fixed-window policy. Zero fields fall back to the
// package defaults. A negative Limit rejects every request, which is the
// safe interpretation of a misconfigured threshold.
type Config struct {
	Limit  int           `env:"RATE_LIMIT_MAX" envDefault:"100"`
	Window time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"60s"`
}

// Result describes the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the request is admitted.
	Allowed bool

	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Remaining is the number of requests left in the current window.
	Remaining int

	// ResetAt is when the current window rolls over.
	ResetAt time.Time

	now time.Time
}

// RetryAfter returns how long to wait until the window rolls over.
// Returns 0 if the request was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.Allowed {
		return 0
	}
	return r.ResetAt.Sub(r.now)
}

// window is the per-key counter state. Mutated only under Limiter.mu.
type window struct {
	count int
	start time.Time
}

// Limiter is a fixed-window rate limiter. Windows are created lazily per key
// and expired windows are dropped on a periodic in-line sweep, so memory
// stays bounded under sustained traffic from many distinct keys.
type Limiter struct {
	mu        sync.Mutex
	windows   map[string]*window
	limit     int
	window    time.Duration
	clk       clock.Clock
	lastSweep time.Time

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source. Defaults to the system clock.
func WithClock(clk clock.Clock) Option {
	return func(l *Limiter) {
		if clk != nil {
			l.clk = clk
		}
	}
}

// WithCleanupInterval starts a background goroutine that sweeps expired
// windows every interval, for limiters that see bursts of distinct keys
// followed by silence. Call Close to stop it. Without this option expired
// windows are still dropped in line with requests.
func WithCleanupInterval(interval time.Duration) Option {
	return func(l *Limiter) {
		if interval > 0 {
			l.cleanupInterval = interval
		}
	}
}

// New creates a fixed-window limiter with the given policy.
func New(cfg Config, opts ...Option) *Limiter {
	if cfg.Limit == 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultWindow
	}

	l := &Limiter{
		windows:     make(map[string]*window),
		limit:       cfg.Limit,
		window:      cfg.Window,
		clk:         clock.System{},
		stopCleanup: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep = l.clk.Now()

	if l.cleanupInterval > 0 {
		go l.cleanupLoop()
	}
	return l
}

// Close stops the background cleanup goroutine if one was started.
// Safe to call multiple times.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() {
		close(l.stopCleanup)
	})
}

func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := l.clk.Now()
			l.mu.Lock()
			l.lastSweep = now
			for key, w := range l.windows {
				if now.Sub(w.start) >= l.window {
					delete(l.windows, key)
				}
			}
			l.mu.Unlock()
		case <-l.stopCleanup:
			return
		}
	}
}

// Allow records one request for key and reports whether it is admitted.
// The counter is capped at limit+1 so a rejected key cannot grow its
// counter unboundedly while being hammered.
func (l *Limiter) Allow(key string) *Result {
	now := l.clk.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.maybeSweep(now)

	if l.limit < 0 {
		return &Result{Limit: l.limit, ResetAt: now.Add(l.window), now: now}
	}

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		w = &window{count: 1, start: now}
		l.windows[key] = w
		return &Result{
			Allowed:   true,
			Limit:     l.limit,
			Remaining: l.limit - 1,
			ResetAt:   w.start.Add(l.window),
			now:       now,
		}
	}

	if w.count <= l.limit {
		w.count++
	}

	return &Result{
		Allowed:   w.count <= l.limit,
		Limit:     l.limit,
		Remaining: max(0, l.limit-w.count),
		ResetAt:   w.start.Add(l.window),
		now:       now,
	}
}

// Status reports the current state for key without consuming a slot.
func (l *Limiter) Status(key string) *Result {
	now := l.clk.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok || now.Sub(w.start) >= l.window {
		return &Result{
			Allowed:   l.limit > 0,
			Limit:     l.limit,
			Remaining: max(0, l.limit),
			ResetAt:   now.Add(l.window),
			now:       now,
		}
	}

	return &Result{
		Allowed:   w.count < l.limit,
		Limit:     l.limit,
		Remaining: max(0, l.limit-w.count),
		ResetAt:   w.start.Add(l.window),
		now:       now,
	}
}

// Reset forgets all state for key.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// Len returns the number of tracked keys. Intended for tests and metrics.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// maybeSweep drops expired windows at most once per window length.
// Expired windows carry no information: the next request for such a key
// opens a fresh window either way. Must be called with mu held.
func (l *Limiter) maybeSweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for key, w := range l.windows {
		if now.Sub(w.start) >= l.window {
			delete(l.windows, key)
		}
	}
}
