package loginguard

import (
	"sync"
	"time"

	"github.com/dmitrymomot/gatekit/pkg/clock"
)

// Default guard configuration applied for zero Config fields.
const (
	DefaultMaxFailures     = 5
	DefaultLockoutDuration = 15 * time.Minute
)

// Config holds the lockout policy. Zero fields fall back to the package
// defaults.
type Config struct {
	MaxFailures     int           `env:"LOGIN_MAX_FAILURES" envDefault:"5"`
	LockoutDuration time.Duration `env:"LOGIN_LOCKOUT_DURATION" envDefault:"15m"`
}

// Status describes the lockout state of a key at the time of the call.
type Status struct {
	// Locked indicates an active lockout.
	Locked bool

	// Failures is the current consecutive failure count.
	Failures int

	// LockedUntil is when the lockout expires. Zero when not locked.
	LockedUntil time.Time

	now time.Time
}

// RetryAfter returns how long until the lockout expires.
// Returns 0 if the key is not locked.
func (s *Status) RetryAfter() time.Duration {
	if !s.Locked {
		return 0
	}
	return s.LockedUntil.Sub(s.now)
}

// record is the per-key failure state. Mutated only under Guard.mu.
type record struct {
	failures    int
	lockedUntil time.Time
	lastFailure time.Time
}

// Guard counts authentication failures per key and gates locked keys.
// Records are created on first failure, cleared on success or lockout
// expiry, and swept periodically so memory stays bounded.
type Guard struct {
	mu          sync.Mutex
	records     map[string]*record
	maxFailures int
	lockout     time.Duration
	clk         clock.Clock
	lastSweep   time.Time
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock overrides the time source. Defaults to the system clock.
func WithClock(clk clock.Clock) Option {
	return func(g *Guard) {
		if clk != nil {
			g.clk = clk
		}
	}
}

// New creates a login guard with the given policy.
func New(cfg Config, opts ...Option) *Guard {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = DefaultMaxFailures
	}
	if cfg.LockoutDuration <= 0 {
		cfg.LockoutDuration = DefaultLockoutDuration
	}

	g := &Guard{
		records:     make(map[string]*record),
		maxFailures: cfg.MaxFailures,
		lockout:     cfg.LockoutDuration,
		clk:         clock.System{},
	}
	for _, opt := range opts {
		opt(g)
	}
	g.lastSweep = g.clk.Now()
	return g
}

// IsLocked reports whether key is currently locked out. An expired lockout
// is cleared on the spot, so the key starts a fresh episode afterwards.
func (g *Guard) IsLocked(key string) bool {
	now := g.clk.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.maybeSweep(now)

	rec, ok := g.records[key]
	if !ok || rec.lockedUntil.IsZero() {
		return false
	}
	if !now.Before(rec.lockedUntil) {
		delete(g.records, key)
		return false
	}
	return true
}

// RecordFailure counts one failed attempt for key. Reaching the failure
// threshold starts a lockout episode.
func (g *Guard) RecordFailure(key string) {
	now := g.clk.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[key]
	if !ok {
		rec = &record{}
		g.records[key] = rec
	}

	rec.failures++
	rec.lastFailure = now
	if rec.failures >= g.maxFailures {
		rec.lockedUntil = now.Add(g.lockout)
	}
}

// RecordSuccess clears all failure state for key.
func (g *Guard) RecordSuccess(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.records, key)
}

// Status reports the current state for key without mutating it, except that
// an expired lockout is cleared.
func (g *Guard) Status(key string) *Status {
	now := g.clk.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	rec, ok := g.records[key]
	if !ok {
		return &Status{now: now}
	}
	if !rec.lockedUntil.IsZero() && !now.Before(rec.lockedUntil) {
		delete(g.records, key)
		return &Status{now: now}
	}

	return &Status{
		Locked:      !rec.lockedUntil.IsZero(),
		Failures:    rec.failures,
		LockedUntil: rec.lockedUntil,
		now:         now,
	}
}

// Len returns the number of tracked keys. Intended for tests and metrics.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.records)
}

// maybeSweep drops expired lockouts and stale failing records at most once
// per lockout duration. A failing record with no activity for a full lockout
// duration no longer represents a meaningful episode. Must be called with mu
// held.
func (g *Guard) maybeSweep(now time.Time) {
	if now.Sub(g.lastSweep) < g.lockout {
		return
	}
	g.lastSweep = now
	for key, rec := range g.records {
		if !rec.lockedUntil.IsZero() {
			if !now.Before(rec.lockedUntil) {
				delete(g.records, key)
			}
			continue
		}
		if now.Sub(rec.lastFailure) >= g.lockout {
			delete(g.records, key)
		}
	}
}
