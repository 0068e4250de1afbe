package idempotency

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/gatekit/pkg/clock"
)

// Default cache configuration applied for zero Config fields.
const (
	DefaultRetention = 24 * time.Hour
	DefaultCapacity  = 10000
)

// Config holds the cache policy. Zero fields fall back to the package
// defaults.
type Config struct {
	// Retention is how long completed entries remain replayable.
	Retention time.Duration `env:"IDEMPOTENCY_RETENTION" envDefault:"24h"`

	// Capacity bounds the number of completed entries. The least recently
	// replayed entry is evicted first when the bound is exceeded.
	Capacity int `env:"IDEMPOTENCY_CAPACITY" envDefault:"10000"`
}

// Outcome tags the result of Begin.
type Outcome int

const (
	// Proceed means the caller claimed the key and must execute the guarded
	// logic, then call Complete (or Release on an internal fault).
	Proceed Outcome = iota

	// Replay means the key was already completed; the stored response must be
	// returned without executing the guarded logic.
	Replay

	// Conflict means another request with the same key is still in flight.
	Conflict

	// Mismatch means the key was seen before with a different request body.
	Mismatch
)

// String returns the outcome name for logs.
func (o Outcome) String() string {
	switch o {
	case Proceed:
		return "proceed"
	case Replay:
		return "replay"
	case Conflict:
		return "conflict"
	case Mismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

// Decision is the result of Begin. Response is set only for Replay.
type Decision struct {
	Outcome  Outcome
	Response *StoredResponse
}

// StoredResponse is the captured outcome of a guarded request.
type StoredResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Clone returns a deep copy so stored responses stay immutable.
func (r *StoredResponse) Clone() *StoredResponse {
	if r == nil {
		return nil
	}
	clone := &StoredResponse{
		StatusCode: r.StatusCode,
		Body:       slices.Clone(r.Body),
	}
	if r.Header != nil {
		clone.Header = make(http.Header, len(r.Header))
		maps.Copy(clone.Header, r.Header)
	}
	return clone
}

// Key builds the composite cache key from the client token and the request
// method and path. The same token on a different route is a distinct key.
func Key(token, method, path string) string {
	return strings.Join([]string{method, path, token}, "\x00")
}

// Fingerprint returns a compact digest of the request body used to detect
// token reuse with a different payload.
func Fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:16])
}

type entryState int

const (
	stateInProgress entryState = iota
	stateCompleted
)

// entry is the per-key record. Mutated only under Cache.mu. elem is non-nil
// exactly while the entry sits in the completed LRU list.
type entry struct {
	key         string
	state       entryState
	fingerprint string
	response    *StoredResponse
	createdAt   time.Time
	completedAt time.Time
	elem        *list.Element
}

// Cache is an in-memory idempotency cache. A single mutex covers the map and
// the LRU list, which makes Begin's check-and-create a single atomic step:
// two concurrent Begin calls for the same key can never both claim it.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*entry
	completed *list.List
	retention time.Duration
	capacity  int
	clk       clock.Clock
	lastSweep time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source. Defaults to the system clock.
func WithClock(clk clock.Clock) Option {
	return func(c *Cache) {
		if clk != nil {
			c.clk = clk
		}
	}
}

// New creates an idempotency cache with the given policy.
func New(cfg Config, opts ...Option) *Cache {
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}

	c := &Cache{
		entries:   make(map[string]*entry),
		completed: list.New(),
		retention: cfg.Retention,
		capacity:  cfg.Capacity,
		clk:       clock.System{},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.lastSweep = c.clk.Now()
	return c
}

// Begin claims key or reports why it cannot be claimed. fingerprint is
// compared against the fingerprint recorded when the key was first seen;
// pass the same value for retries of the same request.
func (c *Cache) Begin(key, fingerprint string) *Decision {
	now := c.clk.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.maybeSweep(now)

	e, ok := c.entries[key]
	if ok && e.state == stateCompleted && now.Sub(e.completedAt) >= c.retention {
		// Aged out; treat as first sighting.
		c.removeCompleted(e)
		ok = false
	}

	if !ok {
		c.entries[key] = &entry{
			key:         key,
			state:       stateInProgress,
			fingerprint: fingerprint,
			createdAt:   now,
		}
		return &Decision{Outcome: Proceed}
	}

	if e.fingerprint != fingerprint {
		return &Decision{Outcome: Mismatch}
	}

	if e.state == stateInProgress {
		return &Decision{Outcome: Conflict}
	}

	c.completed.MoveToFront(e.elem)
	return &Decision{Outcome: Replay, Response: e.response.Clone()}
}

// Complete transitions key from in-progress to completed, storing resp for
// replays. Calling it for an unknown or already-completed key is a caller
// contract violation and returns a sentinel error.
func (c *Cache) Complete(key string, resp *StoredResponse) error {
	if resp == nil {
		return ErrNilResponse
	}
	now := c.clk.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return ErrUnknownKey
	}
	if e.state == stateCompleted {
		return ErrAlreadyCompleted
	}

	e.state = stateCompleted
	e.response = resp.Clone()
	e.completedAt = now
	e.elem = c.completed.PushFront(e)

	for c.completed.Len() > c.capacity {
		oldest := c.completed.Back()
		if oldest == nil {
			break
		}
		c.removeCompleted(oldest.Value.(*entry))
	}
	return nil
}

// Release drops an in-progress entry without storing a response. Used when
// the guarded logic failed in a retry-worthy way, so the client's next
// attempt executes again instead of replaying a fault.
func (c *Cache) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && e.state == stateInProgress {
		delete(c.entries, key)
	}
}

// Len returns the number of tracked keys. Intended for tests and metrics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// removeCompleted drops a completed entry from both structures.
// Must be called with mu held.
func (c *Cache) removeCompleted(e *entry) {
	c.completed.Remove(e.elem)
	delete(c.entries, e.key)
}

// maybeSweep evicts completed entries past retention, at most once per hour
// of cache time. In-progress entries are never touched. Must be called with
// mu held.
func (c *Cache) maybeSweep(now time.Time) {
	if now.Sub(c.lastSweep) < time.Hour {
		return
	}
	c.lastSweep = now
	for elem := c.completed.Back(); elem != nil; {
		e := elem.Value.(*entry)
		prev := elem.Prev()
		if now.Sub(e.completedAt) >= c.retention {
			c.removeCompleted(e)
		}
		elem = prev
	}
}
