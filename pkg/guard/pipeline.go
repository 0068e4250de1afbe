package guard

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/gatekit/pkg/idempotency"
	"github.com/dmitrymomot/gatekit/pkg/loginguard"
	"github.com/dmitrymomot/gatekit/pkg/ratelimit"
)

// DefaultMaxBodySize bounds request payloads to 1 MiB.
const DefaultMaxBodySize = 1 << 20

// Config holds pipeline-level settings. Guard-specific policies live in the
// guards themselves.
type Config struct {
	MaxBodySize int64 `env:"MAX_BODY_SIZE" envDefault:"1048576"`
}

// Rejection reasons carried by Decision.Reason.
const (
	ReasonPayloadTooLarge     = "payload_too_large"
	ReasonRateLimited         = "rate_limited"
	ReasonLocked              = "locked"
	ReasonIdempotencyConflict = "idempotency_conflict"
	ReasonIdempotencyMismatch = "idempotency_mismatch"
)

// Verdict tags a Decision.
type Verdict int

const (
	// Allow admits the request to business logic.
	Allow Verdict = iota

	// Reject refuses the request with Status and Reason.
	Reject

	// Replay short-circuits with a previously stored response.
	Replay
)

// Decision is the pipeline's answer for one request.
type Decision struct {
	Verdict Verdict

	// Status is the suggested HTTP status for Reject and Replay.
	Status int

	// Reason is a machine-readable rejection reason.
	Reason string

	// RetryAfter hints when the client may retry a rejection. Zero when not
	// applicable.
	RetryAfter time.Duration

	// Response is the stored response for Replay.
	Response *idempotency.StoredResponse

	// IdempotencyKey is non-empty when this request claimed an idempotency
	// key; the caller must call Complete or Release with it on every exit
	// path.
	IdempotencyKey string
}

// RequestInfo describes an inbound request to Admit.
type RequestInfo struct {
	// ClientKey identifies the client for rate limiting, e.g. the remote IP.
	ClientKey string

	// CredentialKey identifies the credential under authentication. Empty
	// for non-authentication requests.
	CredentialKey string

	Method string
	Path   string

	// IdempotencyToken is the client-supplied deduplication token. Empty
	// when the request is not idempotent.
	IdempotencyToken string

	// BodyFingerprint is a digest of the request payload, used to detect
	// token reuse with a different body.
	BodyFingerprint string

	// BodySize is the declared payload size in bytes.
	BodySize int64
}

// Pipeline applies the guards in a fixed order. It owns no state beyond
// references to the guards.
type Pipeline struct {
	limiter *ratelimit.Limiter
	logins  *loginguard.Guard
	cache   *idempotency.Cache
	maxBody int64
	log     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for guard fault reporting.
func WithLogger(log *slog.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// New creates a pipeline over the three guards. Any guard may be nil, in
// which case its stage is skipped.
func New(cfg Config, limiter *ratelimit.Limiter, logins *loginguard.Guard, cache *idempotency.Cache, opts ...Option) *Pipeline {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}

	p := &Pipeline{
		limiter: limiter,
		logins:  logins,
		cache:   cache,
		maxBody: cfg.MaxBodySize,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MaxBodySize returns the configured payload bound.
func (p *Pipeline) MaxBodySize() int64 { return p.maxBody }

// Admit runs the guard stages for one request and returns the first
// non-allow decision. A panicking stage is logged and the request is
// admitted rather than failed, so a guard contract violation cannot wedge
// unrelated requests.
func (p *Pipeline) Admit(info RequestInfo) (decision Decision) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("guard fault, admitting request",
				slog.String("method", info.Method),
				slog.String("path", info.Path),
				slog.Any("panic", r),
			)
			decision = Decision{Verdict: Allow}
		}
	}()

	if info.BodySize > p.maxBody {
		return Decision{
			Verdict: Reject,
			Status:  http.StatusRequestEntityTooLarge,
			Reason:  ReasonPayloadTooLarge,
		}
	}

	if p.limiter != nil && info.ClientKey != "" {
		if res := p.limiter.Allow(info.ClientKey); !res.Allowed {
			return Decision{
				Verdict:    Reject,
				Status:     http.StatusTooManyRequests,
				Reason:     ReasonRateLimited,
				RetryAfter: res.RetryAfter(),
			}
		}
	}

	if p.logins != nil && info.CredentialKey != "" {
		if p.logins.IsLocked(info.CredentialKey) {
			status := p.logins.Status(info.CredentialKey)
			return Decision{
				Verdict:    Reject,
				Status:     http.StatusTooManyRequests,
				Reason:     ReasonLocked,
				RetryAfter: status.RetryAfter(),
			}
		}
	}

	if p.cache != nil && info.IdempotencyToken != "" && mutating(info.Method) {
		key := idempotency.Key(info.IdempotencyToken, info.Method, info.Path)
		switch d := p.cache.Begin(key, info.BodyFingerprint); d.Outcome {
		case idempotency.Replay:
			return Decision{
				Verdict:  Replay,
				Status:   d.Response.StatusCode,
				Response: d.Response,
			}
		case idempotency.Conflict:
			return Decision{
				Verdict: Reject,
				Status:  http.StatusConflict,
				Reason:  ReasonIdempotencyConflict,
			}
		case idempotency.Mismatch:
			return Decision{
				Verdict: Reject,
				Status:  http.StatusUnprocessableEntity,
				Reason:  ReasonIdempotencyMismatch,
			}
		default:
			return Decision{Verdict: Allow, IdempotencyKey: key}
		}
	}

	return Decision{Verdict: Allow}
}

// Complete stores the outcome of a request previously admitted with a
// claimed idempotency key. Contract violations are logged, not returned:
// the caller can do nothing useful with them at this point.
func (p *Pipeline) Complete(key string, resp *idempotency.StoredResponse) {
	if p.cache == nil || key == "" {
		return
	}
	if err := p.cache.Complete(key, resp); err != nil {
		p.log.Error("idempotency completion failed", slog.Any("error", err))
	}
}

// Release drops a claimed idempotency key after a retry-worthy internal
// fault, so the client's next attempt executes again.
func (p *Pipeline) Release(key string) {
	if p.cache == nil || key == "" {
		return
	}
	p.cache.Release(key)
}

// LoginGuard exposes the login guard for callers that report authentication
// outcomes directly, e.g. the account module.
func (p *Pipeline) LoginGuard() *loginguard.Guard { return p.logins }

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
