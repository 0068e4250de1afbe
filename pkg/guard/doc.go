// Package guard orchestrates the admission-control stages applied to every
// inbound request: request-size check, rate limiting, login lockout (for
// authentication routes) and idempotent deduplication (for mutating routes),
// in that fixed order, short-circuiting on the first rejection.
//
// Two surfaces are offered. Admit is the transport-agnostic core: it takes a
// request descriptor and returns a tagged Decision (allow, reject with a
// suggested status and retry hint, or replay with a stored response).
// Middleware adapts the same order to net/http, additionally guaranteeing
// that every response carries a request ID and the security header set.
//
// Guard faults never escape to clients: a stage that violates its own
// contract is logged and the request is admitted (fail open), so a single
// broken key cannot take down unrelated traffic.
package guard
