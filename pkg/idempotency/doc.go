// Package idempotency deduplicates retried mutating HTTP requests keyed by a
// client-supplied Idempotency-Key header.
//
// The cache guarantees at-most-once execution of guarded business logic per
// key. Begin atomically claims a key: the first caller gets Proceed and must
// finish with Complete (or Release on an internal fault); a concurrent
// duplicate gets Conflict while the first attempt is still running; once
// completed, every replay gets the stored response byte-for-byte until the
// entry ages out of the retention window or is evicted under capacity
// pressure. Only completed entries are ever evicted.
//
// The cache key combines the client token with the request method and path,
// so reusing a token on a different route is a distinct key. Reusing a token
// on the same route with a different body is detected via a body fingerprint
// and answered with Mismatch instead of a stale response.
//
// # Usage
//
//	cache := idempotency.New(idempotency.Config{Retention: 24 * time.Hour})
//
//	handler = idempotency.Middleware(cache, logger)(handler)
//
// The middleware applies to POST, PUT, PATCH and DELETE requests that carry
// an Idempotency-Key header and guarantees Complete or Release runs on every
// exit path, including handler panics.
package idempotency
