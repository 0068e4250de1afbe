// Package ratelimit provides an in-memory fixed-window rate limiter keyed by
// an arbitrary client identifier, plus HTTP middleware for enforcing it.
//
// The limiter counts requests per key within a fixed time window. The first
// request for a key opens a window; once the count exceeds the configured
// limit, further requests are rejected until the window rolls over. Counting
// restarts from scratch at every window boundary, so a burst straddling the
// boundary can admit up to twice the limit in the worst case. This is a known
// property of fixed-window counting, accepted here for its O(1) memory per
// key.
//
// All time reads go through an injected clock.Clock, which makes window
// rollover deterministically testable.
//
// # Usage
//
//	limiter := ratelimit.New(ratelimit.Config{Limit: 100, Window: time.Minute})
//
//	res := limiter.Allow(clientIP)
//	if !res.Allowed {
//		// reject with res.RetryAfter()
//	}
//
// As middleware:
//
//	handler = ratelimit.Middleware(limiter, keyFunc)(handler)
package ratelimit
