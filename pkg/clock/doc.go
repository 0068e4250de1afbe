// Package clock abstracts the time source used by the guard packages.
//
// Every component that makes time-dependent decisions (rate windows, lockout
// expiry, idempotency retention) receives a Clock at construction instead of
// calling time.Now directly. Production code uses System; tests use Fake,
// which can be set and advanced deterministically.
//
// # Usage
//
//	limiter := ratelimit.New(ratelimit.Config{}, ratelimit.WithClock(clock.System{}))
//
// In tests:
//
//	clk := clock.NewFake(time.Now())
//	clk.Advance(time.Minute)
package clock
