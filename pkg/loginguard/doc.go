// Package loginguard tracks failed authentication attempts per credential
// key and locks the key out after too many consecutive failures.
//
// The guard is a pure counter and gate: it never inspects credentials. The
// caller checks IsLocked before attempting authentication and reports the
// outcome with RecordFailure or RecordSuccess afterwards. Lockouts expire
// lazily on access, so no background timer is needed.
//
// Per-key state machine: clear → failing (1..MaxFailures-1) → locked (at
// MaxFailures) → clear again on expiry or on a successful authentication.
//
// # Usage
//
//	guard := loginguard.New(loginguard.Config{MaxFailures: 5, LockoutDuration: 15 * time.Minute})
//
//	if guard.IsLocked(email) {
//		// reject with guard.Status(email).RetryAfter()
//	}
//	if err := authenticate(email, password); err != nil {
//		guard.RecordFailure(email)
//	} else {
//		guard.RecordSuccess(email)
//	}
//
// The Middleware wires this protocol around a login handler by observing the
// response status code.
package loginguard
