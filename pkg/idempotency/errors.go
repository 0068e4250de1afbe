package idempotency

import "errors"

var (
	// ErrUnknownKey is returned by Complete for a key with no in-flight entry.
	// It signals a caller contract violation, not a client error.
	ErrUnknownKey = errors.New("no in-progress entry for key")

	// ErrAlreadyCompleted is returned by Complete when the entry was already
	// completed. The stored response is immutable.
	ErrAlreadyCompleted = errors.New("entry already completed")

	// ErrNilResponse is returned by Complete when no response is provided.
	ErrNilResponse = errors.New("response is required")
)
