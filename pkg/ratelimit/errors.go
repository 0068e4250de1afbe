package ratelimit

import "errors"

var (
	ErrKeyRequired = errors.New("key is required")
)
