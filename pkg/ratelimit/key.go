package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

// maxKeyLength bounds stored key size; longer keys are hashed.
const maxKeyLength = 64

// KeyFunc extracts a rate limiting identifier from an HTTP request.
// An empty result means the request cannot be attributed and is skipped.
type KeyFunc func(*http.Request) string

// Composite joins several key extractors into one key. Combined keys longer
// than 64 chars are shortened to a 128-bit SHA-256 prefix so map keys stay
// small without meaningful collision risk.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(keyFuncs))
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}

		if len(parts) == 0 {
			return ""
		}
		if len(parts) == 1 && len(parts[0]) <= maxKeyLength {
			return parts[0]
		}

		combined := strings.Join(parts, ":")
		if len(combined) > maxKeyLength {
			sum := sha256.Sum256([]byte(combined))
			return hex.EncodeToString(sum[:16])
		}
		return combined
	}
}
