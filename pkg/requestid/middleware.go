package requestid

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// Header is the canonical request ID header name.
const Header = "X-Request-ID"

const maxIDLength = 128

var validIDRegex = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// Middleware ensures every request carries a request ID: a valid
// client-supplied one is kept, anything else is replaced with a UUIDv4.
// The ID is set on the response header before the handler runs so it is
// present on every response, including short-circuited rejections.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(Header)
		if !isValid(requestID) {
			requestID = uuid.New().String()
		}
		w.Header().Set(Header, requestID)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), requestID)))
	})
}

func isValid(id string) bool {
	return id != "" && len(id) <= maxIDLength && validIDRegex.MatchString(id)
}
