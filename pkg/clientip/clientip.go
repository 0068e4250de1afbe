package clientip

import (
	"net"
	"net/http"
	"strings"
)

// GetIP returns the client IP for r, preferring trusted proxy headers and
// falling back to RemoteAddr. Returns a normalized textual IP, or "" when
// nothing parseable is found.
func GetIP(r *http.Request) string {
	if ip := parseIP(r.Header.Get("CF-Connecting-IP")); ip != "" {
		return ip
	}

	// X-Forwarded-For may hold a chain; the first valid entry is the client.
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		for _, candidate := range strings.Split(forwarded, ",") {
			if ip := parseIP(candidate); ip != "" {
				return ip
			}
		}
	}

	if ip := parseIP(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port, e.g. in tests.
		return parseIP(r.RemoteAddr)
	}
	return parseIP(host)
}

func parseIP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return ""
	}
	return ip.String()
}
