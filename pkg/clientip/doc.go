// Package clientip resolves the client IP address of an HTTP request.
//
// Proxy headers are consulted in a fixed priority order (CF-Connecting-IP,
// X-Forwarded-For, X-Real-IP) before falling back to the connection's remote
// address. Every candidate is parsed and normalized, so header spoofing with
// garbage values cannot smuggle an unparseable key into the guards keyed by
// client address.
//
// The middleware stores the resolved IP in the request context so the rate
// limiter and login guard key functions can read it without re-parsing
// headers.
package clientip
