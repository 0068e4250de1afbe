// Package requestid attaches a correlation identifier to every HTTP request.
//
// The middleware reuses a valid client-supplied X-Request-ID header or
// generates a fresh UUIDv4, stores the ID in the request context, and echoes
// it back in the response header so every response leaving the server can be
// traced, rejected or not. Invalid client IDs (wrong charset, too long) are
// silently replaced; the package never returns errors.
//
// LoggerExtractor integrates with log/slog so the ID lands on every log
// record for the request.
package requestid
