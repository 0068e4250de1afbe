// Package httpserver wraps http.Server with graceful shutdown.
//
// Run blocks until the context is canceled, an interrupt/SIGTERM arrives, or
// the listener fails, then drains in-flight requests within the shutdown
// timeout.
package httpserver
