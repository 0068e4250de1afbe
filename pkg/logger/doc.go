// Package logger builds configured log/slog loggers.
//
// The factory wraps the chosen handler in a decorator that pulls
// request-scoped attributes (request ID, client IP) out of the context on
// every log call, so handlers and middleware log plain messages and still
// get correlated records.
//
// # Usage
//
//	log := logger.New(
//		logger.WithProduction("gatekit"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
package logger
