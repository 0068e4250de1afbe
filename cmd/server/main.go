package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/gatekit/modules/account"
	"github.com/dmitrymomot/gatekit/modules/item"
	"github.com/dmitrymomot/gatekit/pkg/clientip"
	"github.com/dmitrymomot/gatekit/pkg/config"
	"github.com/dmitrymomot/gatekit/pkg/guard"
	"github.com/dmitrymomot/gatekit/pkg/httpserver"
	"github.com/dmitrymomot/gatekit/pkg/idempotency"
	"github.com/dmitrymomot/gatekit/pkg/jwt"
	"github.com/dmitrymomot/gatekit/pkg/logger"
	"github.com/dmitrymomot/gatekit/pkg/loginguard"
	"github.com/dmitrymomot/gatekit/pkg/ratelimit"
	"github.com/dmitrymomot/gatekit/pkg/requestid"
)

type appConfig struct {
	Server      httpserver.Config
	RateLimit   ratelimit.Config
	LoginGuard  loginguard.Config
	Idempotency idempotency.Config
	Guard       guard.Config

	JWTSecret string `env:"JWT_SECRET,required"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

func main() {
	var cfg appConfig
	config.MustLoad(&cfg)

	log := logger.New(
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	slog.SetDefault(log)

	tokens, err := jwt.NewFromString(cfg.JWTSecret)
	if err != nil {
		log.Error("invalid jwt configuration", slog.Any("error", err))
		os.Exit(1)
	}

	pipeline := guard.New(
		cfg.Guard,
		ratelimit.New(cfg.RateLimit),
		loginguard.New(cfg.LoginGuard),
		idempotency.New(cfg.Idempotency),
		guard.WithLogger(log),
	)

	accounts := account.NewHandler(
		account.NewService(account.NewMemoryStorage(), account.WithLogger(log)),
		tokens,
		account.WithHandlerLogger(log),
	)
	items := item.NewHandler(item.NewService(item.NewMemoryStorage()), log)

	r := chi.NewRouter()
	r.Use(pipeline.Middleware(guard.MiddlewareOptions{
		OnRateLimited: func(w http.ResponseWriter, req *http.Request, result *ratelimit.Result) {
			log.WarnContext(req.Context(), "rate limit exceeded",
				slog.String("client_ip", clientip.FromContext(req.Context())),
				slog.String("path", req.URL.Path),
			)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		},
	}))
	r.Use(requestLogging(log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Group(func(r chi.Router) {
		r.Use(pipeline.AuthMiddleware(
			func(req *http.Request) string {
				return clientip.FromContext(req.Context())
			},
			loginguard.WithOnLocked(func(w http.ResponseWriter, req *http.Request, status *loginguard.Status) {
				log.WarnContext(req.Context(), "login attempts locked out",
					slog.String("client_ip", clientip.FromContext(req.Context())),
					slog.Duration("retry_after", status.RetryAfter()),
				)
				http.Error(w, "Too Many Failed Attempts", http.StatusTooManyRequests)
			}),
		))
		r.Mount("/auth", accounts.Router())
	})

	r.Group(func(r chi.Router) {
		r.Use(jwt.Middleware(tokens))
		r.Mount("/items", items.Router())
	})

	srv := httpserver.New(cfg.Server, httpserver.WithLogger(log))
	if err := srv.Run(context.Background(), r); err != nil {
		log.Error("server exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

// requestLogging emits one structured line per request with latency and
// status.
func requestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.InfoContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.String("client_ip", clientip.FromContext(r.Context())),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
