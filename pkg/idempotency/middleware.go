package idempotency

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
)

// HeaderKey is the request header carrying the client token.
const HeaderKey = "Idempotency-Key"

// capturedHeaders is the response header subset stored for replays.
// Per-request headers (request IDs, rate limit counters) are deliberately
// not replayed.
var capturedHeaders = []string{"Content-Type", "Content-Location", "Location"}

// Middleware deduplicates mutating requests that carry an Idempotency-Key
// header. Requests without the header, and non-mutating methods, pass
// through untouched.
//
// The wrapped handler's response is captured and stored on completion so
// replays return it byte-for-byte. Responses with 5xx statuses are treated
// as retry-worthy internal faults: the key is released instead of cached,
// as is the case when the handler panics.
func Middleware(cache *Cache, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(HeaderKey)
			if token == "" || !mutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "Bad Request", http.StatusBadRequest)
				return
			}
			_ = r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(body))

			key := Key(token, r.Method, r.URL.Path)
			decision := cache.Begin(key, Fingerprint(body))

			switch decision.Outcome {
			case Replay:
				writeStored(w, decision.Response)
				return
			case Conflict:
				http.Error(w, "Request In Progress", http.StatusConflict)
				return
			case Mismatch:
				http.Error(w, "Idempotency Key Reused With Different Payload", http.StatusUnprocessableEntity)
				return
			}

			rec := newResponseCapture(w)

			// The key must never stay claimed: store the outcome on a normal
			// return, release it when the handler panicked or failed
			// internally.
			defer func() {
				if p := recover(); p != nil {
					cache.Release(key)
					panic(p)
				}

				if rec.status >= http.StatusInternalServerError {
					cache.Release(key)
					return
				}

				if err := cache.Complete(key, rec.stored()); err != nil {
					log.ErrorContext(r.Context(), "idempotency completion failed",
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
						slog.Any("error", err),
					)
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func writeStored(w http.ResponseWriter, resp *StoredResponse) {
	for name, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(name, v)
		}
	}
	w.Header().Set("Idempotency-Replayed", "true")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

// responseCapture tees the handler's response to the client while keeping a
// copy for the cache.
type responseCapture struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
	wrote  bool
}

func newResponseCapture(w http.ResponseWriter) *responseCapture {
	return &responseCapture{ResponseWriter: w, status: http.StatusOK}
}

func (r *responseCapture) WriteHeader(status int) {
	if !r.wrote {
		r.status = status
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	r.wrote = true
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseCapture) stored() *StoredResponse {
	header := make(http.Header, len(capturedHeaders))
	for _, name := range capturedHeaders {
		if values := r.Header().Values(name); len(values) > 0 {
			header[name] = values
		}
	}
	return &StoredResponse{
		StatusCode: r.status,
		Header:     header,
		Body:       r.body.Bytes(),
	}
}
