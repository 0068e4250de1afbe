package secheaders

import "net/http"

// Default header values.
const (
	DefaultContentTypeOptions = "nosniff"
	DefaultFrameOptions       = "DENY"
	DefaultXSSProtection      = "1; mode=block"
	DefaultHSTS               = "max-age=31536000"
	DefaultCacheControl       = "no-store"
)

// Config overrides individual header values. An empty field keeps the
// default; a value of "-" drops the header entirely.
type Config struct {
	ContentTypeOptions string `env:"SEC_CONTENT_TYPE_OPTIONS"`
	FrameOptions       string `env:"SEC_FRAME_OPTIONS"`
	XSSProtection      string `env:"SEC_XSS_PROTECTION"`
	HSTS               string `env:"SEC_HSTS"`
	CacheControl       string `env:"SEC_CACHE_CONTROL"`
}

// Drop is the sentinel value that removes a header from the set.
const Drop = "-"

// Middleware returns middleware that sets the configured security headers
// before the handler runs, so they are present on every response.
func Middleware(cfg Config) func(http.Handler) http.Handler {
	headers := buildSet(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for name, value := range headers {
				w.Header().Set(name, value)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func buildSet(cfg Config) map[string]string {
	headers := make(map[string]string, 5)
	set := func(name, value, fallback string) {
		if value == Drop {
			return
		}
		if value == "" {
			value = fallback
		}
		headers[name] = value
	}
	set("X-Content-Type-Options", cfg.ContentTypeOptions, DefaultContentTypeOptions)
	set("X-Frame-Options", cfg.FrameOptions, DefaultFrameOptions)
	set("X-XSS-Protection", cfg.XSSProtection, DefaultXSSProtection)
	set("Strict-Transport-Security", cfg.HSTS, DefaultHSTS)
	set("Cache-Control", cfg.CacheControl, DefaultCacheControl)
	return headers
}
