package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dineqr/order-api/internal/handlers"
)

// Counter is the fixed-window hit counter backing the limiter.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit caps requests per client IP within a fixed window. Requests with
// no resolvable address share one bucket. Counter failures let the request
// through with a warning: the tracking page must not go dark because redis
// did.
func RateLimit(counter Counter, limit int, window time.Duration, log *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := handlers.ClientIP(r)
			if ip == "" {
				ip = "unknown"
			}

			count, err := counter.Hit(r.Context(), "track:"+ip, window)
			if err != nil {
				log.Warn("rate limit counter failed", "ip", ip, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if count > int64(limit) {
				handlers.WriteError(w, http.StatusTooManyRequests, "Too many requests, try again later", log)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
