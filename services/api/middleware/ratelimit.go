package middleware

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	redisstore "github.com/alex010501/TasksTracking/internal/redis"
	"github.com/alex010501/TasksTracking/pkg/telemetry"
)

// RateLimit rejects requests over the limiter's per-client budget with 429.
// Clients are keyed by remote IP. A limiter failure lets the request
// through: Redis being down should degrade the API, not close it.
func RateLimit(limiter redisstore.RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				logger.Warn("rate limiter unavailable", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				telemetry.APIRateLimitedTotal.Inc()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
