package middleware

import (
	"net"
	"net/http"

	"go.uber.org/zap"

	"finagotchi-backend/pkg/auth"
	"finagotchi-backend/pkg/common"
)

// RateLimit rejects a caller once its request budget for the current
// window is spent. Keys are the caller's IP; a nil limiter disables
// limiting entirely.
func RateLimit(limiter auth.RateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			ip := r.RemoteAddr
			if host, _, err := net.SplitHostPort(ip); err == nil {
				ip = host
			}

			allowed, err := limiter.Allow(r.Context(), "ip:"+ip)
			if err != nil {
				// The limiter fails open; log the underlying problem.
				logger.Warn("Rate limiter error", zap.Error(err))
			}
			if !allowed {
				common.RespondError(w, http.StatusTooManyRequests, common.StandardErrorCodes.TooManyRequests, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
