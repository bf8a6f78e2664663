package middleware

import (
	"crypto/subtle"
	"net/http"

	"fintrack/internal/logger"
)

// AdminMiddleware protects operational endpoints (premium grants, manual
// cancellations) with a shared key in the X-Admin-Key header.
func AdminMiddleware(adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logger.New()
			if adminKey == "" {
				logger.Error().Msg("Admin API key is not configured")
				http.Error(w, "admin access disabled", http.StatusForbidden)
				return
			}
			provided := r.Header.Get("X-Admin-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(adminKey)) != 1 {
				logger.Error().Msg("Invalid admin key")
				http.Error(w, "invalid admin key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
