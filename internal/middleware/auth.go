package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"fintrack/internal/logger"
	"fintrack/internal/model"
	"fintrack/internal/util"
)

// Injected key type to avoid context collisions
type contextKey string

const UserContextKey = contextKey("user")

// AuthMiddleware validates the bearer token and stores the caller's user
// reference in the request context. Bot tokens carry a telegram_id claim;
// web tokens identify the user by Subject.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logger.New()
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Error().Msg("Authorization header missing")
				http.Error(w, "Authorization header missing", http.StatusUnauthorized)
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				logger.Error().Msg("Invalid authorization header")
				http.Error(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}
			tokenString := parts[1]
			claims, err := util.ValidateJWT(tokenString, jwtSecret)
			if err != nil {
				logger.Error().Msgf("Invalid token: %+v", err)
				http.Error(w, "Invalid token: "+err.Error(), http.StatusUnauthorized)
				return
			}

			ref := model.UserRef{Kind: model.RefCanonical, Value: claims.Subject}
			if claims.TelegramID != 0 {
				ref = model.UserRef{Kind: model.RefTelegram, Value: strconv.FormatInt(claims.TelegramID, 10)}
			}
			ctx := context.WithValue(r.Context(), UserContextKey, ref)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserRefFromContext returns the authenticated caller's reference.
func UserRefFromContext(ctx context.Context) (model.UserRef, bool) {
	ref, ok := ctx.Value(UserContextKey).(model.UserRef)
	return ref, ok
}
