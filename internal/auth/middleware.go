package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/leeaandrob/roascalc/internal/apperr"
)

type contextKey string

const userIDKey contextKey = "user_id"

// Middleware requires a valid bearer token and stores its subject in the
// request context. Failures are written through onError.
func Middleware(tokens *Tokens, onError func(http.ResponseWriter, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				onError(w, apperr.Unauthorized("missing authorization"))
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				onError(w, apperr.Unauthorized("invalid authorization"))
				return
			}
			claims, err := tokens.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				onError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithUserID(r.Context(), claims.Subject)))
		})
	}
}

// UserIDFromContext returns the authenticated user id, or "".
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithUserID(ctx context.Context, userID string) context.Context {
	if strings.TrimSpace(userID) == "" {
		return ctx
	}
	return context.WithValue(ctx, userIDKey, userID)
}
