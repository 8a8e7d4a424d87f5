package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pnithesh/viralvision-backend/pkg/utilities"
)

type ctxKey string

const userIDKey ctxKey = "userId"

// Verifier validates a bearer token and returns the user id it carries.
type Verifier interface {
	Verify(token string) (string, error)
}

// RequireAuth rejects requests without a valid bearer token with 401 and
// stores the token's user id in the request context otherwise.
func RequireAuth(v Verifier, logger *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				utilities.WriteJSON(w, http.StatusUnauthorized, messageResponse{Message: "No token, authorization denied"})
				return
			}
			userID, err := v.Verify(token)
			if err != nil {
				logger.Debugw("token rejected", "path", r.URL.Path, "err", err)
				utilities.WriteJSON(w, http.StatusUnauthorized, messageResponse{Message: "Token is not valid"})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if len(h) < len("bearer ") || !strings.EqualFold(h[:len("bearer ")], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(h[len("bearer "):])
	return token, token != ""
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}
