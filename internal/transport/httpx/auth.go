package httpx

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const userKey contextKey = "user"

// UserFromContext returns the authenticated user identity, or "" for an
// anonymous request.
func UserFromContext(ctx context.Context) string {
	user, _ := ctx.Value(userKey).(string)
	return user
}

// ContextWithUser attaches a user identity; used by tests and the SDK.
func ContextWithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey, userID)
}

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware resolves the caller's identity from a Bearer token.
// Each configured API key is one identity. A request without a token stays
// anonymous: anonymous callers may still search, they just get no caching
// and no history. A present-but-invalid token is rejected so a client with
// a stale key learns about it instead of silently losing its history.
// If apiKeys is empty, any presented token is accepted as its own identity.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				next.ServeHTTP(w, r)
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, codeUnauthorized,
					"authorization header must use Bearer scheme")
				return
			}

			token := auth[len(bearerPrefix):]
			if len(validKeys) > 0 {
				if _, ok := validKeys[token]; !ok {
					writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid api key")
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), token)))
		})
	}
}
