package server

import (
	"net/http"
	"strings"

	"github.com/Roulerrr/server-iot-smart-home-ver.test/internal/security"
)

const bearerPrefix = "bearer "

// RequireAuth wraps next with Bearer token validation. A missing token is
// 401; an invalid or expired one is 403. On success the request context
// carries the user identity for handlers.
func RequireAuth(tokens *security.TokenProvider, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearer(r)
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, "Access denied")
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			writeJSONError(w, http.StatusForbidden, "Invalid token")
			return
		}

		ctx := WithIdentity(r.Context(), claims.UserID, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractBearer returns the Bearer token from the Authorization header, or "" if missing or malformed.
func extractBearer(r *http.Request) string {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
