package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// AuthConfig holds authentication configuration for the admin API.
// There is only one scheme: a shared API key per caller. A JWT/Bearer
// scheme isn't implemented — cmd/cyre-demo is a single-operator
// surface, and adding a token format nothing issues or verifies would
// just be an unused branch.
type AuthConfig struct {
	// APIKeys maps an API key to the caller it identifies.
	APIKeys map[string]*User

	// Enabled turns the check on. Disabled by default so a fresh
	// checkout's admin API works without any setup.
	Enabled bool
}

// AuthMiddleware validates the "Authorization: ApiKey <key>" header
// against config.APIKeys. On success it adds the matched *User to the
// request context (retrievable via GetUser). On failure it returns 401.
func AuthMiddleware(config AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !config.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get(AuthorizationHeader)
			if authHeader == "" {
				writeUnauthorized(w, r, "missing Authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "ApiKey" {
				writeUnauthorized(w, r, "expected \"Authorization: ApiKey <key>\"")
				return
			}

			user, ok := config.APIKeys[parts[1]]
			if !ok || user == nil {
				writeUnauthorized(w, r, "invalid API key")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeUnauthorized writes 401 Unauthorized response
func writeUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse := map[string]any{
		"error": map[string]any{
			"code":           "AUTHENTICATION_ERROR",
			"message":        message,
			"correlation_id": CorrelationID(r.Context()),
		},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(errorResponse)
}

// GetUser extracts the authenticated caller from context.
func GetUser(ctx context.Context) (*User, bool) {
	user, ok := ctx.Value(UserContextKey).(*User)
	return user, ok
}
