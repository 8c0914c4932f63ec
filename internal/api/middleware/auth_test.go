package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		enabled        bool
		authHeader     string
		expectedStatus int
	}{
		{
			name:           "disabled auth passes everything through",
			enabled:        false,
			authHeader:     "",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "missing header rejected when enabled",
			enabled:        true,
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong scheme rejected",
			enabled:        true,
			authHeader:     "Bearer some-token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown key rejected",
			enabled:        true,
			authHeader:     "ApiKey not-a-real-key",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "valid key accepted",
			enabled:        true,
			authHeader:     "ApiKey good-key",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := AuthConfig{
				Enabled: tt.enabled,
				APIKeys: map[string]*User{
					"good-key": {ID: "op-1", APIKey: "good-key"},
				},
			}

			handler := AuthMiddleware(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/api/channels", nil)
			if tt.authHeader != "" {
				req.Header.Set(AuthorizationHeader, tt.authHeader)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
		})
	}
}

func TestAuthMiddlewareAddsUserToContext(t *testing.T) {
	config := AuthConfig{
		Enabled: true,
		APIKeys: map[string]*User{"good-key": {ID: "op-1", APIKey: "good-key"}},
	}

	var seen *User
	handler := AuthMiddleware(config)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := GetUser(r.Context())
		if !ok {
			t.Error("expected user in context")
		}
		seen = u
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/channels", nil)
	req.Header.Set(AuthorizationHeader, "ApiKey good-key")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen == nil || seen.ID != "op-1" {
		t.Errorf("expected user op-1 in context, got %+v", seen)
	}
}
