package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDMiddleware generates or extracts a request id from headers
// and adds it to the request context, both verbatim (for the header
// round-trip) and parsed into a uuid.UUID correlation id.
//
// The raw header value is preserved as-is: an upstream proxy may send
// an opaque trace id that isn't a UUID, and GetRequestID still needs
// to echo it back unchanged. CorrelationID always returns a uuid.UUID
// though — the header value if it parses as one, otherwise a freshly
// generated one — so a request can be tied to the sensor events its
// handler triggers, which carry the same correlation id type.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)

		correlationID, err := uuid.Parse(requestID)
		if err != nil {
			correlationID = uuid.New()
		}
		if requestID == "" {
			requestID = correlationID.String()
		}

		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		ctx = context.WithValue(ctx, CorrelationIDContextKey, correlationID)
		r = r.WithContext(ctx)

		w.Header().Set(RequestIDHeader, requestID)

		next.ServeHTTP(w, r)
	})
}

// GetRequestID extracts the raw request id from context.
// Returns empty string if request id is not found.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDContextKey).(string); ok {
		return id
	}
	return ""
}

// CorrelationID extracts the request's uuid.UUID correlation id from
// context. Returns uuid.Nil if RequestIDMiddleware never ran.
func CorrelationID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(CorrelationIDContextKey).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}
