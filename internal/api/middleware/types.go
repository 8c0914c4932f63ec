package middleware

// Context keys for middleware data storage
type contextKey string

const (
	// RequestIDContextKey is the context key for the raw request id
	// (header value, or a generated one if the header was absent).
	RequestIDContextKey contextKey = "request_id"

	// CorrelationIDContextKey is the context key for the request's
	// parsed uuid.UUID correlation id, the same vocabulary
	// pkg/sensor.Event.CorrelationID uses.
	CorrelationIDContextKey contextKey = "correlation_id"

	// UserContextKey is the context key for the authenticated caller,
	// set by AuthMiddleware.
	UserContextKey contextKey = "user"
)

// HTTP headers
const (
	// RequestIDHeader is the header name for request ID
	RequestIDHeader = "X-Request-ID"

	// AuthorizationHeader is the header name for authorization
	AuthorizationHeader = "Authorization"

	// RateLimitLimitHeader prefix for rate limit headers
	RateLimitLimitHeader     = "X-RateLimit-Limit"
	RateLimitRemainingHeader = "X-RateLimit-Remaining"
	RateLimitResetHeader     = "X-RateLimit-Reset"
)

// User represents an authenticated API key holder. There is no role
// hierarchy: the admin API is a single trust tier, reachable to anyone
// holding one of the configured keys.
type User struct {
	ID     string
	APIKey string
}
