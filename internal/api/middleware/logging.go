package middleware

import (
	"bufio"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	size, err := rw.ResponseWriter.Write(b)
	rw.size += size
	return size, err
}

// Hijack passes through to the underlying ResponseWriter's Hijacker,
// when it has one. LoggingMiddleware sits in front of the sensor
// websocket route too, and without this the wrapped ResponseWriter
// would stop satisfying http.Hijacker, which Upgrade requires.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("underlying ResponseWriter does not support hijacking")
	}
	return hj.Hijack()
}

// LoggingMiddleware logs HTTP requests against the admin API with
// structured logging (slog), tagged with the same correlation id that
// RequestIDMiddleware attaches to the request context and that any
// sensor events emitted while handling it will carry.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			clientIP := r.Header.Get("X-Forwarded-For")
			if clientIP == "" {
				clientIP = r.Header.Get("X-Real-IP")
			}
			if clientIP == "" {
				clientIP = r.RemoteAddr
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start)

			logger.Info("http request",
				"correlation_id", CorrelationID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"query", r.URL.RawQuery,
				"status", rw.statusCode,
				"duration_ms", duration.Milliseconds(),
				"size_bytes", rw.size,
				"client_ip", clientIP,
				"user_agent", r.UserAgent(),
			)
		})
	}
}
