package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
)

// gzipResponseWriter wraps http.ResponseWriter to compress response
type gzipResponseWriter struct {
	io.Writer
	http.ResponseWriter
}

func (w gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

// CompressionMiddleware gzips the response body whenever the client
// sends Accept-Encoding: gzip. It does not gate on response size —
// the admin API's responses (channel lists, metrics snapshots) are
// small JSON bodies where the gzip framing overhead isn't worth a
// separate buffering pass to measure first. Must not wrap the sensor
// websocket route: a gzip.Writer-wrapped ResponseWriter doesn't
// implement http.Hijacker, which Upgrade requires.
func CompressionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check if client accepts gzip
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		// Create gzip writer
		gz := gzip.NewWriter(w)
		defer gz.Close()

		// Set content encoding header
		w.Header().Set("Content-Encoding", "gzip")

		// Wrap response writer
		gzw := gzipResponseWriter{Writer: gz, ResponseWriter: w}
		next.ServeHTTP(gzw, r)
	})
}
