package api

import (
	"context"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const contextKeyCorrelationID contextKey = "correlation_id"

// correlationIDHeader carries the request correlation ID on the wire.
const correlationIDHeader = "X-Correlation-Id"

// correlationID attaches a correlation ID to every request. Incoming IDs
// are trusted and echoed back; otherwise a fresh one is generated.
func (s *Server) correlationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(correlationIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(correlationIDHeader, id)
		ctx := context.WithValue(r.Context(), contextKeyCorrelationID, id)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getCorrelationID extracts the correlation ID from request context.
// Returns empty string if not set.
func getCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyCorrelationID).(string); ok {
		return id
	}
	return ""
}

// requestLogger logs one structured line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		s.logger.Info("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"correlation_id", getCorrelationID(r.Context()),
		)
	})
}

// authRateLimit throttles the credential endpoints per client address.
// Other routes pass through untouched; they are protected by token auth.
func (s *Server) authRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/auth/") {
			next.ServeHTTP(w, r)
			return
		}

		if !s.authLimiter.Allow(clientAddr(r)) {
			s.logger.Warn("Rate limit exceeded",
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"correlation_id", getCorrelationID(r.Context()),
			)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"code":"RATE_LIMITED","message":"too many requests"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientAddr returns the client IP without the port. RealIP runs
// earlier in the chain, so proxied requests carry the original address.
func clientAddr(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// recoverer converts panics into 500 responses. The panic value and
// stack stay in the logs; the client only sees a generic error.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				s.logger.Error("Panic recovered",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"correlation_id", getCorrelationID(r.Context()),
					"stack", string(debug.Stack()),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"code":"INTERNAL","message":"internal server error"}`))
			}
		}()

		next.ServeHTTP(w, r)
	})
}
