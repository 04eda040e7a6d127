// Package middleware provides the HTTP middleware stack for the
// MoodCast API.
package middleware

import (
	"context"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"moodcast/internal/logging"
)

// RequestLogger logs one line per request with a trace ID that is also
// propagated through the request context and the X-Request-ID header.
type RequestLogger struct {
	logger logging.Logger
}

// NewRequestLogger creates the logging middleware. A nil logger
// disables output but still assigns trace IDs.
func NewRequestLogger(logger logging.Logger) *RequestLogger {
	if logger == nil {
		logger = logging.NewNoOpLogger()
	}
	return &RequestLogger{logger: logger.WithComponent("api")}
}

// Handler returns the middleware handler.
func (rl *RequestLogger) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := context.WithValue(r.Context(), logging.TraceIDKey, requestID)
			r = r.WithContext(ctx)
			w.Header().Set("X-Request-ID", requestID)

			// The chi wrapper keeps Hijacker support intact for the
			// WebSocket upgrade path.
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if skipLogging(r.URL.Path) {
				return
			}

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			duration := time.Since(start)
			logger := rl.logger.WithTraceID(requestID)
			fields := []interface{}{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration_ms", duration.Milliseconds(),
				"remote_addr", r.RemoteAddr,
			}
			switch {
			case status >= 500:
				logger.Error("Request failed", fields...)
			case status >= 400:
				logger.Warn("Request rejected", fields...)
			default:
				logger.Info("Request served", fields...)
			}
		})
	}
}

// skipLogging drops health probe noise from the request log.
func skipLogging(path string) bool {
	switch path {
	case "/ping", "/health", "/liveness", "/readiness",
		"/api/v1/health", "/api/v1/liveness", "/api/v1/readiness":
		return true
	}
	return false
}

// GetRequestID extracts the request trace ID from a context.
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(logging.TraceIDKey).(string); ok {
		return requestID
	}
	return ""
}
