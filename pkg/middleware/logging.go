package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"bookd/pkg/logger"
)

type contextKey string

// RequestIDKey carries the per-request correlation id the rest of the chain
// and the handlers log under.
const RequestIDKey contextKey = "request_id"

// statusRecorder remembers the first status written so the completion log
// can report it.
type statusRecorder struct {
	http.ResponseWriter
	status    int
	committed bool
}

func (sr *statusRecorder) WriteHeader(status int) {
	if sr.committed {
		return
	}
	sr.status = status
	sr.committed = true
	sr.ResponseWriter.WriteHeader(status)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.committed {
		sr.WriteHeader(http.StatusOK)
	}
	return sr.ResponseWriter.Write(b)
}

// RequestLogging assigns every request a random id, stores it in the context
// and logs one line on entry and one on completion with the status and
// elapsed time.
func RequestLogging(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := newRequestID()

			ctx := context.WithValue(r.Context(), RequestIDKey, id)
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			log.Info("Request received",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			next.ServeHTTP(recorder, r.WithContext(ctx))

			log.Info("Request completed",
				"request_id", id,
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

func newRequestID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
