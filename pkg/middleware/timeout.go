package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// deadlineWriter serializes handler writes against the timeout path. Exactly
// one side gets to produce the response; a handler that loses the race writes
// into the void and sees ErrHandlerTimeout.
type deadlineWriter struct {
	http.ResponseWriter
	mu       sync.Mutex
	expired  bool
	produced bool
}

func (dw *deadlineWriter) WriteHeader(code int) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.expired || dw.produced {
		return
	}
	dw.produced = true
	dw.ResponseWriter.WriteHeader(code)
}

func (dw *deadlineWriter) Write(b []byte) (int, error) {
	dw.mu.Lock()
	defer dw.mu.Unlock()

	if dw.expired {
		return 0, http.ErrHandlerTimeout
	}
	dw.produced = true
	return dw.ResponseWriter.Write(b)
}

// expire claims the response for the timeout path. Reports whether the
// handler had already produced output.
func (dw *deadlineWriter) expire() bool {
	dw.mu.Lock()
	defer dw.mu.Unlock()
	dw.expired = true
	return dw.produced
}

// RequestTimeout bounds the whole request: the context deadline propagates to
// repositories and outbound calls, and a handler that overruns it gets cut
// off with a 503.
func RequestTimeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			dw := &deadlineWriter{ResponseWriter: w}
			done := make(chan struct{})
			go func() {
				next.ServeHTTP(dw, r.WithContext(ctx))
				close(done)
			}()

			select {
			case <-done:
			case <-ctx.Done():
				if produced := dw.expire(); !produced {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusServiceUnavailable)
					_, _ = w.Write([]byte(`{"error":"request deadline exceeded"}`))
				}
			}
		})
	}
}
