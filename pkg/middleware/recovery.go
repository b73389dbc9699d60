package middleware

import (
	"net/http"
	"runtime/debug"

	"bookd/pkg/logger"
)

// Recovery is the outermost layer of the chain: a panic anywhere below it
// becomes a logged 500 instead of a dropped connection.
func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				log.Error("Panic recovered",
					"request_id", requestID(r.Context()),
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				deny(w, http.StatusInternalServerError, "internal error")
			}()

			next.ServeHTTP(w, r)
		})
	}
}
