package middleware

import (
	"mime"
	"net/http"

	"bookd/pkg/logger"
)

// ContentTypeValidation rejects mutating requests whose body is not declared
// as JSON. GET and DELETE carry no body and pass through untouched.
func ContentTypeValidation(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch:
			default:
				next.ServeHTTP(w, r)
				return
			}

			declared := r.Header.Get("Content-Type")
			mediaType, _, err := mime.ParseMediaType(declared)
			if err != nil || mediaType != "application/json" {
				log.Warn("Invalid Content-Type header",
					"request_id", requestID(r.Context()),
					"content_type", declared,
					"path", r.URL.Path,
					"method", r.Method,
				)
				deny(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
