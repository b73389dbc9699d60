package middleware

import (
	"context"
	"net/http"
	"strconv"
)

// requestID returns the id the logging middleware attached to the context,
// or "" for requests that bypassed it.
func requestID(ctx context.Context) string {
	if v := ctx.Value(RequestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// deny terminates a request from inside the middleware chain with a minimal
// JSON body. Middleware cannot rely on pkg/http here: at this point in the
// chain there is no AppError to translate, only a status and a message.
func deny(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":` + strconv.Quote(message) + `}`))
}
