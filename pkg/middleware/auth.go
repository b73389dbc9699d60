package middleware

import (
	"context"
	"net/http"
	"strings"

	"bookd/pkg/jwtutil"
	"bookd/pkg/logger"
)

const PrincipalIDKey contextKey = "principal_id"

// Authentication extracts the acting principal from the upstream-issued bearer
// token. The platform never authenticates users itself; it only needs a
// trustworthy principal id to resolve ownership against.
//
// Requests without an Authorization header pass through unauthenticated: the
// public booking and customer self-service surfaces share the router, and
// each service decides per operation whether a principal is required. A
// present-but-invalid token is always rejected.
func Authentication(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found {
				rejectUnauthenticated(w, log, r, "Authorization header is not a bearer token")
				return
			}

			claims, err := jwtutil.Parse(token, secret)
			if err != nil {
				rejectUnauthenticated(w, log, r, "Invalid bearer token")
				return
			}

			ctx := context.WithValue(r.Context(), PrincipalIDKey, claims.PrincipalID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalID returns the authenticated principal id from the request context,
// or "" when the request came through an unauthenticated surface.
func PrincipalID(ctx context.Context) string {
	if v := ctx.Value(PrincipalIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func rejectUnauthenticated(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Authentication failed",
		"request_id", requestID(r.Context()),
		"reason", reason,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	deny(w, http.StatusUnauthorized, "Unauthorized")
}
