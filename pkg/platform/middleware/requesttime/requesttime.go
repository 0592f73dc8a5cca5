// Package requesttime pins one UTC timestamp per request.
package requesttime

import (
	"net/http"
	"time"

	"securitysvc/pkg/requestcontext"
)

// Middleware stamps the request context with the arrival time; audit events
// emitted while serving the request reuse it.
func Middleware(next http.Handler) http.Handler {
	return MiddlewareWithClock(time.Now)(next)
}

// MiddlewareWithClock is Middleware with an injectable clock.
func MiddlewareWithClock(now func() time.Time) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(requestcontext.WithTime(r.Context(), now().UTC())))
		})
	}
}
