// Package version tags requests with the API version of the subrouter that
// matched them.
package version

import (
	"net/http"

	id "securitysvc/pkg/domain"
	"securitysvc/pkg/requestcontext"
)

// HeaderAPIVersion carries the serving API version on every versioned response.
const HeaderAPIVersion = "X-API-Version"

// Tag stores v in the request context and echoes it on the response. Mount it
// on the subrouter for v's prefix; audit events read the version back from ctx.
func Tag(v id.APIVersion) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(HeaderAPIVersion, v.String())
			next.ServeHTTP(w, r.WithContext(requestcontext.WithAPIVersion(r.Context(), v)))
		})
	}
}
