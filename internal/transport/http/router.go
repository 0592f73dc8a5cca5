// Package httptransport assembles the public HTTP surface: middleware chain,
// versioned API subrouters and the metrics endpoint.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"securitysvc/internal/platform/metrics"
	"securitysvc/internal/platform/middleware"
	securityhandler "securitysvc/internal/security/handler"
	securitytypehandler "securitysvc/internal/securitytype/handler"
	id "securitysvc/pkg/domain"
	dErrors "securitysvc/pkg/domain-errors"
	"securitysvc/pkg/platform/httputil"
	"securitysvc/pkg/platform/middleware/requesttime"
	"securitysvc/pkg/platform/middleware/version"
)

// Handlers bundles the module handlers mounted under the API prefixes.
type Handlers struct {
	SecurityTypes *securitytypehandler.Handler
	Securities    *securityhandler.Handler
}

// NewRouter wires every public endpoint. The transport layer only routes; each
// handler delegates to its module service.
func NewRouter(h Handlers, reg *metrics.Registry, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(metrics.NewHTTPMetrics(reg)))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusMethodNotAllowed, httputil.ErrorResponse{
			Error:            "method_not_allowed",
			ErrorDescription: "method not allowed",
		})
	})

	r.Handle("/metrics", reg.Handler())

	r.Route(id.APIVersionV1.Prefix(), func(v1 chi.Router) {
		v1.Use(version.Tag(id.APIVersionV1))
		h.SecurityTypes.Register(v1)
		h.Securities.Register(v1)
	})
	r.Route(id.APIVersionV2.Prefix(), func(v2 chi.Router) {
		v2.Use(version.Tag(id.APIVersionV2))
		h.Securities.RegisterV2(v2)
	})
	return r
}
