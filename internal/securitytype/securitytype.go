// Package securitytype exposes the security type module: versioned CRUD over
// the classifications securities reference.
package securitytype

import (
	"log/slog"

	"securitysvc/internal/securitytype/handler"
	"securitysvc/internal/securitytype/service"
)

// Service exposes security type orchestration.
type Service = service.Service

// Handler wires HTTP endpoints to the security type service.
type Handler = handler.Handler

// NewService constructs the security type service.
func NewService(store service.Store, opts ...service.Option) *Service {
	return service.New(store, opts...)
}

// NewHandler constructs the HTTP handler for security type routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
