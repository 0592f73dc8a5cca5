// Package security exposes the security module: versioned CRUD over securities
// and the paginated ticker search.
package security

import (
	"log/slog"

	"securitysvc/internal/security/handler"
	"securitysvc/internal/security/service"
)

// Service exposes security orchestration.
type Service = service.Service

// Handler wires HTTP endpoints to the security service.
type Handler = handler.Handler

// NewService constructs the security service.
func NewService(store service.Store, types service.TypeStore, opts ...service.Option) *Service {
	return service.New(store, types, opts...)
}

// NewHandler constructs the HTTP handler for security routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
