package store

import (
	"context"

	"securitysvc/internal/security/models"
	id "securitysvc/pkg/domain"
)

// Store is the persistence contract shared by the memory and PostgreSQL stores.
type Store interface {
	Create(ctx context.Context, sec *models.Security) error
	FindByID(ctx context.Context, securityID id.SecurityID) (*models.Security, error)
	ListAll(ctx context.Context) ([]*models.Security, error)
	Count(ctx context.Context, filter models.TickerFilter) (int, error)
	Search(ctx context.Context, filter models.TickerFilter, limit, offset int) ([]*models.Security, error)
	CountBySecurityType(ctx context.Context, typeID id.SecurityTypeID) (int, error)
	UpdateIfVersion(ctx context.Context, sec *models.Security, expectedVersion int) (*models.Security, error)
	DeleteIfVersion(ctx context.Context, securityID id.SecurityID, expectedVersion int) error
}

var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
