package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"securitysvc/internal/platform/postgres"
	"securitysvc/internal/securitytype/models"
	id "securitysvc/pkg/domain"
	"securitysvc/pkg/platform/sentinel"
)

// PostgresStore persists security types in PostgreSQL.
// This store is pure I/O; version arithmetic happens in the conditional UPDATE.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed security type store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `id, abbreviation, description, version`

func (s *PostgresStore) Create(ctx context.Context, t *models.SecurityType) error {
	query := `
		INSERT INTO security_types (id, abbreviation, description, version)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, uuid.UUID(t.ID), t.Abbreviation, t.Description, t.Version)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return fmt.Errorf("create security type: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create security type: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, typeID id.SecurityTypeID) (*models.SecurityType, error) {
	query := `SELECT ` + selectColumns + ` FROM security_types WHERE id = $1`
	t, err := scanSecurityType(s.db.QueryRowContext(ctx, query, uuid.UUID(typeID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find security type: %w", err)
	}
	return t, nil
}

func (s *PostgresStore) FindByIDs(ctx context.Context, ids []id.SecurityTypeID) (map[id.SecurityTypeID]*models.SecurityType, error) {
	out := make(map[id.SecurityTypeID]*models.SecurityType, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, typeID := range ids {
		keys[i] = typeID.String()
	}
	query := `SELECT ` + selectColumns + ` FROM security_types WHERE id = ANY($1::uuid[])`
	rows, err := s.db.QueryContext(ctx, query, pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("find security types: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		t, err := scanSecurityType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan security type: %w", err)
		}
		out[t.ID] = t
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate security types: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.SecurityType, error) {
	query := `SELECT ` + selectColumns + ` FROM security_types ORDER BY created_seq`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list security types: %w", err)
	}
	defer rows.Close()
	var out []*models.SecurityType
	for rows.Next() {
		t, err := scanSecurityType(rows)
		if err != nil {
			return nil, fmt.Errorf("scan security type: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate security types: %w", err)
	}
	return out, nil
}

// UpdateIfVersion is a single compare-and-swap UPDATE. When no row matches,
// a follow-up read tells a missing document from a stale version.
func (s *PostgresStore) UpdateIfVersion(ctx context.Context, t *models.SecurityType, expectedVersion int) (*models.SecurityType, error) {
	query := `
		UPDATE security_types
		SET abbreviation = $2, description = $3, version = version + 1
		WHERE id = $1 AND version = $4
		RETURNING ` + selectColumns
	updated, err := scanSecurityType(s.db.QueryRowContext(ctx, query,
		uuid.UUID(t.ID), t.Abbreviation, t.Description, expectedVersion))
	if err == nil {
		return updated, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.missOrMismatch(ctx, t.ID)
	}
	if postgres.IsUniqueViolation(err) {
		return nil, fmt.Errorf("update security type: %w", sentinel.ErrAlreadyUsed)
	}
	return nil, fmt.Errorf("update security type: %w", err)
}

// DeleteIfVersion deletes the row when its version matches. Rows still
// referenced by securities are protected by the foreign key.
func (s *PostgresStore) DeleteIfVersion(ctx context.Context, typeID id.SecurityTypeID, expectedVersion int) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM security_types WHERE id = $1 AND version = $2`,
		uuid.UUID(typeID), expectedVersion)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return fmt.Errorf("delete security type: %w", sentinel.ErrStillReferenced)
		}
		return fmt.Errorf("delete security type: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete security type rows affected: %w", err)
	}
	if rows == 0 {
		return s.missOrMismatch(ctx, typeID)
	}
	return nil
}

func (s *PostgresStore) missOrMismatch(ctx context.Context, typeID id.SecurityTypeID) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM security_types WHERE id = $1)`, uuid.UUID(typeID)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check security type: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrVersionMismatch
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSecurityType(row rowScanner) (*models.SecurityType, error) {
	var (
		rawID uuid.UUID
		t     models.SecurityType
	)
	if err := row.Scan(&rawID, &t.Abbreviation, &t.Description, &t.Version); err != nil {
		return nil, err
	}
	t.ID = id.SecurityTypeID(rawID)
	return &t, nil
}
