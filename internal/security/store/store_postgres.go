package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"securitysvc/internal/platform/postgres"
	"securitysvc/internal/security/models"
	id "securitysvc/pkg/domain"
	"securitysvc/pkg/platform/sentinel"
)

// PostgresStore persists securities in PostgreSQL.
// The foreign key to security_types backs reference checks at write time.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectColumns = `id, ticker, description, security_type_id, version`

func (s *PostgresStore) Create(ctx context.Context, sec *models.Security) error {
	query := `
		INSERT INTO securities (id, ticker, description, security_type_id, version)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(sec.ID), sec.Ticker, sec.Description, uuid.UUID(sec.SecurityTypeID), sec.Version)
	if err != nil {
		return fmt.Errorf("create security: %w", classify(err))
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, securityID id.SecurityID) (*models.Security, error) {
	query := `SELECT ` + selectColumns + ` FROM securities WHERE id = $1`
	sec, err := scanSecurity(s.db.QueryRowContext(ctx, query, uuid.UUID(securityID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find security: %w", err)
	}
	return sec, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Security, error) {
	query := `SELECT ` + selectColumns + ` FROM securities ORDER BY created_seq`
	return s.query(ctx, "list securities", query)
}

// filterClause renders filter as a WHERE clause whose only parameter is $1.
func filterClause(filter models.TickerFilter) (string, []any) {
	switch filter.Mode {
	case models.MatchExact:
		return ` WHERE lower(ticker) = lower($1)`, []any{filter.Value}
	case models.MatchContains:
		return ` WHERE strpos(lower(ticker), lower($1)) > 0`, []any{filter.Value}
	default:
		return ``, nil
	}
}

func (s *PostgresStore) Count(ctx context.Context, filter models.TickerFilter) (int, error) {
	where, args := filterClause(filter)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM securities`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count securities: %w", err)
	}
	return n, nil
}

// Search orders by ticker under the "C" collation so pages follow byte order
// regardless of the database locale.
func (s *PostgresStore) Search(ctx context.Context, filter models.TickerFilter, limit, offset int) ([]*models.Security, error) {
	where, args := filterClause(filter)
	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM securities%s ORDER BY ticker COLLATE "C", id LIMIT $%d OFFSET $%d`,
		selectColumns, where, n+1, n+2)
	args = append(args, limit, offset)
	out, err := s.query(ctx, "search securities", query, args...)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*models.Security{}
	}
	return out, nil
}

func (s *PostgresStore) CountBySecurityType(ctx context.Context, typeID id.SecurityTypeID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM securities WHERE security_type_id = $1`, uuid.UUID(typeID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count securities by type: %w", err)
	}
	return n, nil
}

// UpdateIfVersion is a single compare-and-swap UPDATE. When no row matches,
// a follow-up read tells a missing security from a stale version.
func (s *PostgresStore) UpdateIfVersion(ctx context.Context, sec *models.Security, expectedVersion int) (*models.Security, error) {
	query := `
		UPDATE securities
		SET ticker = $2, description = $3, security_type_id = $4, version = version + 1
		WHERE id = $1 AND version = $5
		RETURNING ` + selectColumns
	updated, err := scanSecurity(s.db.QueryRowContext(ctx, query,
		uuid.UUID(sec.ID), sec.Ticker, sec.Description, uuid.UUID(sec.SecurityTypeID), expectedVersion))
	if err == nil {
		return updated, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, s.missOrMismatch(ctx, sec.ID)
	}
	return nil, fmt.Errorf("update security: %w", classify(err))
}

func (s *PostgresStore) DeleteIfVersion(ctx context.Context, securityID id.SecurityID, expectedVersion int) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM securities WHERE id = $1 AND version = $2`,
		uuid.UUID(securityID), expectedVersion)
	if err != nil {
		return fmt.Errorf("delete security: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete security rows affected: %w", err)
	}
	if rows == 0 {
		return s.missOrMismatch(ctx, securityID)
	}
	return nil
}

func (s *PostgresStore) missOrMismatch(ctx context.Context, securityID id.SecurityID) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM securities WHERE id = $1)`, uuid.UUID(securityID)).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check security: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrVersionMismatch
}

func (s *PostgresStore) query(ctx context.Context, op, query string, args ...any) ([]*models.Security, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var out []*models.Security
	for rows.Next() {
		sec, err := scanSecurity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan security: %w", err)
		}
		out = append(out, sec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate securities: %w", err)
	}
	return out, nil
}

// classify maps constraint violations onto sentinels.
func classify(err error) error {
	switch {
	case postgres.IsUniqueViolation(err):
		return sentinel.ErrAlreadyUsed
	case postgres.IsForeignKeyViolation(err):
		return sentinel.ErrInvalidReference
	default:
		return err
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSecurity(row rowScanner) (*models.Security, error) {
	var (
		rawID, rawTypeID uuid.UUID
		sec              models.Security
	)
	if err := row.Scan(&rawID, &sec.Ticker, &sec.Description, &rawTypeID, &sec.Version); err != nil {
		return nil, err
	}
	sec.ID = id.SecurityID(rawID)
	sec.SecurityTypeID = id.SecurityTypeID(rawTypeID)
	return &sec, nil
}
