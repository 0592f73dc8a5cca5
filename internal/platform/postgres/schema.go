package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is idempotent; it runs on every startup against the postgres store.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS security_types (
		id           UUID PRIMARY KEY,
		abbreviation VARCHAR(10)  NOT NULL,
		description  VARCHAR(100) NOT NULL,
		version      INTEGER      NOT NULL CHECK (version >= 1),
		created_seq  BIGSERIAL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS security_types_abbreviation_key ON security_types (abbreviation)`,
	`CREATE TABLE IF NOT EXISTS securities (
		id               UUID PRIMARY KEY,
		ticker           VARCHAR(50)  NOT NULL,
		description      VARCHAR(200) NOT NULL,
		security_type_id UUID         NOT NULL REFERENCES security_types (id) ON DELETE RESTRICT,
		version          INTEGER      NOT NULL CHECK (version >= 1),
		created_seq      BIGSERIAL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS securities_ticker_key ON securities (ticker)`,
	`CREATE INDEX IF NOT EXISTS securities_ticker_lower_idx ON securities (lower(ticker))`,
	`CREATE INDEX IF NOT EXISTS securities_security_type_id_idx ON securities (security_type_id)`,
}

// EnsureSchema creates the tables and indexes when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
