package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// EnsureSchema creates the pivot table storage schema if it does not
// exist yet. Runs at startup before the server accepts traffic.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS pivot_tables (
			id UUID PRIMARY KEY,
			spreadsheet_id TEXT NOT NULL,
			server_table_id TEXT,
			definition JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to create pivot_tables table: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_pivot_tables_server_id
		ON pivot_tables (server_table_id) WHERE server_table_id IS NOT NULL`)
	if err != nil {
		return fmt.Errorf("failed to create pivot_tables index: %w", err)
	}
	return nil
}
