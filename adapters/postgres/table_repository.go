package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gopivot/domain/core"
	"gopivot/ports"

	"github.com/jmoiron/sqlx"
)

// tableRepository implements the TableRepository interface
type tableRepository struct {
	db *sqlx.DB
}

// NewTableRepository creates a new pivot table repository
func NewTableRepository(db *sqlx.DB) ports.TableRepository {
	return &tableRepository{db: db}
}

// Create inserts a new pivot table record
func (r *tableRepository) Create(ctx context.Context, rec *ports.TableRecord) error {
	query := `INSERT INTO pivot_tables (
		id, spreadsheet_id, server_table_id, definition, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.SpreadsheetID, nullableString(rec.ServerTableID.String()),
		[]byte(rec.Definition), rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create pivot table record: %w", err)
	}
	return nil
}

// GetByID retrieves a pivot table record by its local ID
func (r *tableRepository) GetByID(ctx context.Context, id core.ID) (*ports.TableRecord, error) {
	query := `SELECT
		id, spreadsheet_id, COALESCE(server_table_id, '') as server_table_id,
		definition, created_at, updated_at
	FROM pivot_tables WHERE id = $1`

	var rec ports.TableRecord
	var serverID string
	var definition []byte

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &rec.SpreadsheetID, &serverID, &definition, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: pivot table %s", core.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pivot table record: %w", err)
	}
	rec.ServerTableID = core.TableID(serverID)
	rec.Definition = definition
	return &rec, nil
}

// Update rewrites the definition and server binding of a record
func (r *tableRepository) Update(ctx context.Context, rec *ports.TableRecord) error {
	query := `UPDATE pivot_tables SET
		server_table_id = $2, definition = $3, updated_at = $4
	WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		rec.ID, nullableString(rec.ServerTableID.String()), []byte(rec.Definition), rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update pivot table record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: pivot table %s", core.ErrNotFound, rec.ID)
	}
	return nil
}

// List returns all stored pivot table records
func (r *tableRepository) List(ctx context.Context) ([]*ports.TableRecord, error) {
	query := `SELECT
		id, spreadsheet_id, COALESCE(server_table_id, '') as server_table_id,
		definition, created_at, updated_at
	FROM pivot_tables ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pivot table records: %w", err)
	}
	defer rows.Close()

	var records []*ports.TableRecord
	for rows.Next() {
		var rec ports.TableRecord
		var serverID string
		var definition []byte
		if err := rows.Scan(&rec.ID, &rec.SpreadsheetID, &serverID, &definition,
			&rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pivot table record: %w", err)
		}
		rec.ServerTableID = core.TableID(serverID)
		rec.Definition = definition
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pivot table records: %w", err)
	}
	return records, nil
}

// Delete removes a record by its local ID
func (r *tableRepository) Delete(ctx context.Context, id core.ID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pivot_tables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pivot table record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: pivot table %s", core.ErrNotFound, id)
	}
	return nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
