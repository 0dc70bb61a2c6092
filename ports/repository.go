package ports

import (
	"context"
	"encoding/json"
	"time"

	"gopivot/domain/core"
)

// TableRecord is the persisted form of a pivot table draft: the wire
// definition plus local bookkeeping. ServerTableID stays empty until
// the remote side confirms creation.
type TableRecord struct {
	ID            core.ID
	SpreadsheetID string
	ServerTableID core.TableID
	Definition    json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableRepository persists pivot table drafts and their bound remote
// identifiers.
type TableRepository interface {
	Create(ctx context.Context, rec *TableRecord) error
	GetByID(ctx context.Context, id core.ID) (*TableRecord, error)
	Update(ctx context.Context, rec *TableRecord) error
	List(ctx context.Context) ([]*TableRecord, error)
	Delete(ctx context.Context, id core.ID) error
}
