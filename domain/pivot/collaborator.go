package pivot

import (
	"context"
	"encoding/json"

	"gopivot/domain/core"
)

// CreateResult is the collaborator's answer to a create request: the
// assigned identifier plus the server-confirmed wire body.
type CreateResult struct {
	TableID core.TableID
	Table   json.RawMessage
}

// Collaborator is the narrow boundary to the remote spreadsheet API.
// Transport, batching, auth and retry policy all live behind it; the
// core only hands it structurally valid wire payloads. Failures
// surface as core.ErrNotFound or core.CollaboratorError.
//
// Delete is not guaranteed idempotent: deleting an already-deleted
// table reports NotFound.
type Collaborator interface {
	Create(ctx context.Context, table json.RawMessage) (CreateResult, error)
	Update(ctx context.Context, id core.TableID, table json.RawMessage) error
	Fetch(ctx context.Context, id core.TableID) (json.RawMessage, error)
	Delete(ctx context.Context, id core.TableID) error
}
