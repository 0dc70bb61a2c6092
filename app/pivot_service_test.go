package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopivot/domain/core"
	"gopivot/domain/grid"
	"gopivot/domain/pivot"
	"gopivot/ports"
)

// memRepo is an in-memory TableRepository. It is safe for the
// concurrent updates RefreshAll performs.
type memRepo struct {
	mu      sync.Mutex
	records map[core.ID]*ports.TableRecord
}

func newMemRepo() *memRepo {
	return &memRepo{records: make(map[core.ID]*ports.TableRecord)}
}

func (r *memRepo) Create(_ context.Context, rec *ports.TableRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *rec
	r.records[rec.ID] = &clone
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id core.ID) (*ports.TableRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (r *memRepo) Update(_ context.Context, rec *ports.TableRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[rec.ID]; !ok {
		return core.ErrNotFound
	}
	clone := *rec
	r.records[rec.ID] = &clone
	return nil
}

func (r *memRepo) List(_ context.Context) ([]*ports.TableRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*ports.TableRecord, 0, len(r.records))
	for _, rec := range r.records {
		clone := *rec
		out = append(out, &clone)
	}
	return out, nil
}

func (r *memRepo) Delete(_ context.Context, id core.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return core.ErrNotFound
	}
	delete(r.records, id)
	return nil
}

// stubCollaborator assigns sequential ids and serves a fixed remote
// payload. err, when set, fails every call.
type stubCollaborator struct {
	mu      sync.Mutex
	nextID  int
	remote  json.RawMessage
	err     error
	deletes []core.TableID
}

func (s *stubCollaborator) Create(_ context.Context, table json.RawMessage) (pivot.CreateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return pivot.CreateResult{}, s.err
	}
	s.nextID++
	return pivot.CreateResult{TableID: core.TableID("srv-" + string(rune('0'+s.nextID))), Table: table}, nil
}

func (s *stubCollaborator) Update(_ context.Context, _ core.TableID, _ json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stubCollaborator) Fetch(_ context.Context, _ core.TableID) (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.remote, nil
}

func (s *stubCollaborator) Delete(_ context.Context, id core.TableID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.deletes = append(s.deletes, id)
	return nil
}

func testConfig(t *testing.T) pivot.TableConfig {
	t.Helper()
	r, err := grid.ParseRange("A1", "C10")
	require.NoError(t, err)

	value, err := pivot.NewSourceColumnValue(pivot.SummarizeSum, 1)
	require.NoError(t, err)

	return pivot.TableConfig{
		SheetID:     1,
		SourceRange: &r,
		Rows:        []*pivot.Group{pivot.NewGroup("Region", r)},
		Values:      []*pivot.Value{value},
	}
}

func TestCreateTablePersistsBoundDraft(t *testing.T) {
	repo := newMemRepo()
	collab := &stubCollaborator{}
	svc := NewPivotService(repo, collab, nil)

	id, table, err := svc.CreateTable(context.Background(), "spread-1", testConfig(t))
	require.NoError(t, err)
	require.True(t, table.Bound())

	rec, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, table.ServerID(), rec.ServerTableID)
	assert.Equal(t, "spread-1", rec.SpreadsheetID)
	assert.NotEmpty(t, rec.Definition)
}

func TestCreateTableValidatesBeforePush(t *testing.T) {
	repo := newMemRepo()
	svc := NewPivotService(repo, &stubCollaborator{}, nil)

	cfg := testConfig(t)
	cfg.DataSourceID = "ds-1" // breaks the source oneof

	_, _, err := svc.CreateTable(context.Background(), "spread-1", cfg)
	assert.ErrorIs(t, err, core.ErrAmbiguousUnion)

	records, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records, "invalid draft must not be persisted")
}

func TestImportWireRejectsMalformedPayload(t *testing.T) {
	svc := NewPivotService(newMemRepo(), &stubCollaborator{}, nil)

	_, _, err := svc.ImportWire(context.Background(), "spread-1",
		json.RawMessage(`{"dataSourceId":"ds-1","valueLayout":"DIAGONAL"}`))
	assert.ErrorIs(t, err, core.ErrUnrecognizedVariant)
}

func TestUpdateTableRollsBackOnPushFailure(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	collab := &stubCollaborator{}
	svc := NewPivotService(repo, collab, nil)

	id, _, err := svc.CreateTable(ctx, "spread-1", testConfig(t))
	require.NoError(t, err)
	before, err := repo.GetByID(ctx, id)
	require.NoError(t, err)

	collab.err = core.NewTransientError(errors.New("gateway timeout"))
	_, err = svc.UpdateTable(ctx, id, func(t *pivot.Table) error {
		t.Layout = pivot.LayoutVertical
		return nil
	})
	require.Error(t, err)
	assert.True(t, core.IsTransient(err))

	after, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(before.Definition), string(after.Definition),
		"stored definition must be untouched after a failed push")
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestUpdateTablePersistsOnSuccess(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewPivotService(repo, &stubCollaborator{}, nil)

	id, _, err := svc.CreateTable(ctx, "spread-1", testConfig(t))
	require.NoError(t, err)

	updated, err := svc.UpdateTable(ctx, id, func(t *pivot.Table) error {
		t.Layout = pivot.LayoutVertical
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, pivot.LayoutVertical, updated.Layout)

	stored, err := svc.GetTable(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, pivot.LayoutVertical, stored.Layout)
}

func TestDeleteTableRemovesRemoteAndLocal(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	collab := &stubCollaborator{}
	svc := NewPivotService(repo, collab, nil)

	id, table, err := svc.CreateTable(ctx, "spread-1", testConfig(t))
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTable(ctx, id))
	assert.Equal(t, []core.TableID{table.ServerID()}, collab.deletes)

	_, err = repo.GetByID(ctx, id)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRefreshAllPullsBoundTables(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	collab := &stubCollaborator{remote: json.RawMessage(`{"dataSourceId":"ds-remote"}`)}
	svc := NewPivotService(repo, collab, nil)

	for i := 0; i < 3; i++ {
		_, _, err := svc.CreateTable(ctx, "spread-1", testConfig(t))
		require.NoError(t, err)
	}
	// An unbound draft is skipped, not refreshed.
	require.NoError(t, repo.Create(ctx, &ports.TableRecord{
		ID:         core.NewID(),
		Definition: json.RawMessage(`{"dataSourceId":"ds-local"}`),
	}))

	count, err := svc.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	records, err := repo.List(ctx)
	require.NoError(t, err)
	pulled := 0
	for _, rec := range records {
		table, err := pivot.Rehydrate(rec.Definition, rec.ServerTableID)
		require.NoError(t, err)
		if table.DataSourceID == "ds-remote" {
			pulled++
		}
	}
	assert.Equal(t, 3, pulled)
}
