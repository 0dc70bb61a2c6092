package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"gopivot/domain/core"
	"gopivot/domain/pivot"
	"gopivot/internal"
	"gopivot/ports"

	"golang.org/x/sync/errgroup"
)

// PivotService orchestrates pivot table lifecycle: local drafts in
// the repository, remote state through the collaborator. Mutations
// are applied to a scratch copy and swapped in only after the remote
// side accepts them, so a failed push never leaves partially-applied
// state behind.
type PivotService struct {
	repo        ports.TableRepository
	collab      pivot.Collaborator
	logger      *internal.Logger
	refreshFans int
}

// NewPivotService creates a new pivot service
func NewPivotService(repo ports.TableRepository, collab pivot.Collaborator, logger *internal.Logger) *PivotService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &PivotService{
		repo:        repo,
		collab:      collab,
		logger:      logger,
		refreshFans: 4,
	}
}

// CreateTable builds a table from the config, pushes it to the
// collaborator and persists the bound draft. Validation failures
// surface before any network call.
func (s *PivotService) CreateTable(ctx context.Context, spreadsheetID string, cfg pivot.TableConfig) (core.ID, *pivot.Table, error) {
	table, err := pivot.Build(cfg)
	if err != nil {
		return "", nil, err
	}
	if err := table.Push(ctx, s.collab); err != nil {
		return "", nil, err
	}

	raw, err := table.MarshalWire()
	if err != nil {
		return "", nil, err
	}
	now := time.Now().UTC()
	rec := &ports.TableRecord{
		ID:            core.NewID(),
		SpreadsheetID: spreadsheetID,
		ServerTableID: table.ServerID(),
		Definition:    raw,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return "", nil, fmt.Errorf("persisting pivot table draft: %w", err)
	}
	s.logger.Info("created pivot table %s (remote id %s)", rec.ID, table.ServerID())
	return rec.ID, table, nil
}

// ImportWire decodes an externally supplied wire definition, pushes
// it, and persists the bound draft. The decode enforces every codec
// invariant before anything leaves the process.
func (s *PivotService) ImportWire(ctx context.Context, spreadsheetID string, raw json.RawMessage) (core.ID, *pivot.Table, error) {
	table, err := pivot.UnmarshalWire(raw)
	if err != nil {
		return "", nil, err
	}
	if err := table.Push(ctx, s.collab); err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	rec := &ports.TableRecord{
		ID:            core.NewID(),
		SpreadsheetID: spreadsheetID,
		ServerTableID: table.ServerID(),
		Definition:    raw,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return "", nil, fmt.Errorf("persisting pivot table draft: %w", err)
	}
	s.logger.Info("imported pivot table %s (remote id %s)", rec.ID, table.ServerID())
	return rec.ID, table, nil
}

// ListTables returns the stored drafts.
func (s *PivotService) ListTables(ctx context.Context) ([]*ports.TableRecord, error) {
	return s.repo.List(ctx)
}

// GetRecord returns one stored draft with its bookkeeping.
func (s *PivotService) GetRecord(ctx context.Context, id core.ID) (*ports.TableRecord, error) {
	return s.repo.GetByID(ctx, id)
}

// GetTable rehydrates a stored table.
func (s *PivotService) GetTable(ctx context.Context, id core.ID) (*pivot.Table, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return pivot.Rehydrate(rec.Definition, rec.ServerTableID)
}

// UpdateTable applies mutate to a scratch copy, pushes the copy, and
// persists it only on success. The stored state is untouched when the
// push fails, which is the rollback: callers simply re-read.
func (s *PivotService) UpdateTable(ctx context.Context, id core.ID, mutate func(*pivot.Table) error) (*pivot.Table, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	current, err := pivot.Rehydrate(rec.Definition, rec.ServerTableID)
	if err != nil {
		return nil, err
	}

	scratch := current.Clone()
	if err := mutate(scratch); err != nil {
		return nil, err
	}
	if err := scratch.Push(ctx, s.collab); err != nil {
		s.logger.Warn("push failed for pivot table %s, local state unchanged: %v", id, err)
		return nil, err
	}

	raw, err := scratch.MarshalWire()
	if err != nil {
		return nil, err
	}
	rec.ServerTableID = scratch.ServerID()
	rec.Definition = raw
	rec.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("persisting pivot table update: %w", err)
	}
	return scratch, nil
}

// DeleteTable deletes the remote table when one is bound, then drops
// the local draft.
func (s *PivotService) DeleteTable(ctx context.Context, id core.ID) error {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	table, err := pivot.Rehydrate(rec.Definition, rec.ServerTableID)
	if err != nil {
		return err
	}
	if table.Bound() {
		if err := table.DeleteRemote(ctx, s.collab); err != nil {
			return err
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("deleted pivot table %s", id)
	return nil
}

// RefreshAll pulls server-confirmed state for every bound table and
// persists it, replacing local drafts wholesale. Tables are refreshed
// concurrently but each entity is touched by exactly one goroutine.
func (s *PivotService) RefreshAll(ctx context.Context) (int, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.refreshFans)
	var refreshed atomic.Int64

	for _, rec := range records {
		if rec.ServerTableID.IsEmpty() {
			continue
		}
		rec := rec
		g.Go(func() error {
			table, err := pivot.Rehydrate(rec.Definition, rec.ServerTableID)
			if err != nil {
				return fmt.Errorf("rehydrating %s: %w", rec.ID, err)
			}
			if err := table.Pull(ctx, s.collab); err != nil {
				return fmt.Errorf("pulling %s: %w", rec.ID, err)
			}
			raw, err := table.MarshalWire()
			if err != nil {
				return err
			}
			rec.Definition = raw
			rec.UpdatedAt = time.Now().UTC()
			if err := s.repo.Update(ctx, rec); err != nil {
				return fmt.Errorf("persisting refresh of %s: %w", rec.ID, err)
			}
			refreshed.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	s.logger.Info("refreshed %d pivot tables", refreshed.Load())
	return int(refreshed.Load()), nil
}
