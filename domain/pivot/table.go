package pivot

import (
	"context"
	"encoding/json"
	"fmt"

	"gopivot/domain/core"
	"gopivot/domain/grid"
)

// Layout is the orientation of the values section of the table.
type Layout string

const (
	LayoutHorizontal Layout = "HORIZONTAL"
	LayoutVertical   Layout = "VERTICAL"
)

// ParseLayout validates a wire tag against the closed enum.
func ParseLayout(s string) (Layout, error) {
	switch l := Layout(s); l {
	case LayoutHorizontal, LayoutVertical:
		return l, nil
	}
	return "", core.NewUnrecognizedVariantError("valueLayout", s)
}

// Table is the root pivot table entity. Its data source is a oneof:
// an inline sheet range or a detached data-source id, never both,
// never neither.
//
// The table itself is synchronous and does no locking. Concurrent
// Push/Pull/Delete against one instance is undefined and must be
// serialized by the caller; every instance is independently owned by
// its creator.
type Table struct {
	SheetID      int64
	SourceRange  *grid.CellRange
	DataSourceID core.DataSourceID

	Rows    []*Group
	Columns []*Group
	Values  []*Value
	Filters []*FilterSpec
	Layout  Layout

	// Assigned by the remote side on first successful push; never
	// part of the wire body.
	serverID core.TableID
	deleted  bool
}

// TableConfig carries the Build inputs.
type TableConfig struct {
	SheetID      int64
	SourceRange  *grid.CellRange
	DataSourceID core.DataSourceID

	Rows    []*Group
	Columns []*Group
	Values  []*Value
	Filters []*FilterSpec
	Layout  Layout
}

// Build assembles a new unbound table. Exactly one of SourceRange and
// DataSourceID must be given. List fields are copied into fresh
// slices so no two tables ever share backing storage.
func Build(cfg TableConfig) (*Table, error) {
	if err := validateWireUnion(cfg.SourceRange != nil, cfg.DataSourceID != ""); err != nil {
		return nil, err
	}
	layout := cfg.Layout
	if layout == "" {
		layout = LayoutHorizontal
	}
	if _, err := ParseLayout(string(layout)); err != nil {
		return nil, err
	}

	t := &Table{
		SheetID:      cfg.SheetID,
		DataSourceID: cfg.DataSourceID,
		Rows:         append([]*Group(nil), cfg.Rows...),
		Columns:      append([]*Group(nil), cfg.Columns...),
		Values:       append([]*Value(nil), cfg.Values...),
		Filters:      append([]*FilterSpec(nil), cfg.Filters...),
		Layout:       layout,
	}
	if cfg.SourceRange != nil {
		src := *cfg.SourceRange
		t.SourceRange = &src
	}
	return t, nil
}

// ServerID returns the remote identifier, empty while the table is
// unbound.
func (t *Table) ServerID() core.TableID {
	return t.serverID
}

// Bound reports whether the remote side has confirmed creation.
func (t *Table) Bound() bool {
	return !t.serverID.IsEmpty()
}

// Deleted reports whether the remote table has been deleted. A
// deleted table is terminal: every further operation fails.
func (t *Table) Deleted() bool {
	return t.deleted
}

// ToWire assembles the full nested wire structure. The
// source/dataSourceId oneof is re-checked here, immediately before
// emission, so a structurally invalid payload is never produced even
// if fields were mutated in place after Build.
func (t *Table) ToWire() (*TableWire, error) {
	if err := validateWireUnion(t.SourceRange != nil, t.DataSourceID != ""); err != nil {
		return nil, err
	}
	layout := t.Layout
	if layout == "" {
		layout = LayoutHorizontal
	}
	if _, err := ParseLayout(string(layout)); err != nil {
		return nil, err
	}

	w := &TableWire{
		DataSourceID: string(t.DataSourceID),
		ValueLayout:  string(layout),
	}
	if t.SourceRange != nil {
		src := grid.ToGridRange(*t.SourceRange, t.SheetID)
		w.Source = &src
	}
	for i, g := range t.Rows {
		gw, err := g.toWire(t.SheetID)
		if err != nil {
			return nil, core.WrapListElement("rows", i, err)
		}
		w.Rows = append(w.Rows, gw)
	}
	for i, g := range t.Columns {
		gw, err := g.toWire(t.SheetID)
		if err != nil {
			return nil, core.WrapListElement("columns", i, err)
		}
		w.Columns = append(w.Columns, gw)
	}
	for i, v := range t.Values {
		vw, err := v.toWire()
		if err != nil {
			return nil, core.WrapListElement("values", i, err)
		}
		w.Values = append(w.Values, vw)
	}
	for i, f := range t.Filters {
		fw, err := f.toWire()
		if err != nil {
			return nil, core.WrapListElement("filterSpecs", i, err)
		}
		w.FilterSpecs = append(w.FilterSpecs, fw)
	}
	return w, nil
}

// MarshalWire serializes the table for transmission.
func (t *Table) MarshalWire() (json.RawMessage, error) {
	w, err := t.ToWire()
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("marshaling pivot table: %w", err)
	}
	return raw, nil
}

// FromWire decodes a wire envelope into a fresh unbound table. Any
// nested element failure aborts the whole decode, wrapped with which
// list and which index produced it.
func FromWire(w *TableWire) (*Table, error) {
	if err := validateWireUnion(w.Source != nil, w.DataSourceID != ""); err != nil {
		return nil, err
	}

	t := &Table{DataSourceID: core.DataSourceID(w.DataSourceID)}
	if w.Source != nil {
		src, err := grid.FromGridRange(*w.Source)
		if err != nil {
			return nil, fmt.Errorf("source: %w", err)
		}
		t.SourceRange = &src
		t.SheetID = w.Source.SheetID
	}

	// An absent valueLayout decodes to the schema default; an unknown
	// one is an error, never a silent fallback.
	if w.ValueLayout == "" {
		t.Layout = LayoutHorizontal
	} else {
		layout, err := ParseLayout(w.ValueLayout)
		if err != nil {
			return nil, err
		}
		t.Layout = layout
	}

	for i, gw := range w.Rows {
		g, err := groupFromWire(gw)
		if err != nil {
			return nil, core.WrapListElement("rows", i, err)
		}
		t.Rows = append(t.Rows, g)
	}
	for i, gw := range w.Columns {
		g, err := groupFromWire(gw)
		if err != nil {
			return nil, core.WrapListElement("columns", i, err)
		}
		t.Columns = append(t.Columns, g)
	}
	for i, vw := range w.Values {
		v, err := valueFromWire(vw)
		if err != nil {
			return nil, core.WrapListElement("values", i, err)
		}
		t.Values = append(t.Values, v)
	}
	for i, fw := range w.FilterSpecs {
		f, err := filterFromWire(fw)
		if err != nil {
			return nil, core.WrapListElement("filterSpecs", i, err)
		}
		t.Filters = append(t.Filters, f)
	}
	return t, nil
}

// UnmarshalWire decodes raw wire JSON into a fresh unbound table.
func UnmarshalWire(raw json.RawMessage) (*Table, error) {
	w, err := DecodeWire(raw)
	if err != nil {
		return nil, err
	}
	return FromWire(w)
}

// Push sends the table to the collaborator: a create request while
// unbound, an update afterwards. On a successful create the returned
// identifier binds the table. On any failure the entity is left
// unchanged; validation always happens before the network call.
func (t *Table) Push(ctx context.Context, c Collaborator) error {
	if t.deleted {
		return fmt.Errorf("%w: push", core.ErrAlreadyDeleted)
	}
	raw, err := t.MarshalWire()
	if err != nil {
		return err
	}
	if !t.Bound() {
		res, err := c.Create(ctx, raw)
		if err != nil {
			return err
		}
		t.serverID = res.TableID
		return nil
	}
	return c.Update(ctx, t.serverID, raw)
}

// Pull fetches the current remote state and replaces the local entity
// wholesale. The server id survives the replacement; it is not part
// of the wire payload.
func (t *Table) Pull(ctx context.Context, c Collaborator) error {
	if t.deleted {
		return fmt.Errorf("%w: pull", core.ErrAlreadyDeleted)
	}
	if !t.Bound() {
		return fmt.Errorf("%w: pivot table has never been pushed", core.ErrNotFound)
	}
	raw, err := c.Fetch(ctx, t.serverID)
	if err != nil {
		return err
	}
	decoded, err := UnmarshalWire(raw)
	if err != nil {
		return err
	}
	t.Adopt(decoded)
	return nil
}

// Adopt replaces the model fields wholesale with those of other while
// keeping this entity's lifecycle state (server id, deletion flag).
func (t *Table) Adopt(other *Table) {
	id, deleted := t.serverID, t.deleted
	*t = *other
	t.serverID, t.deleted = id, deleted
}

// DeleteRemote deletes the remote table and marks this entity
// terminal. Dropping the in-memory value alone never deletes remote
// state; this call is the explicit path.
func (t *Table) DeleteRemote(ctx context.Context, c Collaborator) error {
	if t.deleted {
		return fmt.Errorf("%w: delete", core.ErrAlreadyDeleted)
	}
	if !t.Bound() {
		return fmt.Errorf("%w: pivot table has never been pushed", core.ErrNotFound)
	}
	if err := c.Delete(ctx, t.serverID); err != nil {
		return err
	}
	t.deleted = true
	return nil
}

// Clone returns a deep copy sharing no storage with the original,
// including lifecycle state. Scratch-copy mutation flows build on
// this: clone, mutate, push the clone, swap it in only on success.
func (t *Table) Clone() *Table {
	c := &Table{
		SheetID:      t.SheetID,
		DataSourceID: t.DataSourceID,
		Layout:       t.Layout,
		serverID:     t.serverID,
		deleted:      t.deleted,
	}
	if t.SourceRange != nil {
		src := *t.SourceRange
		c.SourceRange = &src
	}
	for _, g := range t.Rows {
		c.Rows = append(c.Rows, g.Clone())
	}
	for _, g := range t.Columns {
		c.Columns = append(c.Columns, g.Clone())
	}
	for _, v := range t.Values {
		c.Values = append(c.Values, v.Clone())
	}
	for _, f := range t.Filters {
		c.Filters = append(c.Filters, f.Clone())
	}
	return c
}

// bind is used when rehydrating a bound table from local persistence.
func (t *Table) bind(id core.TableID) {
	t.serverID = id
}

// Rehydrate rebuilds a table from persisted wire JSON plus a
// previously assigned server id.
func Rehydrate(raw json.RawMessage, serverID core.TableID) (*Table, error) {
	t, err := UnmarshalWire(raw)
	if err != nil {
		return nil, err
	}
	if !serverID.IsEmpty() {
		t.bind(serverID)
	}
	return t, nil
}
