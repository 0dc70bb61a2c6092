package pivot

import (
	"encoding/json"

	"gopivot/domain/core"
)

// FilterCriteria describes which values of the filtered column stay
// visible. Condition is an opaque boolean-expression descriptor and
// round-trips byte-for-byte.
type FilterCriteria struct {
	VisibleValues    []string        `json:"visibleValues,omitempty"`
	Condition        json.RawMessage `json:"condition,omitempty"`
	VisibleByDefault bool            `json:"visibleByDefault,omitempty"`
}

// FilterSpec applies criteria to one source column. The column
// reference is a oneof: an offset into the inline source range, or a
// reference into a detached data source. Exactly one must be set.
type FilterSpec struct {
	Criteria FilterCriteria

	ColumnOffsetIndex *int64
	DataSourceColumn  *DataSourceColumnReference
}

// NewColumnOffsetFilter builds a filter over an inline source column.
func NewColumnOffsetFilter(criteria FilterCriteria, offset int64) (*FilterSpec, error) {
	off := offset
	f := &FilterSpec{Criteria: criteria, ColumnOffsetIndex: &off}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// NewDataSourceFilter builds a filter over a detached data-source
// column.
func NewDataSourceFilter(criteria FilterCriteria, column string) (*FilterSpec, error) {
	f := &FilterSpec{
		Criteria:         criteria,
		DataSourceColumn: &DataSourceColumnReference{Name: column},
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// validate enforces the column-reference oneof: never both, never
// neither.
func (f *FilterSpec) validate() error {
	if (f.ColumnOffsetIndex != nil) == (f.DataSourceColumn != nil) {
		return core.NewAmbiguousUnionError("filterSpec",
			"exactly one of columnOffsetIndex, dataSourceColumnReference must be set")
	}
	return nil
}

func (f *FilterSpec) toWire() (*FilterSpecWire, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	w := &FilterSpecWire{
		FilterCriteria:   f.Criteria,
		DataSourceColumn: f.DataSourceColumn,
	}
	if f.ColumnOffsetIndex != nil {
		off := *f.ColumnOffsetIndex
		w.ColumnOffsetIndex = &off
	}
	return w, nil
}

func filterFromWire(w *FilterSpecWire) (*FilterSpec, error) {
	f := &FilterSpec{Criteria: w.FilterCriteria}
	if w.ColumnOffsetIndex != nil {
		off := *w.ColumnOffsetIndex
		f.ColumnOffsetIndex = &off
	}
	if w.DataSourceColumn != nil {
		ref := *w.DataSourceColumn
		f.DataSourceColumn = &ref
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Clone returns a deep copy.
func (f *FilterSpec) Clone() *FilterSpec {
	c := *f
	if f.ColumnOffsetIndex != nil {
		off := *f.ColumnOffsetIndex
		c.ColumnOffsetIndex = &off
	}
	if f.DataSourceColumn != nil {
		ref := *f.DataSourceColumn
		c.DataSourceColumn = &ref
	}
	if f.Criteria.VisibleValues != nil {
		c.Criteria.VisibleValues = append([]string(nil), f.Criteria.VisibleValues...)
	}
	if f.Criteria.Condition != nil {
		c.Criteria.Condition = append(json.RawMessage(nil), f.Criteria.Condition...)
	}
	return &c
}
