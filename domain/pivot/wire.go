package pivot

import (
	"encoding/json"
	"fmt"

	"gopivot/domain/core"
	"gopivot/domain/grid"
)

// Wire structs mirror the remote schema field for field. The
// top-level names (source, dataSourceId, rows, columns, values,
// filterSpecs, valueLayout) are a bit-exact contract with the remote
// API; optional substructures are omitted entirely when unset.

// TableWire is the wire form of a pivot table. The server-assigned
// table id travels outside this body and is never part of it.
type TableWire struct {
	Source       *grid.GridRange   `json:"source,omitempty"`
	DataSourceID string            `json:"dataSourceId,omitempty"`
	Rows         []*GroupWire      `json:"rows,omitempty"`
	Columns      []*GroupWire      `json:"columns,omitempty"`
	Values       []*ValueWire      `json:"values,omitempty"`
	FilterSpecs  []*FilterSpecWire `json:"filterSpecs,omitempty"`
	ValueLayout  string            `json:"valueLayout,omitempty"`
}

// GroupWire is the wire form of one row/column group.
type GroupWire struct {
	Source         *grid.GridRange  `json:"source,omitempty"`
	Label          string           `json:"label,omitempty"`
	ShowTotals     bool             `json:"showTotals,omitempty"`
	RepeatHeadings bool             `json:"repeatHeadings,omitempty"`
	SortOrder      string           `json:"sortOrder,omitempty"`
	ValueBucket    *SortValueBucket `json:"valueBucket,omitempty"`
	GroupRule      *GroupRuleWire   `json:"groupRule,omitempty"`
	GroupLimit     *GroupLimit      `json:"groupLimit,omitempty"`
	ValueMetadata  []ValueMetadata  `json:"valueMetadata,omitempty"`
}

// GroupRuleWire is the rule envelope: exactly one variant key is
// present on a valid payload.
type GroupRuleWire struct {
	Manual    *ManualRuleWire    `json:"manualRule,omitempty"`
	Histogram *HistogramRuleWire `json:"histogramRule,omitempty"`
	DateTime  *DateTimeRuleWire  `json:"dateTimeRule,omitempty"`
}

type ManualRuleWire struct {
	Groups []ManualGroup `json:"groups,omitempty"`
}

type HistogramRuleWire struct {
	IntervalSize float64 `json:"intervalSize"`
	MinValue     float64 `json:"minValue"`
	MaxValue     float64 `json:"maxValue"`
}

type DateTimeRuleWire struct {
	Type string `json:"type"`
}

// ValueWire is the wire form of one aggregated measure.
type ValueWire struct {
	SummarizeFunction     string                     `json:"summarizeFunction,omitempty"`
	Name                  string                     `json:"name,omitempty"`
	CalculatedDisplayType string                     `json:"calculatedDisplayType,omitempty"`
	SourceColumnOffset    *int64                     `json:"sourceColumnOffset,omitempty"`
	Formula               string                     `json:"formula,omitempty"`
	DataSourceColumn      *DataSourceColumnReference `json:"dataSourceColumnReference,omitempty"`
}

// FilterSpecWire is the wire form of one filter.
type FilterSpecWire struct {
	FilterCriteria    FilterCriteria             `json:"filterCriteria"`
	ColumnOffsetIndex *int64                     `json:"columnOffsetIndex,omitempty"`
	DataSourceColumn  *DataSourceColumnReference `json:"dataSourceColumnReference,omitempty"`
}

// DecodeWire parses raw wire JSON into a TableWire envelope.
func DecodeWire(raw json.RawMessage) (*TableWire, error) {
	var w TableWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("decoding pivot table wire payload: %w", err)
	}
	return &w, nil
}

// validateWireUnion rejects payloads that violate the
// source/dataSourceId oneof, on both encode and decode paths.
func validateWireUnion(hasSource, hasDataSource bool) error {
	switch {
	case hasSource && hasDataSource:
		return core.NewAmbiguousUnionError("pivotTable", "both source and dataSourceId present")
	case !hasSource && !hasDataSource:
		return core.NewAmbiguousUnionError("pivotTable", "neither source nor dataSourceId present")
	}
	return nil
}
