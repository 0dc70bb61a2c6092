package pivot

import (
	"encoding/json"

	"gopivot/domain/core"
	"gopivot/domain/grid"
)

// SortOrder controls how a group's buckets are ordered.
type SortOrder string

const (
	SortAscending  SortOrder = "ASCENDING"
	SortDescending SortOrder = "DESCENDING"
)

// ParseSortOrder validates a wire tag against the closed enum.
func ParseSortOrder(s string) (SortOrder, error) {
	switch so := SortOrder(s); so {
	case SortAscending, SortDescending:
		return so, nil
	}
	return "", core.NewUnrecognizedVariantError("sortOrder", s)
}

// GroupLimit caps how many buckets a group shows. ApplyOrder is the
// relative priority when several groups carry limits.
type GroupLimit struct {
	CountLimit int64 `json:"countLimit"`
	ApplyOrder int64 `json:"applyOrder"`
}

// SortValueBucket sorts a group by one of the table's values,
// tie-broken by an ordered list of opaque bucket keys.
type SortValueBucket struct {
	ValuesIndex int64             `json:"valuesIndex"`
	Buckets     []json.RawMessage `json:"buckets,omitempty"`
}

// ValueMetadata is per-value UI collapse state. It is cosmetic and
// carried through unchanged.
type ValueMetadata struct {
	Value     json.RawMessage `json:"value,omitempty"`
	Collapsed bool            `json:"collapsed,omitempty"`
}

// Group is one row or column dimension of the table. A group is owned
// exclusively by the rows or columns list of a single table; groups
// are never shared across tables.
type Group struct {
	Label          string
	Source         grid.CellRange
	Rule           GroupRule
	ShowTotals     bool
	RepeatHeadings bool
	SortOrder      SortOrder
	SortBucket     *SortValueBucket
	Limit          *GroupLimit
	Metadata       []ValueMetadata
}

// NewGroup builds a group over a source column range with the default
// ascending sort. Validity of the source relative to the owning
// table's layout is checked at table-assembly time, not here.
func NewGroup(label string, source grid.CellRange) *Group {
	return &Group{
		Label:     label,
		Source:    source,
		SortOrder: SortAscending,
	}
}

// WithRule replaces the active grouping rule wholesale. Rules are
// atomic variants; there is no partial rule mutation.
func (g *Group) WithRule(rule GroupRule) *Group {
	g.Rule = rule
	return g
}

// WithLimit sets the bucket count limit.
func (g *Group) WithLimit(countLimit, applyOrder int64) *Group {
	g.Limit = &GroupLimit{CountLimit: countLimit, ApplyOrder: applyOrder}
	return g
}

// toWire emits the group with its source as a GridRange on the given
// sheet. Unset rule, limit and sort bucket are omitted entirely,
// never emitted as null placeholders.
func (g *Group) toWire(sheetID int64) (*GroupWire, error) {
	if g.SortOrder != "" {
		if _, err := ParseSortOrder(string(g.SortOrder)); err != nil {
			return nil, err
		}
	}
	source := grid.ToGridRange(g.Source, sheetID)
	w := &GroupWire{
		Source:         &source,
		Label:          g.Label,
		ShowTotals:     g.ShowTotals,
		RepeatHeadings: g.RepeatHeadings,
		SortOrder:      string(g.SortOrder),
	}
	if g.Rule != nil {
		w.GroupRule = g.Rule.toWire()
	}
	if g.Limit != nil {
		limit := *g.Limit
		w.GroupLimit = &limit
	}
	if g.SortBucket != nil {
		bucket := *g.SortBucket
		w.ValueBucket = &bucket
	}
	if len(g.Metadata) > 0 {
		w.ValueMetadata = append([]ValueMetadata(nil), g.Metadata...)
	}
	return w, nil
}

func groupFromWire(w *GroupWire) (*Group, error) {
	g := &Group{
		Label:          w.Label,
		ShowTotals:     w.ShowTotals,
		RepeatHeadings: w.RepeatHeadings,
	}
	if w.Source == nil {
		return nil, core.NewMalformedAddressError("group.source", "missing source range")
	}
	source, err := grid.FromGridRange(*w.Source)
	if err != nil {
		return nil, err
	}
	g.Source = source

	// The wire omits defaulted enums; an absent sortOrder decodes to
	// the schema default, an unknown one is an error.
	if w.SortOrder == "" {
		g.SortOrder = SortAscending
	} else {
		so, err := ParseSortOrder(w.SortOrder)
		if err != nil {
			return nil, err
		}
		g.SortOrder = so
	}

	rule, err := ruleFromWire(w.GroupRule)
	if err != nil {
		return nil, err
	}
	g.Rule = rule

	if w.GroupLimit != nil {
		limit := *w.GroupLimit
		g.Limit = &limit
	}
	if w.ValueBucket != nil {
		bucket := *w.ValueBucket
		g.SortBucket = &bucket
	}
	if len(w.ValueMetadata) > 0 {
		g.Metadata = append([]ValueMetadata(nil), w.ValueMetadata...)
	}
	return g, nil
}

// Clone returns a deep copy.
func (g *Group) Clone() *Group {
	c := *g
	if g.Limit != nil {
		limit := *g.Limit
		c.Limit = &limit
	}
	if g.SortBucket != nil {
		bucket := *g.SortBucket
		bucket.Buckets = append([]json.RawMessage(nil), g.SortBucket.Buckets...)
		c.SortBucket = &bucket
	}
	if len(g.Metadata) > 0 {
		c.Metadata = append([]ValueMetadata(nil), g.Metadata...)
	}
	// Rule variants are value types; the interface copy is already
	// independent for histogram and date-time. Manual groups hold
	// slices and need a real copy.
	if mr, ok := g.Rule.(ManualRule); ok {
		groups := make([]ManualGroup, len(mr.Groups))
		for i, mg := range mr.Groups {
			groups[i] = ManualGroup{
				GroupName: append(json.RawMessage(nil), mg.GroupName...),
				Items:     append([]json.RawMessage(nil), mg.Items...),
			}
		}
		c.Rule = ManualRule{Groups: groups}
	}
	return &c
}
