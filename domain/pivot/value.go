package pivot

import (
	"fmt"

	"gopivot/domain/core"
)

// SummarizeFunction enumerates the aggregation functions a value can
// apply over its source column.
type SummarizeFunction string

const (
	SummarizeSum         SummarizeFunction = "SUM"
	SummarizeCountA      SummarizeFunction = "COUNTA"
	SummarizeCount       SummarizeFunction = "COUNT"
	SummarizeCountUnique SummarizeFunction = "COUNTUNIQUE"
	SummarizeAverage     SummarizeFunction = "AVERAGE"
	SummarizeMax         SummarizeFunction = "MAX"
	SummarizeMin         SummarizeFunction = "MIN"
	SummarizeMedian      SummarizeFunction = "MEDIAN"
	SummarizeProduct     SummarizeFunction = "PRODUCT"
	SummarizeStdDev      SummarizeFunction = "STDDEV"
	SummarizeStdDevP     SummarizeFunction = "STDDEVP"
	SummarizeVar         SummarizeFunction = "VAR"
	SummarizeVarP        SummarizeFunction = "VARP"
	SummarizeCustom      SummarizeFunction = "CUSTOM"
)

var summarizeFunctions = map[SummarizeFunction]bool{
	SummarizeSum: true, SummarizeCountA: true, SummarizeCount: true,
	SummarizeCountUnique: true, SummarizeAverage: true, SummarizeMax: true,
	SummarizeMin: true, SummarizeMedian: true, SummarizeProduct: true,
	SummarizeStdDev: true, SummarizeStdDevP: true, SummarizeVar: true,
	SummarizeVarP: true, SummarizeCustom: true,
}

// ParseSummarizeFunction validates a wire tag against the closed enum.
func ParseSummarizeFunction(s string) (SummarizeFunction, error) {
	fn := SummarizeFunction(s)
	if !summarizeFunctions[fn] {
		return "", core.NewUnrecognizedVariantError("summarizeFunction", s)
	}
	return fn, nil
}

// DisplayTransform is the optional percent-of display applied to an
// aggregated value.
type DisplayTransform string

const (
	PercentOfRowTotal    DisplayTransform = "PERCENT_OF_ROW_TOTAL"
	PercentOfColumnTotal DisplayTransform = "PERCENT_OF_COLUMN_TOTAL"
	PercentOfGrandTotal  DisplayTransform = "PERCENT_OF_GRAND_TOTAL"
)

// ParseDisplayTransform validates a wire tag against the closed enum.
func ParseDisplayTransform(s string) (DisplayTransform, error) {
	switch dt := DisplayTransform(s); dt {
	case PercentOfRowTotal, PercentOfColumnTotal, PercentOfGrandTotal:
		return dt, nil
	}
	return "", core.NewUnrecognizedVariantError("calculatedDisplayType", s)
}

// DataSourceColumnReference points into a detached data source instead
// of the table's inline source range.
type DataSourceColumnReference struct {
	Name string `json:"name"`
}

// Value is one aggregated measure of the table. Its source is a
// oneof: a column offset into the table's source range, a computed
// formula, or a data-source column reference. Exactly one must be
// set.
type Value struct {
	Summarize        SummarizeFunction
	Name             string
	DisplayTransform DisplayTransform

	// Oneof source; SourceColumnOffset is a pointer so offset 0
	// (the first column) stays distinct from absent.
	SourceColumnOffset *int64
	Formula            string
	DataSourceColumn   *DataSourceColumnReference
}

// NewSourceColumnValue builds a measure over a column of the table's
// inline source range.
func NewSourceColumnValue(fn SummarizeFunction, offset int64) (*Value, error) {
	if _, err := ParseSummarizeFunction(string(fn)); err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, fmt.Errorf("%w: sourceColumnOffset %d must be non-negative",
			core.ErrInvalidNumericRange, offset)
	}
	off := offset
	return &Value{Summarize: fn, SourceColumnOffset: &off}, nil
}

// NewFormulaValue builds a computed measure. The formula text is
// opaque to the codec.
func NewFormulaValue(fn SummarizeFunction, formula string) (*Value, error) {
	if _, err := ParseSummarizeFunction(string(fn)); err != nil {
		return nil, err
	}
	if formula == "" {
		return nil, core.NewAmbiguousUnionError("value.formula", "formula cannot be empty")
	}
	return &Value{Summarize: fn, Formula: formula}, nil
}

// NewDataSourceColumnValue builds a measure over a detached
// data-source column.
func NewDataSourceColumnValue(fn SummarizeFunction, column string) (*Value, error) {
	if _, err := ParseSummarizeFunction(string(fn)); err != nil {
		return nil, err
	}
	return &Value{Summarize: fn, DataSourceColumn: &DataSourceColumnReference{Name: column}}, nil
}

// validate re-checks the oneof before the value is emitted.
func (v *Value) validate() error {
	set := 0
	if v.SourceColumnOffset != nil {
		set++
	}
	if v.Formula != "" {
		set++
	}
	if v.DataSourceColumn != nil {
		set++
	}
	if set != 1 {
		return core.NewAmbiguousUnionError("value",
			"exactly one of sourceColumnOffset, formula, dataSourceColumnReference must be set")
	}
	if v.SourceColumnOffset != nil && *v.SourceColumnOffset < 0 {
		return fmt.Errorf("%w: sourceColumnOffset %d must be non-negative",
			core.ErrInvalidNumericRange, *v.SourceColumnOffset)
	}
	if _, err := ParseSummarizeFunction(string(v.Summarize)); err != nil {
		return err
	}
	if v.DisplayTransform != "" {
		if _, err := ParseDisplayTransform(string(v.DisplayTransform)); err != nil {
			return err
		}
	}
	return nil
}

func (v *Value) toWire() (*ValueWire, error) {
	if err := v.validate(); err != nil {
		return nil, err
	}
	w := &ValueWire{
		SummarizeFunction:     string(v.Summarize),
		Name:                  v.Name,
		CalculatedDisplayType: string(v.DisplayTransform),
		Formula:               v.Formula,
		DataSourceColumn:      v.DataSourceColumn,
	}
	if v.SourceColumnOffset != nil {
		off := *v.SourceColumnOffset
		w.SourceColumnOffset = &off
	}
	return w, nil
}

func valueFromWire(w *ValueWire) (*Value, error) {
	fn, err := ParseSummarizeFunction(w.SummarizeFunction)
	if err != nil {
		return nil, err
	}
	v := &Value{
		Summarize: fn,
		Name:      w.Name,
		Formula:   w.Formula,
	}
	if w.CalculatedDisplayType != "" {
		dt, err := ParseDisplayTransform(w.CalculatedDisplayType)
		if err != nil {
			return nil, err
		}
		v.DisplayTransform = dt
	}
	if w.SourceColumnOffset != nil {
		off := *w.SourceColumnOffset
		v.SourceColumnOffset = &off
	}
	if w.DataSourceColumn != nil {
		ref := *w.DataSourceColumn
		v.DataSourceColumn = &ref
	}
	if err := v.validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Clone returns a deep copy.
func (v *Value) Clone() *Value {
	c := *v
	if v.SourceColumnOffset != nil {
		off := *v.SourceColumnOffset
		c.SourceColumnOffset = &off
	}
	if v.DataSourceColumn != nil {
		ref := *v.DataSourceColumn
		c.DataSourceColumn = &ref
	}
	return &c
}
