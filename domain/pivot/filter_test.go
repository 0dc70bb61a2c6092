package pivot

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"gopivot/domain/core"
)

func TestFilterSpecUnion(t *testing.T) {
	offset := int64(3)
	tests := []struct {
		name string
		spec FilterSpec
	}{
		{name: "neither reference", spec: FilterSpec{}},
		{name: "both references", spec: FilterSpec{
			ColumnOffsetIndex: &offset,
			DataSourceColumn:  &DataSourceColumnReference{Name: "region"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.spec
			if err := f.validate(); !errors.Is(err, core.ErrAmbiguousUnion) {
				t.Errorf("validate error = %v, want ErrAmbiguousUnion", err)
			}
		})
	}
}

func TestFilterSpecConstructors(t *testing.T) {
	criteria := FilterCriteria{
		VisibleValues:    []string{"north", "south"},
		Condition:        json.RawMessage(`{"type":"NOT_BLANK"}`),
		VisibleByDefault: true,
	}

	byOffset, err := NewColumnOffsetFilter(criteria, 0)
	if err != nil {
		t.Fatalf("NewColumnOffsetFilter failed: %v", err)
	}
	if byOffset.ColumnOffsetIndex == nil || *byOffset.ColumnOffsetIndex != 0 {
		t.Errorf("ColumnOffsetIndex = %v, want 0", byOffset.ColumnOffsetIndex)
	}

	byColumn, err := NewDataSourceFilter(criteria, "region")
	if err != nil {
		t.Fatalf("NewDataSourceFilter failed: %v", err)
	}
	if byColumn.DataSourceColumn == nil || byColumn.DataSourceColumn.Name != "region" {
		t.Errorf("DataSourceColumn = %v, want region", byColumn.DataSourceColumn)
	}
}

func TestFilterSpecWireRoundTrip(t *testing.T) {
	spec, err := NewColumnOffsetFilter(FilterCriteria{
		VisibleValues:    []string{"a", "b"},
		Condition:        json.RawMessage(`{"type":"NUMBER_GREATER","values":[{"userEnteredValue":"5"}]}`),
		VisibleByDefault: true,
	}, 2)
	if err != nil {
		t.Fatalf("NewColumnOffsetFilter failed: %v", err)
	}

	w, err := spec.toWire()
	if err != nil {
		t.Fatalf("toWire failed: %v", err)
	}
	decoded, err := filterFromWire(w)
	if err != nil {
		t.Fatalf("filterFromWire failed: %v", err)
	}
	if !reflect.DeepEqual(decoded, spec) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", decoded, spec)
	}
}

func TestFilterClone(t *testing.T) {
	spec, err := NewColumnOffsetFilter(FilterCriteria{VisibleValues: []string{"x"}}, 1)
	if err != nil {
		t.Fatalf("NewColumnOffsetFilter failed: %v", err)
	}
	clone := spec.Clone()
	clone.Criteria.VisibleValues[0] = "mutated"
	*clone.ColumnOffsetIndex = 9

	if spec.Criteria.VisibleValues[0] != "x" || *spec.ColumnOffsetIndex != 1 {
		t.Errorf("clone shares storage with the original: %+v", spec)
	}
}
