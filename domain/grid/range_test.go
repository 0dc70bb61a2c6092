package grid

import (
	"errors"
	"testing"

	"gopivot/domain/core"
)

func mustRange(t *testing.T, start, end string) CellRange {
	t.Helper()
	r, err := ParseRange(start, end)
	if err != nil {
		t.Fatalf("ParseRange(%q,%q) failed: %v", start, end, err)
	}
	return r
}

func TestToGridRange(t *testing.T) {
	// The conversion is asymmetric: start shifts down by one, end is
	// carried unchanged.
	r := mustRange(t, "A1", "A6")
	g := ToGridRange(r, 42)

	want := GridRange{SheetID: 42, StartRowIndex: 0, EndRowIndex: 6, StartColumnIndex: 0, EndColumnIndex: 1}
	if g != want {
		t.Errorf("ToGridRange = %+v, want %+v", g, want)
	}
}

func TestGridRangeRoundTrip(t *testing.T) {
	ranges := [][2]string{
		{"A1", "A6"},
		{"B2", "D10"},
		{"A1", "A1"},
		{"AA10", "AZ99"},
		{"C5", "C5"},
	}
	for _, pair := range ranges {
		r := mustRange(t, pair[0], pair[1])
		for _, sheetID := range []int64{0, 7, 42} {
			back, err := FromGridRange(ToGridRange(r, sheetID))
			if err != nil {
				t.Fatalf("FromGridRange(ToGridRange(%v, %d)) failed: %v", r, sheetID, err)
			}
			if back != r {
				t.Errorf("round trip of %v on sheet %d = %v", r, sheetID, back)
			}
		}
	}
}

func TestNewCellRangeNormalizes(t *testing.T) {
	start, _ := ParseAddress("D10")
	end, _ := ParseAddress("B2")
	r, err := NewCellRange(start, end)
	if err != nil {
		t.Fatalf("NewCellRange failed: %v", err)
	}
	if r.Start.Label() != "B2" || r.End.Label() != "D10" {
		t.Errorf("normalized range = %v, want B2:D10", r)
	}
	if r.Rows() != 9 || r.Cols() != 3 {
		t.Errorf("Rows/Cols = %d/%d, want 9/3", r.Rows(), r.Cols())
	}
}

func TestFromGridRangeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		g    GridRange
	}{
		{name: "negative start row", g: GridRange{StartRowIndex: -1, EndRowIndex: 3, StartColumnIndex: 0, EndColumnIndex: 1}},
		{name: "zero end column", g: GridRange{StartRowIndex: 0, EndRowIndex: 3, StartColumnIndex: 0, EndColumnIndex: 0}},
		{name: "inverted rows", g: GridRange{StartRowIndex: 5, EndRowIndex: 2, StartColumnIndex: 0, EndColumnIndex: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromGridRange(tt.g); !errors.Is(err, core.ErrMalformedAddress) {
				t.Errorf("FromGridRange(%+v) error = %v, want ErrMalformedAddress", tt.g, err)
			}
		})
	}
}
