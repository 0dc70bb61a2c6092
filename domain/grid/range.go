package grid

import (
	"fmt"

	"gopivot/domain/core"
)

// CellRange is an inclusive rectangular span on one sheet, held as
// 1-indexed start/end addresses with start <= end on both axes.
type CellRange struct {
	Start CellAddress `json:"start"`
	End   CellAddress `json:"end"`
}

// NewCellRange builds a range from two addresses, swapping components
// where needed so the start/end ordering invariant holds.
func NewCellRange(start, end CellAddress) (CellRange, error) {
	if !start.Valid() {
		return CellRange{}, core.NewMalformedAddressError(start.Label(), "range start out of bounds")
	}
	if !end.Valid() {
		return CellRange{}, core.NewMalformedAddressError(end.Label(), "range end out of bounds")
	}
	if start.Row > end.Row {
		start.Row, end.Row = end.Row, start.Row
	}
	if start.Col > end.Col {
		start.Col, end.Col = end.Col, start.Col
	}
	return CellRange{Start: start, End: end}, nil
}

// ParseRange parses two A1 labels into a normalized range.
func ParseRange(startLabel, endLabel string) (CellRange, error) {
	start, err := ParseAddress(startLabel)
	if err != nil {
		return CellRange{}, err
	}
	end, err := ParseAddress(endLabel)
	if err != nil {
		return CellRange{}, err
	}
	return NewCellRange(start, end)
}

func (r CellRange) String() string {
	return fmt.Sprintf("%s:%s", r.Start.Label(), r.End.Label())
}

// Rows returns the number of rows the range spans.
func (r CellRange) Rows() int64 {
	return r.End.Row - r.Start.Row + 1
}

// Cols returns the number of columns the range spans.
func (r CellRange) Cols() int64 {
	return r.End.Col - r.Start.Col + 1
}

// GridRange is the wire form of a range: zero-indexed and half-open,
// start indices inclusive and end indices exclusive, owned by a sheet.
type GridRange struct {
	SheetID          int64 `json:"sheetId"`
	StartRowIndex    int64 `json:"startRowIndex"`
	EndRowIndex      int64 `json:"endRowIndex"`
	StartColumnIndex int64 `json:"startColumnIndex"`
	EndColumnIndex   int64 `json:"endColumnIndex"`
}

// ToGridRange converts a CellRange to wire form. The conversion is
// asymmetric on purpose: start indices shift down by one, end indices
// are carried unchanged, because an inclusive 1-indexed end equals an
// exclusive 0-indexed end. The wire schema's exclusivity is the
// authoritative contract here.
func ToGridRange(r CellRange, sheetID int64) GridRange {
	return GridRange{
		SheetID:          sheetID,
		StartRowIndex:    r.Start.Row - 1,
		EndRowIndex:      r.End.Row,
		StartColumnIndex: r.Start.Col - 1,
		EndColumnIndex:   r.End.Col,
	}
}

// FromGridRange is the inverse conversion: start indices shift up by
// one, end indices stay as they are.
func FromGridRange(g GridRange) (CellRange, error) {
	start, err := NewCellAddress(g.StartRowIndex+1, g.StartColumnIndex+1)
	if err != nil {
		return CellRange{}, err
	}
	end, err := NewCellAddress(g.EndRowIndex, g.EndColumnIndex)
	if err != nil {
		return CellRange{}, err
	}
	if start.Row > end.Row || start.Col > end.Col {
		return CellRange{}, core.NewMalformedAddressError(
			fmt.Sprintf("%+v", g), "grid range is inverted")
	}
	return CellRange{Start: start, End: end}, nil
}
