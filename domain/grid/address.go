package grid

import (
	"fmt"
	"strconv"
	"strings"

	"gopivot/domain/core"
)

// CellAddress is a 1-indexed row/column pair. The human label form
// ("A1") converts losslessly to and from it.
type CellAddress struct {
	Row int64 `json:"row"`
	Col int64 `json:"col"`
}

// NewCellAddress builds an address from an explicit pair. Both
// components must be positive.
func NewCellAddress(row, col int64) (CellAddress, error) {
	if row < 1 || col < 1 {
		return CellAddress{}, core.NewMalformedAddressError(
			fmt.Sprintf("(%d,%d)", row, col), "row and column must be positive")
	}
	return CellAddress{Row: row, Col: col}, nil
}

// ParseAddress parses a human label like "B6" into a CellAddress.
// The accepted grammar is [A-Z]+[1-9][0-9]*.
func ParseAddress(label string) (CellAddress, error) {
	split := 0
	for split < len(label) && label[split] >= 'A' && label[split] <= 'Z' {
		split++
	}
	if split == 0 {
		return CellAddress{}, core.NewMalformedAddressError(label, "missing column letters")
	}
	digits := label[split:]
	if digits == "" {
		return CellAddress{}, core.NewMalformedAddressError(label, "missing row number")
	}
	if digits[0] == '0' {
		return CellAddress{}, core.NewMalformedAddressError(label, "row number cannot start with zero")
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return CellAddress{}, core.NewMalformedAddressError(label, "row is not a number")
		}
	}
	row, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return CellAddress{}, core.NewMalformedAddressError(label, "row is not a number")
	}

	var col int64
	for i := 0; i < split; i++ {
		col = col*26 + int64(label[i]-'A') + 1
	}
	return CellAddress{Row: row, Col: col}, nil
}

// Label renders the address in A1 notation.
func (a CellAddress) Label() string {
	var sb strings.Builder
	col := a.Col
	letters := ""
	for col > 0 {
		col--
		letters = string(rune('A'+col%26)) + letters
		col /= 26
	}
	sb.WriteString(letters)
	sb.WriteString(strconv.FormatInt(a.Row, 10))
	return sb.String()
}

// Valid reports whether both components are positive.
func (a CellAddress) Valid() bool {
	return a.Row >= 1 && a.Col >= 1
}
