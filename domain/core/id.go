package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// TableID is the server-assigned pivot table identifier. It exists
// only after the remote side confirms creation; local drafts carry a
// plain ID until then.
type TableID string

func (id TableID) String() string { return string(id) }

func (id TableID) IsEmpty() bool { return id == "" }

// DataSourceID references an externally registered, detached data set
// a pivot table may use instead of an inline sheet range.
type DataSourceID string

func (id DataSourceID) String() string { return string(id) }

// ParseTableID parses a string into TableID
func ParseTableID(s string) (TableID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("table ID cannot be empty")
	}
	return TableID(s), nil
}
