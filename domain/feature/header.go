package feature

import (
	"fmt"
	"strings"
)

// DefaultTimeLabel is the column name used to look up frame timestamps
// when no explicit label is given.
const DefaultTimeLabel = "timestamp"

// Header is an ordered list of unique feature column names
type Header []string

// NewHeader creates a Header, rejecting empty and duplicate column names
func NewHeader(columns []string) (Header, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("header must have at least one column")
	}

	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		col = strings.TrimSpace(col)
		if col == "" {
			return nil, fmt.Errorf("header contains an empty column name")
		}
		if seen[col] {
			return nil, fmt.Errorf("header has duplicated column %q", col)
		}
		seen[col] = true
	}

	header := make(Header, len(columns))
	for i, col := range columns {
		header[i] = strings.TrimSpace(col)
	}
	return header, nil
}

// Index returns the position of a column, or false if it is not present
func (h Header) Index(column string) (int, bool) {
	for i, col := range h {
		if col == column {
			return i, true
		}
	}
	return 0, false
}

// Has returns true if the column is present
func (h Header) Has(column string) bool {
	_, ok := h.Index(column)
	return ok
}

// Extend returns a new header with the column appended
func (h Header) Extend(column string) (Header, error) {
	extended := make([]string, 0, len(h)+1)
	extended = append(extended, h...)
	extended = append(extended, column)
	return NewHeader(extended)
}

// MergeHeaders concatenates headers into one, rejecting column collisions
// across the inputs
func MergeHeaders(headers ...Header) (Header, error) {
	var columns []string
	for _, h := range headers {
		columns = append(columns, h...)
	}
	merged, err := NewHeader(columns)
	if err != nil {
		return nil, fmt.Errorf("merged header: %w", err)
	}
	return merged, nil
}
