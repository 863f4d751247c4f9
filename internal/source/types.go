package source

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Load.
var (
	ErrMissingColumn = errors.New("missing column")
	ErrDuplicateID   = errors.New("duplicate id")
	ErrUnsupported   = errors.New("unsupported file type")
)

// ColumnMap tells the importer which header names carry the engine fields.
// Every other column is passed through as a display attribute.
type ColumnMap struct {
	Sheet     string // xlsx only; empty means the first sheet
	ID        string // optional; rows are numbered 1..N when absent
	Liability string // required
	Amount    string // optional initial allocation
}

// RowError reports a bad value in one data row. Row is 1-based and counts
// the header, matching what a spreadsheet shows.
type RowError struct {
	Row    int
	Column string
	Value  string
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d, column %q: %s (%q)", e.Row, e.Column, e.Reason, e.Value)
}
