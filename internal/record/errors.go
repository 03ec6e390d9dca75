package record

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoSource is returned when neither a cache nor a source file is available.
var ErrNoSource = errors.New("no source data")

// ErrEmptyDataset is returned when a source parses but holds no records.
var ErrEmptyDataset = errors.New("dataset has no rows")

// ParseError reports a required field that could not be parsed. It aborts the
// whole load.
type ParseError struct {
	Row    int
	Column Column
	Value  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s at row %d: %q is not a YYYY-MM month", e.Column, e.Row, e.Value)
}

// MissingColumnError lists required columns absent from the source.
type MissingColumnError struct {
	Columns []Column
}

func (e *MissingColumnError) Error() string {
	names := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		names[i] = string(c)
	}
	return fmt.Sprintf("missing required columns: %s", strings.Join(names, ", "))
}
