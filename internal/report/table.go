// Package report turns view results into plain tables of named fields and
// renders them as Markdown, CSV, XLSX or JSON.
package report

import (
	"fmt"
	"math"
	"strconv"
)

// Placeholder stands in for an undefined number in text output.
const Placeholder = "n/a"

// Table is one view result: named columns and rows of plain values. Cells are
// string, int, int64, float64 or bool; an undefined number is a NaN float.
type Table struct {
	Name    string
	Title   string
	Columns []string
	Rows    [][]any
}

// New returns an empty table with the given columns.
func New(name, title string, columns ...string) Table {
	return Table{Name: name, Title: title, Columns: columns, Rows: [][]any{}}
}

// Add appends one row. Missing trailing cells are left empty.
func (t *Table) Add(cells ...any) {
	row := make([]any, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Len is the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Cell returns the value of a named column in row i, nil when absent.
func (t Table) Cell(i int, column string) any {
	if i < 0 || i >= len(t.Rows) {
		return nil
	}
	for j, c := range t.Columns {
		if c == column {
			return t.Rows[i][j]
		}
	}
	return nil
}

// heading is the title when set, the name otherwise.
func (t Table) heading() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Name
}

// defined reports whether a float is a usable number.
func defined(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Format renders a cell as text. Floats are rounded to the given number of
// decimals, or printed in full when decimals is negative; undefined numbers
// become undef.
func Format(v any, decimals int, undef string) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	case float64:
		if !defined(x) {
			return undef
		}
		return strconv.FormatFloat(x, 'f', decimals, 64)
	default:
		return fmt.Sprint(x)
	}
}
