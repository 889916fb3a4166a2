package reshape

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Table is an ordered sequence of named columns over an ordered sequence of
// rows. The header row is consumed at construction and is not part of Rows.
// Every row holds one value (possibly nil) per declared column.
type Table struct {
	Columns []string
	Rows    [][]any
}

// New builds a Table from a header and data rows. Short rows are padded with
// nil so the per-column invariant holds; non-blank column names must be
// unique.
func New(header []string, rows [][]any) (*Table, error) {
	cols := make([]string, len(header))
	copy(cols, header)

	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if strings.TrimSpace(c) == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("reshape: duplicate column name %q", c)
		}
		seen[key] = struct{}{}
	}

	out := make([][]any, len(rows))
	for i, r := range rows {
		row := make([]any, len(cols))
		copy(row, r)
		out[i] = row
	}
	return &Table{Columns: cols, Rows: out}, nil
}

// Result pairs an output table with a human-readable summary of what the
// operation produced.
type Result struct {
	Table   *Table
	Summary string
}

// ColumnIndex returns the position of an exactly-named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Empty reports whether the table has no data rows.
func (t *Table) Empty() bool { return len(t.Rows) == 0 }

// isNull treats nil and blank strings as missing values.
func isNull(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// asNumber coerces a cell to float64. Blank cells are not numbers.
func asNumber(v any) (float64, bool) {
	if isNull(v) {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, false
	}
	return f, true
}

// IsNumericColumn reports whether every non-null value in the column is
// representable as a number and at least one such value exists. Columns
// mixing text and numbers are not numeric.
func (t *Table) IsNumericColumn(idx int) bool {
	if idx < 0 || idx >= len(t.Columns) {
		return false
	}
	seen := false
	for _, row := range t.Rows {
		v := row[idx]
		if isNull(v) {
			continue
		}
		if _, ok := asNumber(v); !ok {
			return false
		}
		seen = true
	}
	return seen
}

// cellString renders a cell the way header matching and key comparison see
// it. Integral floats drop their ".0" tail.
func cellString(v any) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}

// FormatEmployeeID normalizes an employee id to the canonical 8-character,
// zero-left-padded string form: 42 becomes "00000042". A trailing ".0" from
// numeric coercion is stripped; non-numeric ids are padded as strings
// directly, and a missing value pads to "00000000".
func FormatEmployeeID(v any) string {
	s := strings.TrimSpace(cellString(v))
	s = strings.TrimSuffix(s, ".0")
	return zfill(s, 8)
}

// trimIDSuffix strips the ".0" tail without padding; the slc output keeps
// ids at their original width.
func trimIDSuffix(v any) string {
	return strings.TrimSuffix(strings.TrimSpace(cellString(v)), ".0")
}

func zfill(s string, width int) string {
	if n := width - len(s); n > 0 {
		return strings.Repeat("0", n) + s
	}
	return s
}
