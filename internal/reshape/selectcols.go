package reshape

import (
	"fmt"
	"strings"
)

// ColumnMapping renames a source column to a new header in the output.
type ColumnMapping struct {
	Old string
	New string
}

// SelectColumns projects the input table down to the standard columns plus
// any dictionary-mapped ones ("slc"). The date, group, id and name columns
// are kept under their standardized names whenever present; dictionary
// entries add further columns under their mapped headers. Dictionary entries
// that target a column already kept as standard are skipped. Matching is
// case-insensitive on trimmed headers.
func SelectColumns(input *Table, dict []ColumnMapping) (*Result, error) {
	if input.Empty() {
		return nil, fmt.Errorf("active sheet has insufficient data")
	}
	if len(dict) == 0 {
		return nil, fmt.Errorf("column dictionary is empty")
	}

	inName, inHasName := FindColumn(input.Columns, NameAliases)
	inID, inHasID := FindColumn(input.Columns, IDAliases)
	if !inHasName && !inHasID {
		return nil, fmt.Errorf("active sheet must have an employee name or id column; expected name: %s; expected id: %s",
			strings.Join(NameAliases, ", "), strings.Join(IDAliases, ", "))
	}

	type selected struct {
		src    int
		header string
		isID   bool
	}
	var cols []selected
	taken := map[string]struct{}{}
	keep := func(src, header string, isID bool) {
		key := strings.ToLower(header)
		if _, dup := taken[key]; dup {
			return
		}
		if idx := input.ColumnIndex(src); idx >= 0 {
			taken[key] = struct{}{}
			cols = append(cols, selected{src: idx, header: header, isID: isID})
		}
	}

	if dateCol, ok := FindColumn(input.Columns, DateAliases); ok {
		keep(dateCol, ColDate, false)
	}
	if grpCol, ok := FindColumn(input.Columns, GroupAliases); ok {
		keep(grpCol, ColGroup, false)
	}
	if inHasID {
		keep(inID, ColID, true)
	}
	if inHasName {
		keep(inName, ColName, false)
	}

	for _, m := range dict {
		old := strings.TrimSpace(m.Old)
		if old == "" {
			continue
		}
		src, ok := FindColumn(input.Columns, []string{old})
		if !ok {
			continue
		}
		keep(src, m.New, false)
	}

	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.header
	}
	rows := make([][]any, 0, len(input.Rows))
	for _, in := range input.Rows {
		row := make([]any, len(cols))
		for i, c := range cols {
			if c.isID {
				row[i] = trimIDSuffix(in[c.src])
			} else {
				row[i] = in[c.src]
			}
		}
		rows = append(rows, row)
	}

	out, err := New(headers, rows)
	if err != nil {
		return nil, err
	}
	return &Result{
		Table:   out,
		Summary: fmt.Sprintf("%d selected columns", len(cols)),
	}, nil
}

// AutoSelectColumns projects the input using only the dictionary mappings,
// with no standard defaults ("autoslc"). It errors when nothing in the
// dictionary matched the sheet.
func AutoSelectColumns(input *Table, dict []ColumnMapping) (*Result, error) {
	if input.Empty() {
		return nil, fmt.Errorf("active sheet has insufficient data")
	}
	if len(dict) == 0 {
		return nil, fmt.Errorf("column dictionary is empty")
	}

	type selected struct {
		src    int
		header string
	}
	var cols []selected
	taken := map[string]struct{}{}
	for _, m := range dict {
		old := strings.TrimSpace(m.Old)
		if old == "" {
			continue
		}
		src, ok := FindColumn(input.Columns, []string{old})
		if !ok {
			continue
		}
		key := strings.ToLower(m.New)
		if _, dup := taken[key]; dup {
			continue
		}
		taken[key] = struct{}{}
		cols = append(cols, selected{src: input.ColumnIndex(src), header: m.New})
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no dictionary columns matched the active sheet; sheet columns: %s",
			strings.Join(input.Columns, ", "))
	}

	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.header
	}
	rows := make([][]any, 0, len(input.Rows))
	for _, in := range input.Rows {
		row := make([]any, len(cols))
		for i, c := range cols {
			row[i] = in[c.src]
		}
		rows = append(rows, row)
	}

	out, err := New(headers, rows)
	if err != nil {
		return nil, err
	}
	return &Result{
		Table:   out,
		Summary: fmt.Sprintf("%d selected columns", len(cols)),
	}, nil
}
