package reshape

import (
	"fmt"
	"strings"
)

// lookupEntry carries what a lookup row contributes to a join: the group and
// the complementary identity column (id when keyed by name, name when keyed
// by id).
type lookupEntry struct {
	group    any
	identity any
}

// Enrich left-joins employee metadata from the lookup table onto the input
// table ("info"). The join key is the input's name column when present,
// otherwise its id column. An id the input already carries wins over the
// lookup's; the lookup's group and complementary identity replace same-named
// input columns. Output order: date, group, id, name, then the remaining
// input columns in original order.
func Enrich(input, lookup *Table) (*Result, error) {
	if lookup.Empty() {
		return nil, fmt.Errorf("employee lookup table is empty")
	}
	if input.Empty() {
		return nil, fmt.Errorf("active sheet has insufficient data")
	}

	lkName, lkHasName := FindColumn(lookup.Columns, NameAliases)
	lkID, lkHasID := FindColumn(lookup.Columns, IDAliases)
	lkGroup, lkHasGroup := FindColumn(lookup.Columns, GroupAliases)
	if !lkHasName && !lkHasID {
		return nil, fmt.Errorf("employee lookup must have an employee name or id column; found: %s",
			strings.Join(lookup.Columns, ", "))
	}

	inName, inHasName := FindColumn(input.Columns, NameAliases)
	inID, inHasID := FindColumn(input.Columns, IDAliases)
	if !inHasName && !inHasID {
		return nil, fmt.Errorf("active sheet must have an employee name or id column; expected name: %s; expected id: %s",
			strings.Join(NameAliases, ", "), strings.Join(IDAliases, ", "))
	}

	// Join on the identity the input exposes, preferring name.
	keyByName := inHasName
	keyCol := inID
	lookupKeyCol := lkID
	if keyByName {
		keyCol = inName
		lookupKeyCol = lkName
	}
	if lookupKeyCol == "" {
		return nil, fmt.Errorf("employee lookup has no column matching the sheet's %s column", standardKey(keyByName))
	}

	mergeGroup := lkHasGroup
	mergeIdentity := (keyByName && lkHasID) || (!keyByName && lkHasName)
	entries := buildLookupIndex(lookup, lookupKeyCol, lkGroup, lkID, lkName, keyByName)

	dateCol, hasDate := FindColumn(input.Columns, DateAliases)

	// Standardized names for the input's own columns.
	rename := map[string]string{keyCol: standardKey(keyByName)}
	if hasDate {
		rename[dateCol] = ColDate
	}
	if inHasID {
		rename[inID] = ColID
	}

	inputCols := make([]string, len(input.Columns))
	srcIdx := map[string]int{}
	for i, c := range input.Columns {
		name := c
		if r, ok := rename[c]; ok {
			name = r
		}
		inputCols[i] = name
		if _, seen := srcIdx[name]; !seen {
			srcIdx[name] = i
		}
	}

	present := map[string]struct{}{}
	for _, c := range inputCols {
		present[c] = struct{}{}
	}
	if mergeGroup {
		present[ColGroup] = struct{}{}
	}
	if mergeIdentity {
		present[standardKey(!keyByName)] = struct{}{}
	}

	var columns []string
	appendCol := func(c string) {
		if _, ok := present[c]; ok {
			columns = append(columns, c)
			delete(present, c)
		}
	}
	for _, p := range []string{ColDate, ColGroup, ColID, ColName} {
		appendCol(p)
	}
	for _, c := range inputCols {
		appendCol(c)
	}

	keyIdx := input.ColumnIndex(keyCol)
	rows := make([][]any, 0, len(input.Rows))
	for _, in := range input.Rows {
		entry, matched := entries[joinKey(in[keyIdx], keyByName)]

		row := make([]any, len(columns))
		for ci, col := range columns {
			switch {
			case col == ColID:
				if si, ok := srcIdx[ColID]; ok {
					row[ci] = FormatEmployeeID(in[si])
				} else if matched && keyByName && mergeIdentity {
					row[ci] = FormatEmployeeID(entry.identity)
				} else {
					row[ci] = FormatEmployeeID(nil)
				}
			case col == ColGroup && mergeGroup:
				if matched {
					row[ci] = entry.group
				}
			case col == ColName && !keyByName && mergeIdentity:
				if matched {
					row[ci] = entry.identity
				}
			default:
				if si, ok := srcIdx[col]; ok {
					row[ci] = in[si]
				}
			}
		}
		rows = append(rows, row)
	}

	out, err := New(columns, rows)
	if err != nil {
		return nil, err
	}
	return &Result{
		Table:   out,
		Summary: fmt.Sprintf("%d records enriched with employee info", len(rows)),
	}, nil
}

// buildLookupIndex maps normalized join keys to the group and complementary
// identity a lookup row supplies. The first occurrence of a key wins.
func buildLookupIndex(lookup *Table, keyCol, groupCol, idCol, nameCol string, keyByName bool) map[string]lookupEntry {
	keyIdx := lookup.ColumnIndex(keyCol)
	groupIdx := -1
	if groupCol != "" {
		groupIdx = lookup.ColumnIndex(groupCol)
	}
	identityIdx := -1
	if keyByName && idCol != "" {
		identityIdx = lookup.ColumnIndex(idCol)
	} else if !keyByName && nameCol != "" {
		identityIdx = lookup.ColumnIndex(nameCol)
	}

	entries := make(map[string]lookupEntry, len(lookup.Rows))
	for _, row := range lookup.Rows {
		if isNull(row[keyIdx]) {
			continue
		}
		key := joinKey(row[keyIdx], keyByName)
		if _, dup := entries[key]; dup {
			continue
		}
		var e lookupEntry
		if groupIdx >= 0 {
			e.group = row[groupIdx]
		}
		if identityIdx >= 0 {
			e.identity = row[identityIdx]
		}
		entries[key] = e
	}
	return entries
}

// joinKey normalizes a join value: names match verbatim, ids match in their
// zero-padded form so 42 and "00000042" are the same employee.
func joinKey(v any, keyByName bool) string {
	if keyByName {
		return cellString(v)
	}
	return FormatEmployeeID(v)
}

func standardKey(byName bool) string {
	if byName {
		return ColName
	}
	return ColID
}
