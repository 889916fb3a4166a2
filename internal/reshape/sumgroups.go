package reshape

import (
	"fmt"
	"sort"
	"strings"
)

// sumIdx carries the positions of the standard columns in a sum output, -1
// when a column is absent.
type sumIdx struct {
	id, name, grp, date int
}

// SumByGroup filters the input down to rostered employees, aggregates each
// employee's rows, and emits a report with a grand total first, then each
// group's subtotal followed by its members ("sum"). Numeric columns are
// summed; non-numeric columns keep their first non-null value. Groups sort
// ascending with members inside each group ordered by the first numeric
// column descending, ties keeping input order. Without a group column the
// report is just the total followed by the members.
func SumByGroup(input, roster *Table) (*Result, error) {
	rosterNameCol, ok := FindColumn(roster.Columns, NameAliases)
	if !ok {
		return nil, fmt.Errorf("employee roster must have an employee name column; expected one of: %s",
			strings.Join(NameAliases, ", "))
	}
	rosterNames := rosterNameSet(roster, rosterNameCol)
	if len(rosterNames) == 0 {
		return nil, fmt.Errorf("employee roster has no employee names")
	}

	std, err := standardizeForSum(input)
	if err != nil {
		return nil, err
	}
	cols := sumIdx{
		id:   std.ColumnIndex(ColID),
		name: std.ColumnIndex(ColName),
		grp:  std.ColumnIndex(ColGroup),
		date: std.ColumnIndex(ColDate),
	}

	var filtered [][]any
	for _, row := range std.Rows {
		if _, ok := rosterNames[cellString(row[cols.name])]; ok {
			filtered = append(filtered, row)
		}
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("no rows match the employee roster; roster has %d names", len(rosterNames))
	}

	work := &Table{Columns: std.Columns, Rows: filtered}
	numericIdx := numericColumns(work, cols.id, cols.name, cols.grp, cols.date)
	if len(numericIdx) == 0 {
		return nil, fmt.Errorf("active sheet has no numeric columns to sum")
	}

	// Aggregate rows per employee id, keys ascending.
	byID := map[string][]any{}
	var ids []string
	for _, row := range filtered {
		id := cellString(row[cols.id])
		agg, ok := byID[id]
		if !ok {
			r := make([]any, len(row))
			copy(r, row)
			for _, ni := range numericIdx {
				if n, ok := asNumber(r[ni]); ok {
					r[ni] = n
				} else {
					r[ni] = float64(0)
				}
			}
			byID[id] = r
			ids = append(ids, id)
			continue
		}
		for ci := range row {
			if isNumericIndex(numericIdx, ci) {
				if n, ok := asNumber(row[ci]); ok {
					agg[ci] = agg[ci].(float64) + n
				}
			} else if isNull(agg[ci]) && !isNull(row[ci]) {
				agg[ci] = row[ci]
			}
		}
	}
	sort.Strings(ids)

	members := make([][]any, 0, len(ids))
	for _, id := range ids {
		members = append(members, byID[id])
	}

	// Group ascending, first numeric descending, stable ties.
	firstNum := numericIdx[0]
	sort.SliceStable(members, func(i, j int) bool {
		if cols.grp >= 0 {
			gi, gj := cellString(members[i][cols.grp]), cellString(members[j][cols.grp])
			ni, nj := isNull(members[i][cols.grp]), isNull(members[j][cols.grp])
			if ni != nj {
				return nj // nulls last
			}
			if gi != gj {
				return gi < gj
			}
		}
		vi, _ := asNumber(members[i][firstNum])
		vj, _ := asNumber(members[j][firstNum])
		return vi > vj
	})

	var rows [][]any
	rows = append(rows, summaryRow(std.Columns, members, numericIdx, cols, "all", "all"))
	groupCount := 0
	if cols.grp >= 0 {
		for start := 0; start < len(members); {
			end := start
			grp := cellString(members[start][cols.grp])
			for end < len(members) && cellString(members[end][cols.grp]) == grp {
				end++
			}
			subtotal := summaryRow(std.Columns, members[start:end], numericIdx, cols,
				grp+"_sum", members[start][cols.grp])
			rows = append(rows, subtotal)
			rows = append(rows, members[start:end]...)
			groupCount++
			start = end
		}
	} else {
		rows = append(rows, members...)
	}

	out, err := New(std.Columns, rows)
	if err != nil {
		return nil, err
	}
	return &Result{
		Table: out,
		Summary: fmt.Sprintf("%d employee records, %d group sums, and 1 total",
			len(members), groupCount),
	}, nil
}

// SumByRosterGroup aggregates rostered rows into one row per roster group,
// taking the group assignment from the roster rather than the sheet
// ("autosum" with grouping). Employees missing from the roster are dropped.
func SumByRosterGroup(input, roster *Table) (*Result, error) {
	rosterNameCol, ok := FindColumn(roster.Columns, NameAliases)
	if !ok {
		return nil, fmt.Errorf("employee roster must have an employee name column; expected one of: %s",
			strings.Join(NameAliases, ", "))
	}
	rosterGrpCol, hasGrp := FindColumn(roster.Columns, GroupAliases)
	if !hasGrp {
		return nil, fmt.Errorf("employee roster must have a group column; expected one of: %s",
			strings.Join(GroupAliases, ", "))
	}
	nameToGroup := map[string]string{}
	nameIdxR := roster.ColumnIndex(rosterNameCol)
	grpIdxR := roster.ColumnIndex(rosterGrpCol)
	for _, row := range roster.Rows {
		name := cellString(row[nameIdxR])
		if name == "" {
			continue
		}
		if _, dup := nameToGroup[name]; !dup {
			nameToGroup[name] = cellString(row[grpIdxR])
		}
	}
	if len(nameToGroup) == 0 {
		return nil, fmt.Errorf("employee roster has no employee names")
	}

	std, err := standardizeForSum(input)
	if err != nil {
		return nil, err
	}
	// Group assignments come from the roster, so the output needs a grp
	// column even when the sheet has none.
	if std.ColumnIndex(ColGroup) < 0 {
		std.Columns = append(std.Columns, ColGroup)
		for i := range std.Rows {
			std.Rows[i] = append(std.Rows[i], nil)
		}
	}
	cols := sumIdx{
		id:   std.ColumnIndex(ColID),
		name: std.ColumnIndex(ColName),
		grp:  std.ColumnIndex(ColGroup),
		date: std.ColumnIndex(ColDate),
	}

	var filtered [][]any
	for _, row := range std.Rows {
		grp, ok := nameToGroup[cellString(row[cols.name])]
		if !ok {
			continue
		}
		r := make([]any, len(row))
		copy(r, row)
		r[cols.grp] = grp
		filtered = append(filtered, r)
	}
	if len(filtered) == 0 {
		return nil, fmt.Errorf("no rows match the employee roster; roster has %d names", len(nameToGroup))
	}

	work := &Table{Columns: std.Columns, Rows: filtered}
	numericIdx := numericColumns(work, cols.id, cols.name, cols.grp, cols.date)
	if len(numericIdx) == 0 {
		return nil, fmt.Errorf("active sheet has no numeric columns to sum")
	}

	groups := map[string][][]any{}
	var order []string
	for _, row := range filtered {
		grp := cellString(row[cols.grp])
		if _, seen := groups[grp]; !seen {
			order = append(order, grp)
		}
		groups[grp] = append(groups[grp], row)
	}
	sort.Strings(order)

	var rows [][]any
	for _, grp := range order {
		rows = append(rows, summaryRow(std.Columns, groups[grp], numericIdx, cols, grp+"_sum", grp))
	}

	out, err := New(std.Columns, rows)
	if err != nil {
		return nil, err
	}
	return &Result{
		Table:   out,
		Summary: fmt.Sprintf("%d group sums", len(rows)),
	}, nil
}

// FilterByRoster keeps only the input rows whose employee name appears in
// the roster, with no aggregation ("autosum" filter).
func FilterByRoster(input, roster *Table) (*Result, error) {
	rosterNameCol, ok := FindColumn(roster.Columns, NameAliases)
	if !ok {
		return nil, fmt.Errorf("employee roster must have an employee name column; expected one of: %s",
			strings.Join(NameAliases, ", "))
	}
	rosterNames := rosterNameSet(roster, rosterNameCol)
	if len(rosterNames) == 0 {
		return nil, fmt.Errorf("employee roster has no employee names")
	}

	nameCol, ok := FindColumn(input.Columns, NameAliases)
	if !ok {
		return nil, fmt.Errorf("active sheet must have an employee name column; expected one of: %s",
			strings.Join(NameAliases, ", "))
	}
	nameIdx := input.ColumnIndex(nameCol)

	var rows [][]any
	for _, row := range input.Rows {
		if _, ok := rosterNames[cellString(row[nameIdx])]; ok {
			rows = append(rows, row)
		}
	}

	out, err := New(input.Columns, rows)
	if err != nil {
		return nil, err
	}
	return &Result{
		Table:   out,
		Summary: fmt.Sprintf("%d filtered employees", len(rows)),
	}, nil
}

// standardizeForSum renames the input's identity, group and date columns to
// their standard headers and formats ids. The id and name columns are both
// required; the group column stays absent when the sheet has none.
func standardizeForSum(input *Table) (*Table, error) {
	if input.Empty() {
		return nil, fmt.Errorf("active sheet has insufficient data")
	}
	idCol, hasID := FindColumn(input.Columns, IDAliases)
	nameCol, hasName := FindColumn(input.Columns, NameAliases)
	if !hasID || !hasName {
		return nil, fmt.Errorf("active sheet must have both employee id and name columns; expected id: %s; expected name: %s",
			strings.Join(IDAliases, ", "), strings.Join(NameAliases, ", "))
	}
	grpCol, hasGrp := FindColumn(input.Columns, GroupAliases)
	dateCol, hasDate := FindColumn(input.Columns, DateAliases)

	rename := map[string]string{idCol: ColID, nameCol: ColName}
	if hasGrp {
		rename[grpCol] = ColGroup
	}
	if hasDate {
		rename[dateCol] = ColDate
	}

	columns := make([]string, len(input.Columns))
	for i, c := range input.Columns {
		if r, ok := rename[c]; ok {
			columns[i] = r
		} else {
			columns[i] = c
		}
	}

	idIdx := input.ColumnIndex(idCol)
	rows := make([][]any, 0, len(input.Rows))
	for _, in := range input.Rows {
		row := make([]any, len(columns))
		copy(row, in)
		row[idIdx] = FormatEmployeeID(in[idIdx])
		rows = append(rows, row)
	}
	return &Table{Columns: columns, Rows: rows}, nil
}

// numericColumns reports the indexes of summable columns, skipping the
// standard identity, group and date columns.
func numericColumns(t *Table, skip ...int) []int {
	skipped := map[int]struct{}{}
	for _, s := range skip {
		if s >= 0 {
			skipped[s] = struct{}{}
		}
	}
	var idx []int
	for i := range t.Columns {
		if _, ok := skipped[i]; ok {
			continue
		}
		if t.IsNumericColumn(i) {
			idx = append(idx, i)
		}
	}
	return idx
}

// summaryRow sums the numeric columns of a slice of rows into one
// synthesized row. The id and name columns carry the label ("all" or
// "<grp>_sum"), the group column carries grp, and the date column keeps the
// first row's date; every other column is left empty.
func summaryRow(columns []string, rows [][]any, numericIdx []int, cols sumIdx, label string, grp any) []any {
	row := make([]any, len(columns))
	for _, ni := range numericIdx {
		sum := float64(0)
		for _, r := range rows {
			if n, ok := asNumber(r[ni]); ok {
				sum += n
			}
		}
		row[ni] = sum
	}
	if cols.id >= 0 {
		row[cols.id] = label
	}
	if cols.name >= 0 {
		row[cols.name] = label
	}
	if cols.grp >= 0 {
		row[cols.grp] = grp
	}
	if cols.date >= 0 && len(rows) > 0 {
		row[cols.date] = rows[0][cols.date]
	}
	return row
}

func rosterNameSet(roster *Table, nameCol string) map[string]struct{} {
	idx := roster.ColumnIndex(nameCol)
	set := map[string]struct{}{}
	for _, row := range roster.Rows {
		name := cellString(row[idx])
		if name != "" {
			set[name] = struct{}{}
		}
	}
	return set
}

func isNumericIndex(numericIdx []int, i int) bool {
	for _, n := range numericIdx {
		if n == i {
			return true
		}
	}
	return false
}
