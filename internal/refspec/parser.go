package refspec

import (
	"regexp"
	"strconv"
	"strings"
)

// SheetContext is the capability the parser needs from a live sheet: resolve
// an explicit A1-style address into a region, and report used-range bounds.
// The topmost used row is treated as the header row; data starts one below.
type SheetContext interface {
	// ResolveAddress resolves an address or span string like "B2" or
	// "B2:B5" into a region.
	ResolveAddress(ref string) (Region, error)
	// UsedRange reports the smallest rectangle containing all non-empty
	// cells. ok is false when the sheet is empty or extents are unknown.
	UsedRange() (Bounds, bool)
}

// Bounds describes a sheet's used-range extents, 1-based inclusive.
type Bounds struct {
	FirstRow int
	LastRow  int
	FirstCol int
	LastCol  int
}

// fallbackLastRow bounds a bare-column values spec when the sheet context
// cannot report used-range extents at all. Row 1 is skipped so a header at
// the top is never charted as data.
const fallbackLastRow = 10000

var cartesianRe = regexp.MustCompile(`^\((.*)\)\s*\*\s*\((.*)\)$`)

// ParseValues resolves a values spec into zero or more regions. Each
// comma-separated part is tried against the grammar alternatives in priority
// order: explicit address (contains a digit), pure-letter column span over
// the sheet's data rows, fallback address (other colon forms), and bare
// column letter. Malformed parts are dropped, never fatal. The whole spec
// may instead be the Cartesian form "(cols)*(rows)", which emits one region
// per listed column spanning min(rows)..max(rows).
//
// refRows, when non-nil, supplies the row bounds for bare column letters;
// it is normally taken from an already-resolved dimension region so the
// dimension and value columns anchor to the same rows.
func ParseValues(spec string, ctx SheetContext, refRows *RowBounds) []Region {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil
	}

	if m := cartesianRe.FindStringSubmatch(spec); m != nil {
		return cartesianRegions(m[1], m[2])
	}

	dataRows, haveData := dataRowBounds(ctx)

	var out []Region
	for _, part := range strings.Split(spec, ",") {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		// Explicit address: anything carrying a row number.
		if hasDigit(p) {
			if r, err := ctx.ResolveAddress(p); err == nil {
				out = append(out, r)
			}
			continue
		}

		if left, right, found := strings.Cut(p, ":"); found {
			left, right = strings.TrimSpace(left), strings.TrimSpace(right)
			// Column span like "B:C": one region per column, data rows only.
			if isLetters(left) && isLetters(right) && haveData {
				li, lok := ColumnIndex(left)
				ri, rok := ColumnIndex(right)
				if lok && rok && li <= ri {
					for c := li; c <= ri; c++ {
						out = append(out, Region{FirstRow: dataRows.First, FirstCol: c, LastRow: dataRows.Last, LastCol: c})
					}
				}
				continue
			}
			// Any other colon form: treat the whole part as an address.
			if r, err := ctx.ResolveAddress(p); err == nil {
				out = append(out, r)
			}
			continue
		}

		// Bare column letter. Row bounds by priority: the caller-supplied
		// reference span, the sheet's data rows, then a wide fallback.
		ci, ok := ColumnIndex(p)
		if !ok {
			continue
		}
		switch {
		case refRows != nil:
			out = append(out, Region{FirstRow: refRows.First, FirstCol: ci, LastRow: refRows.Last, LastCol: ci})
		case haveData:
			out = append(out, Region{FirstRow: dataRows.First, FirstCol: ci, LastRow: dataRows.Last, LastCol: ci})
		default:
			out = append(out, Region{FirstRow: 2, FirstCol: ci, LastRow: fallbackLastRow, LastCol: ci})
		}
	}
	return out
}

// ParseDimension resolves a dimension spec only when it carries a digit or a
// colon; a bare column letter cannot be bound to rows here and reports
// false, leaving inference to InferDimensionRegion.
func ParseDimension(spec string, ctx SheetContext) (Region, bool) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Region{}, false
	}
	if !hasDigit(spec) && !strings.Contains(spec, ":") {
		return Region{}, false
	}
	r, err := ctx.ResolveAddress(spec)
	if err != nil {
		return Region{}, false
	}
	return r, true
}

// InferDimensionRegion materializes a bare-column dimension spec. Row bounds
// come from the first resolved value region when any exist, otherwise from
// the sheet's full used-range rows (header included, matching the row span a
// fully-specified dimension would carry).
func InferDimensionRegion(spec string, ctx SheetContext, values []Region) (Region, bool) {
	ci, ok := ColumnIndex(spec)
	if !ok {
		return Region{}, false
	}
	if len(values) > 0 {
		rb := values[0].RowBounds()
		return Region{FirstRow: rb.First, FirstCol: ci, LastRow: rb.Last, LastCol: ci}, true
	}
	if used, haveUsed := ctx.UsedRange(); haveUsed {
		return Region{FirstRow: used.FirstRow, FirstCol: ci, LastRow: used.LastRow, LastCol: ci}, true
	}
	return Region{}, false
}

// dataRowBounds returns the data-row span of the sheet: the row below the
// header through the last used row. ok is false when the used range is
// unknown or holds no data rows.
func dataRowBounds(ctx SheetContext) (RowBounds, bool) {
	used, ok := ctx.UsedRange()
	if !ok {
		return RowBounds{}, false
	}
	first := used.FirstRow + 1
	if first > used.LastRow {
		return RowBounds{}, false
	}
	return RowBounds{First: first, Last: used.LastRow}, true
}

// cartesianRegions expands "(cols)*(rows)". The column side is a discrete
// list; the row side collapses to its min..max span. Either side resolving
// empty yields no regions.
func cartesianRegions(colExpr, rowExpr string) []Region {
	cols := parseColumnExpr(colExpr)
	rows := parseRowExpr(rowExpr)
	if len(cols) == 0 || len(rows) == 0 {
		return nil
	}
	first, last := rows[0], rows[0]
	for _, r := range rows[1:] {
		if r < first {
			first = r
		}
		if r > last {
			last = r
		}
	}
	out := make([]Region, 0, len(cols))
	for _, c := range cols {
		out = append(out, Region{FirstRow: first, FirstCol: c, LastRow: last, LastCol: c})
	}
	return out
}

// parseColumnExpr resolves a column sub-expression ("B", "B,E", "B:E",
// "B:C,E") into column indices, first-occurrence order preserved. Overlapping
// items are not deduplicated; callers may see repeats.
func parseColumnExpr(expr string) []int {
	var out []int
	for _, item := range strings.Split(expr, ",") {
		it := strings.TrimSpace(item)
		if it == "" {
			continue
		}
		if left, right, found := strings.Cut(it, ":"); found {
			li, lok := ColumnIndex(left)
			ri, rok := ColumnIndex(right)
			if !lok || !rok || li > ri {
				continue
			}
			for c := li; c <= ri; c++ {
				out = append(out, c)
			}
			continue
		}
		if ci, ok := ColumnIndex(it); ok {
			out = append(out, ci)
		}
	}
	return out
}

// parseRowExpr resolves a row sub-expression ("2", "2,7", "2:7", "2:5,7")
// into row numbers. Non-integer tokens and rows below 1 are skipped.
func parseRowExpr(expr string) []int {
	var out []int
	for _, item := range strings.Split(expr, ",") {
		it := strings.TrimSpace(item)
		if it == "" {
			continue
		}
		if left, right, found := strings.Cut(it, ":"); found {
			lo, lerr := strconv.Atoi(strings.TrimSpace(left))
			hi, herr := strconv.Atoi(strings.TrimSpace(right))
			if lerr != nil || herr != nil || lo < 1 || hi < lo {
				continue
			}
			for r := lo; r <= hi; r++ {
				out = append(out, r)
			}
			continue
		}
		if n, err := strconv.Atoi(it); err == nil && n >= 1 {
			out = append(out, n)
		}
	}
	return out
}
