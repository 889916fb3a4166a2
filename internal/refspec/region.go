// Package refspec implements the range-specification mini-language the
// charting tools accept: column letters, explicit A1-style ranges, column
// spans, comma lists, and the Cartesian "(cols)*(rows)" product form. It
// turns user-typed text into normalized rectangular cell regions and keeps
// no state of its own; everything it needs from a live sheet comes in
// through the SheetContext capability.
package refspec

// Region is a rectangle of cells on one sheet. Bounds are 1-based and
// inclusive on both axes; a Region always has positive extent.
type Region struct {
	FirstRow int
	FirstCol int
	LastRow  int
	LastCol  int
}

// RowBounds is a 1-based inclusive row span.
type RowBounds struct {
	First int
	Last  int
}

// Valid reports whether the region satisfies the positive-extent invariant.
func (r Region) Valid() bool {
	return r.FirstRow >= 1 && r.FirstCol >= 1 && r.LastRow >= r.FirstRow && r.LastCol >= r.FirstCol
}

// Rows returns the number of rows the region spans.
func (r Region) Rows() int { return r.LastRow - r.FirstRow + 1 }

// Cols returns the number of columns the region spans.
func (r Region) Cols() int { return r.LastCol - r.FirstCol + 1 }

// RowBounds returns the region's row span.
func (r Region) RowBounds() RowBounds { return RowBounds{First: r.FirstRow, Last: r.LastRow} }

// Bounding reduces a list of regions to the minimal rectangle covering all
// of them. It reports false for an empty list. The reduction is
// order-independent and idempotent.
func Bounding(regions []Region) (Region, bool) {
	if len(regions) == 0 {
		return Region{}, false
	}
	out := regions[0]
	for _, r := range regions[1:] {
		if r.FirstRow < out.FirstRow {
			out.FirstRow = r.FirstRow
		}
		if r.FirstCol < out.FirstCol {
			out.FirstCol = r.FirstCol
		}
		if r.LastRow > out.LastRow {
			out.LastRow = r.LastRow
		}
		if r.LastCol > out.LastCol {
			out.LastCol = r.LastCol
		}
	}
	return out, true
}
