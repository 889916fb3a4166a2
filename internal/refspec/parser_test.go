package refspec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// fakeContext resolves addresses with excelize coordinate parsing and
// reports a configurable used range.
type fakeContext struct {
	bounds    Bounds
	hasBounds bool
}

func ctxWithUsedRange(firstRow, lastRow, firstCol, lastCol int) *fakeContext {
	return &fakeContext{
		bounds:    Bounds{FirstRow: firstRow, LastRow: lastRow, FirstCol: firstCol, LastCol: lastCol},
		hasBounds: true,
	}
}

func (c *fakeContext) ResolveAddress(ref string) (Region, error) {
	first, rest, found := ref, "", false
	if f, r, ok := cut(ref); ok {
		first, rest, found = f, r, true
	}
	fc, fr, err := excelize.CellNameToCoordinates(first)
	if err != nil {
		return Region{}, err
	}
	lc, lr := fc, fr
	if found {
		lc, lr, err = excelize.CellNameToCoordinates(rest)
		if err != nil {
			return Region{}, err
		}
	}
	if lr < fr || lc < fc {
		return Region{}, errors.New("reversed range")
	}
	return Region{FirstRow: fr, FirstCol: fc, LastRow: lr, LastCol: lc}, nil
}

func cut(ref string) (string, string, bool) {
	for i := 0; i < len(ref); i++ {
		if ref[i] == ':' {
			return ref[:i], ref[i+1:], true
		}
	}
	return ref, "", false
}

func (c *fakeContext) UsedRange() (Bounds, bool) {
	return c.bounds, c.hasBounds
}

func TestParseValuesColumnSpanUsesDataRows(t *testing.T) {
	ctx := ctxWithUsedRange(1, 10, 1, 6)
	got := ParseValues("B:D", ctx, nil)
	require.Equal(t, []Region{
		region(2, 2, 10, 2),
		region(2, 3, 10, 3),
		region(2, 4, 10, 4),
	}, got)
}

func TestParseValuesExplicitAddress(t *testing.T) {
	ctx := ctxWithUsedRange(1, 100, 1, 10)
	got := ParseValues("B2:B5", ctx, nil)
	require.Equal(t, []Region{region(2, 2, 5, 2)}, got)
}

func TestParseValuesCommaListHonorsRefRows(t *testing.T) {
	ctx := ctxWithUsedRange(1, 20, 1, 10)
	ref := &RowBounds{First: 3, Last: 8}
	got := ParseValues("B,C", ctx, ref)
	require.Equal(t, []Region{region(3, 2, 8, 2), region(3, 3, 8, 3)}, got)
}

func TestParseValuesBareColumnsDefaultToDataRows(t *testing.T) {
	ctx := ctxWithUsedRange(1, 20, 1, 10)
	got := ParseValues("B,C", ctx, nil)
	require.Equal(t, []Region{region(2, 2, 20, 2), region(2, 3, 20, 3)}, got)
}

func TestParseValuesBareColumnWideFallback(t *testing.T) {
	ctx := &fakeContext{} // no used range at all
	got := ParseValues("B", ctx, nil)
	require.Equal(t, []Region{region(2, 2, fallbackLastRow, 2)}, got)
}

func TestParseValuesCartesianDiscreteColumns(t *testing.T) {
	ctx := ctxWithUsedRange(1, 50, 1, 10)
	// The row side is a span between its endpoints, not a sparse pick.
	got := ParseValues("(B,E)*(2,7)", ctx, nil)
	require.Equal(t, []Region{region(2, 2, 7, 2), region(2, 5, 7, 5)}, got)
}

func TestParseValuesCartesianSpans(t *testing.T) {
	ctx := ctxWithUsedRange(1, 50, 1, 10)
	got := ParseValues("(B:D)*(2:5)", ctx, nil)
	require.Equal(t, []Region{
		region(2, 2, 5, 2),
		region(2, 3, 5, 3),
		region(2, 4, 5, 4),
	}, got)

	// Mixed item lists on both sides.
	got = ParseValues("(B:C,E) * (2:3,7)", ctx, nil)
	require.Equal(t, []Region{
		region(2, 2, 7, 2),
		region(2, 3, 7, 3),
		region(2, 5, 7, 5),
	}, got)
}

func TestParseValuesCartesianEmptySideYieldsNothing(t *testing.T) {
	ctx := ctxWithUsedRange(1, 50, 1, 10)
	require.Empty(t, ParseValues("(B,C)*()", ctx, nil))
	require.Empty(t, ParseValues("()*(2:5)", ctx, nil))
	require.Empty(t, ParseValues("(12)*(2:5)", ctx, nil))
}

func TestParseValuesDropsMalformedParts(t *testing.T) {
	ctx := ctxWithUsedRange(1, 10, 1, 10)
	// The oversized address fails resolution and the reversed span "D:B"
	// expands to nothing; "C" survives.
	got := ParseValues("ZZZZZZ9999999, D:B, C", ctx, nil)
	require.Equal(t, []Region{region(2, 3, 10, 3)}, got)
}

func TestParseValuesDuplicateColumnsPreserved(t *testing.T) {
	ctx := ctxWithUsedRange(1, 10, 1, 10)
	got := ParseValues("B,B", ctx, nil)
	require.Len(t, got, 2)
	require.Equal(t, got[0], got[1])
}

func TestParseValuesEmptySpec(t *testing.T) {
	ctx := ctxWithUsedRange(1, 10, 1, 10)
	require.Empty(t, ParseValues("   ", ctx, nil))
	require.Empty(t, ParseValues(",,", ctx, nil))
}

func TestParseDimension(t *testing.T) {
	ctx := ctxWithUsedRange(1, 10, 1, 10)

	r, ok := ParseDimension("A2:A5", ctx)
	require.True(t, ok)
	require.Equal(t, region(2, 1, 5, 1), r)

	// Bare letter: caller must infer the rows.
	_, ok = ParseDimension("A", ctx)
	require.False(t, ok)

	_, ok = ParseDimension("", ctx)
	require.False(t, ok)

	// Contains a digit but unresolvable.
	_, ok = ParseDimension("A0", ctx)
	require.False(t, ok)
}

func TestInferDimensionRegionFromValues(t *testing.T) {
	ctx := ctxWithUsedRange(1, 30, 1, 10)
	values := []Region{region(4, 2, 9, 2), region(2, 3, 20, 3)}
	r, ok := InferDimensionRegion("A", ctx, values)
	require.True(t, ok)
	// First value region wins.
	require.Equal(t, region(4, 1, 9, 1), r)
}

func TestInferDimensionRegionFromUsedRange(t *testing.T) {
	ctx := ctxWithUsedRange(1, 30, 1, 10)
	r, ok := InferDimensionRegion("A", ctx, nil)
	require.True(t, ok)
	require.Equal(t, region(1, 1, 30, 1), r)
}

func TestInferDimensionRegionNoSource(t *testing.T) {
	ctx := &fakeContext{}
	_, ok := InferDimensionRegion("A", ctx, nil)
	require.False(t, ok)

	_, ok = InferDimensionRegion("A1", ctxWithUsedRange(1, 5, 1, 5), nil)
	require.False(t, ok, "non-letter spec must not infer")
}

func TestEndToEndValuesWithUsedRange(t *testing.T) {
	// Header at row 1, last used row 20: "B,C" yields B2:B20 and C2:C20.
	ctx := ctxWithUsedRange(1, 20, 1, 10)
	got := ParseValues("B,C", ctx, nil)
	require.Equal(t, []Region{region(2, 2, 20, 2), region(2, 3, 20, 3)}, got)
}
