package chart

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/peelpotato/fastbi/internal/refspec"
	"github.com/peelpotato/fastbi/internal/sheetio"
)

func fixture(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	rows := [][]any{
		{"month", "sales", "cost"},
		{"Jan", 10, 4},
		{"Feb", 20, 6},
		{"Mar", 15, 5},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}
	return f
}

func TestTypeMapping(t *testing.T) {
	cases := []struct {
		kind, mode string
		want       excelize.ChartType
	}{
		{"line", "", excelize.Line},
		{"line", "stacked", excelize.Line}, // no stacked line variant
		{"col", "", excelize.Col},
		{"column", "stacked", excelize.ColStacked},
		{"col", "percentStacked", excelize.ColPercentStacked},
		{"bar", "stacked", excelize.BarStacked},
		{"area", "percentStacked", excelize.AreaPercentStacked},
		{"pie", "", excelize.Pie},
		{"pie", "stacked", excelize.Pie},
		{"pie", "pieOfPie", excelize.PieOfPie},
		{"pie", "barOfPie", excelize.BarOfPie},
		{"col", "pieOfPie", excelize.Col}, // pie variants only apply to pie
		{"doughnut", "", excelize.Doughnut},
		{"scatter", "", excelize.Scatter},
		{"radar", "", excelize.Radar},
		{"nonsense", "", excelize.Col},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Type(tc.kind, tc.mode), "kind=%s mode=%s", tc.kind, tc.mode)
	}
}

func TestResolveExplicitDimensionAnchorsBareValues(t *testing.T) {
	ctx := sheetio.Context{File: fixture(t), Sheet: "Sheet1"}

	rng, err := Resolve("A2:A4", "B,C", ctx)
	require.NoError(t, err)
	require.NotNil(t, rng.Dimension)
	require.Equal(t, refspec.Region{FirstRow: 2, FirstCol: 1, LastRow: 4, LastCol: 1}, *rng.Dimension)
	require.Equal(t, []refspec.Region{
		{FirstRow: 2, FirstCol: 2, LastRow: 4, LastCol: 2},
		{FirstRow: 2, FirstCol: 3, LastRow: 4, LastCol: 3},
	}, rng.Values)
}

func TestResolveInfersBareDimensionFromValues(t *testing.T) {
	ctx := sheetio.Context{File: fixture(t), Sheet: "Sheet1"}

	rng, err := Resolve("A", "B2:B4", ctx)
	require.NoError(t, err)
	require.NotNil(t, rng.Dimension)
	require.Equal(t, refspec.Region{FirstRow: 2, FirstCol: 1, LastRow: 4, LastCol: 1}, *rng.Dimension)
}

func TestResolveErrors(t *testing.T) {
	ctx := sheetio.Context{File: fixture(t), Sheet: "Sheet1"}

	_, err := Resolve("", "", ctx)
	require.ErrorContains(t, err, "dimension or values")

	_, err = Resolve("  ", " ", ctx)
	require.ErrorContains(t, err, "dimension or values")

	_, err = Resolve("A2:A4", "!!,??", ctx)
	require.ErrorContains(t, err, "no usable value ranges")
}

func TestRenderAndReplace(t *testing.T) {
	f := fixture(t)
	ctx := sheetio.Context{File: f, Sheet: "Sheet1"}
	rng, err := Resolve("A2:A4", "B,C", ctx)
	require.NoError(t, err)

	used, ok := ctx.UsedRange()
	require.True(t, ok)
	anchor := AnchorCell(used, ok)
	require.Equal(t, "E1", anchor)

	spec := Spec{Kind: "col", Title: "Quarterly", Ranges: rng}
	require.NoError(t, Render(f, "Sheet1", anchor, spec))

	spec.Kind = "line"
	require.NoError(t, Replace(f, "Sheet1", anchor, spec))
}

func TestReplaceMissingChartErrors(t *testing.T) {
	f := fixture(t)
	err := Replace(f, "Sheet1", "E1", Spec{Kind: "col", Ranges: Ranges{
		Values: []refspec.Region{{FirstRow: 2, FirstCol: 2, LastRow: 4, LastCol: 2}},
	}})
	require.Error(t, err)
}

func TestRenderPieKeepsFirstSeriesOnly(t *testing.T) {
	f := fixture(t)
	ctx := sheetio.Context{File: f, Sheet: "Sheet1"}
	rng, err := Resolve("A2:A4", "B,C", ctx)
	require.NoError(t, err)

	require.NoError(t, Render(f, "Sheet1", "E1", Spec{Kind: "pie", Ranges: rng}))
}

func TestRenderScatterUsesFirstValuesAsX(t *testing.T) {
	f := fixture(t)
	ctx := sheetio.Context{File: f, Sheet: "Sheet1"}
	rng, err := Resolve("", "B,C", ctx)
	require.NoError(t, err)
	require.Nil(t, rng.Dimension)

	require.NoError(t, Render(f, "Sheet1", "E1", Spec{Kind: "scatter", Ranges: rng}))
}

func TestSeriesNameAndRangeRefs(t *testing.T) {
	require.Equal(t, "'Sheet1'!$B$2:$B$4",
		rangeRef("Sheet1", refspec.Region{FirstRow: 2, FirstCol: 2, LastRow: 4, LastCol: 2}))
	require.Equal(t, "'Sheet1'!$B$1",
		seriesNameRef("Sheet1", refspec.Region{FirstRow: 2, FirstCol: 2, LastRow: 4, LastCol: 2}))
	require.Equal(t, "",
		seriesNameRef("Sheet1", refspec.Region{FirstRow: 1, FirstCol: 2, LastRow: 4, LastCol: 2}))
}

func TestPivot(t *testing.T) {
	f := fixture(t)
	ctx := sheetio.Context{File: f, Sheet: "Sheet1"}
	rng, err := Resolve("A2:A4", "B,C", ctx)
	require.NoError(t, err)

	used, ok := ctx.UsedRange()
	require.True(t, ok)
	require.NoError(t, Pivot(f, "Sheet1", rng, used))
}

func TestPivotSourceCoversUsedColumns(t *testing.T) {
	f := excelize.NewFile()
	t.Cleanup(func() { _ = f.Close() })
	rows := [][]any{
		{"month", "sales", "cost", "tax"},
		{"Jan", 10, 4, 1},
		{"Feb", 20, 6, 2},
		{"Mar", 15, 5, 1},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}

	ctx := sheetio.Context{File: f, Sheet: "Sheet1"}
	rng, err := Resolve("A2:A4", "B", ctx)
	require.NoError(t, err)

	used, ok := ctx.UsedRange()
	require.True(t, ok)
	require.NoError(t, Pivot(f, "Sheet1", rng, used))

	// The source block widens past the requested ranges to the sheet's last
	// used column, not just its last used row.
	pivots, err := f.GetPivotTables("Sheet1")
	require.NoError(t, err)
	require.Len(t, pivots, 1)
	require.Equal(t, "Sheet1!A1:D4", pivots[0].DataRange)
}

func TestPivotNeedsValueColumns(t *testing.T) {
	f := fixture(t)
	used := refspec.Bounds{FirstRow: 1, LastRow: 4, FirstCol: 1, LastCol: 3}
	rng := Ranges{Values: []refspec.Region{{FirstRow: 2, FirstCol: 1, LastRow: 4, LastCol: 1}}}
	err := Pivot(f, "Sheet1", rng, used)
	require.ErrorContains(t, err, "at least one value column")
}
