package chart

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/peelpotato/fastbi/internal/refspec"
)

// Spec describes one chart to render onto a sheet.
type Spec struct {
	Kind   string // line, col, bar, area, pie, doughnut, scatter, radar
	Mode   string // "", stacked, percentStacked
	Title  string
	Ranges Ranges
}

// stackedTypes maps a base chart type to its stacked and percent-stacked
// variants. Kinds without a variant fall back to the base type.
var stackedTypes = map[excelize.ChartType][2]excelize.ChartType{
	excelize.Col:  {excelize.ColStacked, excelize.ColPercentStacked},
	excelize.Bar:  {excelize.BarStacked, excelize.BarPercentStacked},
	excelize.Area: {excelize.AreaStacked, excelize.AreaPercentStacked},
}

var baseTypes = map[string]excelize.ChartType{
	"line":     excelize.Line,
	"col":      excelize.Col,
	"column":   excelize.Col,
	"bar":      excelize.Bar,
	"area":     excelize.Area,
	"pie":      excelize.Pie,
	"doughnut": excelize.Doughnut,
	"scatter":  excelize.Scatter,
	"radar":    excelize.Radar,
}

// Type maps a kind and mode to an excelize chart type. Unknown kinds
// default to a column chart; a mode the kind does not support falls back to
// the plain variant.
func Type(kind, mode string) excelize.ChartType {
	base, ok := baseTypes[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		base = excelize.Col
	}
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "stacked":
		if v, ok := stackedTypes[base]; ok {
			return v[0]
		}
	case "percentstacked", "percent_stacked", "100%stacked":
		if v, ok := stackedTypes[base]; ok {
			return v[1]
		}
	case "pieofpie", "pie_of_pie":
		if base == excelize.Pie {
			return excelize.PieOfPie
		}
	case "barofpie", "bar_of_pie":
		if base == excelize.Pie {
			return excelize.BarOfPie
		}
	}
	return base
}

// singleSeries reports chart types that render only their first series.
func singleSeries(t excelize.ChartType) bool {
	switch t {
	case excelize.Pie, excelize.Doughnut, excelize.PieOfPie, excelize.BarOfPie:
		return true
	}
	return false
}

// Render places the chart on the sheet at the anchor cell.
func Render(f *excelize.File, sheet, anchor string, spec Spec) error {
	chartType := Type(spec.Kind, spec.Mode)

	var categories string
	values := spec.Ranges.Values
	if spec.Ranges.Dimension != nil {
		categories = rangeRef(sheet, *spec.Ranges.Dimension)
	} else if chartType == excelize.Scatter && len(values) >= 2 {
		// Without a dimension the first value region serves as X.
		categories = rangeRef(sheet, values[0])
		values = values[1:]
	}
	if singleSeries(chartType) && len(values) > 1 {
		values = values[:1]
	}
	series := make([]excelize.ChartSeries, 0, len(values))
	for _, v := range values {
		series = append(series, excelize.ChartSeries{
			Name:       seriesNameRef(sheet, v),
			Categories: categories,
			Values:     rangeRef(sheet, v),
		})
	}

	chart := &excelize.Chart{
		Type:   chartType,
		Series: series,
		Legend: excelize.ChartLegend{Position: "top"},
		PlotArea: excelize.ChartPlotArea{
			ShowVal: true,
		},
	}
	if spec.Title != "" {
		chart.Title = []excelize.RichTextRun{{Text: spec.Title}}
	}
	if err := f.AddChart(sheet, anchor, chart); err != nil {
		return fmt.Errorf("add chart at %s!%s: %w", sheet, anchor, err)
	}
	return nil
}

// Replace deletes the chart anchored at the cell and renders a new one in
// its place.
func Replace(f *excelize.File, sheet, anchor string, spec Spec) error {
	if err := f.DeleteChart(sheet, anchor); err != nil {
		return fmt.Errorf("delete chart at %s!%s: %w", sheet, anchor, err)
	}
	return Render(f, sheet, anchor, spec)
}

// AnchorCell picks a cell two columns right of the used range for a new
// chart, so it never covers the data.
func AnchorCell(used refspec.Bounds, ok bool) string {
	col, row := 2, 1
	if ok {
		col = used.LastCol + 2
		row = used.FirstRow
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return "B1"
	}
	return cell
}

// rangeRef renders a region as a sheet-qualified absolute range string, the
// form chart series references require.
func rangeRef(sheet string, r refspec.Region) string {
	first, _ := excelize.ColumnNumberToName(r.FirstCol)
	last, _ := excelize.ColumnNumberToName(r.LastCol)
	return fmt.Sprintf("'%s'!$%s$%d:$%s$%d", sheet, first, r.FirstRow, last, r.LastRow)
}

// seriesNameRef points a series name at the header cell above the value
// column. Regions starting at row 1 have no header above and get no name.
func seriesNameRef(sheet string, v refspec.Region) string {
	if v.FirstRow <= 1 {
		return ""
	}
	col, _ := excelize.ColumnNumberToName(v.FirstCol)
	return fmt.Sprintf("'%s'!$%s$%d", sheet, col, v.FirstRow-1)
}
