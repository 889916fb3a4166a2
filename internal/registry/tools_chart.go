package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xuri/excelize/v2"

	"github.com/peelpotato/fastbi/internal/chart"
	"github.com/peelpotato/fastbi/internal/sheetio"
	"github.com/peelpotato/fastbi/internal/workbooks"
	"github.com/peelpotato/fastbi/pkg/mcperr"
	"github.com/peelpotato/fastbi/pkg/validation"
)

// CreateChartInput defines parameters for rendering a chart on the active sheet.
type CreateChartInput struct {
	WorkbookID string `json:"workbook_id" validate:"required" jsonschema_description:"Workbook handle ID"`
	Kind       string `json:"kind" validate:"required,chartkind" jsonschema_description:"Chart kind: line, col, bar, area, pie, doughnut, scatter, radar"`
	Mode       string `json:"mode,omitempty" validate:"omitempty,oneof=stacked percentStacked pieOfPie barOfPie" jsonschema_description:"Chart variant; falls back to the plain kind when unsupported"`
	Title      string `json:"title,omitempty" jsonschema_description:"Chart title"`
	Dimension  string `json:"dimension,omitempty" validate:"omitempty,rangespec" jsonschema_description:"Category range spec, e.g. A, A2:A10"`
	Values     string `json:"values,omitempty" validate:"omitempty,rangespec" jsonschema_description:"Value ranges spec, e.g. B,C or B:D or (B,E)*(2,7)"`
}

// ChartOutput reports where a chart landed so update_chart can address it.
type ChartOutput struct {
	WorkbookID string   `json:"workbook_id"`
	Sheet      string   `json:"sheet"`
	Anchor     string   `json:"anchor" jsonschema_description:"Anchor token sheet!cell; pass to update_chart"`
	Series     int      `json:"series" jsonschema_description:"Number of series rendered"`
	Logs       []string `json:"logs" jsonschema_description:"Ordered progress messages"`
}

// UpdateChartInput defines parameters for replacing an existing chart.
type UpdateChartInput struct {
	WorkbookID string `json:"workbook_id" validate:"required" jsonschema_description:"Workbook handle ID"`
	Anchor     string `json:"anchor" validate:"required" jsonschema_description:"Anchor token from create_chart, sheet!cell"`
	Kind       string `json:"kind" validate:"required,chartkind" jsonschema_description:"Chart kind"`
	Mode       string `json:"mode,omitempty" validate:"omitempty,oneof=stacked percentStacked pieOfPie barOfPie" jsonschema_description:"Chart variant"`
	Title      string `json:"title,omitempty" jsonschema_description:"Chart title"`
	Dimension  string `json:"dimension,omitempty" validate:"omitempty,rangespec" jsonschema_description:"Category range spec"`
	Values     string `json:"values,omitempty" validate:"omitempty,rangespec" jsonschema_description:"Value ranges spec"`
}

// CreatePivotInput defines parameters for summarizing ranges into a pivot table.
type CreatePivotInput struct {
	WorkbookID string `json:"workbook_id" validate:"required" jsonschema_description:"Workbook handle ID"`
	Dimension  string `json:"dimension,omitempty" validate:"omitempty,rangespec" jsonschema_description:"Row-field range spec"`
	Values     string `json:"values,omitempty" validate:"omitempty,rangespec" jsonschema_description:"Value ranges spec"`
}

// PivotOutput reports pivot placement.
type PivotOutput struct {
	WorkbookID string   `json:"workbook_id"`
	Sheet      string   `json:"sheet"`
	Logs       []string `json:"logs"`
}

// RegisterChartTools wires create_chart, update_chart, and create_pivot.
func RegisterChartTools(s *server.MCPServer, reg *Registry, mgr *workbooks.Manager) {
	createChart := mcp.NewTool(
		"create_chart",
		mcp.WithDescription("Render a chart on the active sheet from dimension and values range specs. Returns an anchor token for update_chart."),
		mcp.WithString("workbook_id", mcp.Required(), mcp.Description("Workbook handle ID")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Chart kind: line, col, bar, area, pie, doughnut, scatter, radar")),
		mcp.WithString("mode", mcp.Description("Chart variant: stacked, percentStacked, pieOfPie, or barOfPie")),
		mcp.WithString("title", mcp.Description("Chart title")),
		mcp.WithString("dimension", mcp.Description("Category range spec, e.g. A or A2:A10")),
		mcp.WithString("values", mcp.Description("Value ranges spec, e.g. B,C or B:D or (B,E)*(2,7)")),
		mcp.WithOutputSchema[ChartOutput](),
	)
	s.AddTool(createChart, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in CreateChartInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		var out ChartOutput
		err := mgr.WithWrite(in.WorkbookID, func(f *excelize.File, sheet string) error {
			sctx := sheetio.Context{File: f, Sheet: sheet}
			rng, err := chart.Resolve(in.Dimension, in.Values, sctx)
			if err != nil {
				return err
			}
			out.Logs = append(out.Logs, fmt.Sprintf("resolved %d value ranges", len(rng.Values)))
			used, ok := sctx.UsedRange()
			anchor := chart.AnchorCell(used, ok)
			spec := chart.Spec{Kind: in.Kind, Mode: in.Mode, Title: in.Title, Ranges: rng}
			if err := chart.Render(f, sheet, anchor, spec); err != nil {
				return err
			}
			out.WorkbookID = in.WorkbookID
			out.Sheet = sheet
			out.Anchor = sheet + "!" + anchor
			out.Series = len(rng.Values)
			out.Logs = append(out.Logs, "chart created at "+out.Anchor)
			return saveIfOnDisk(f)
		})
		if err != nil {
			return chartError(err), nil
		}
		summary := fmt.Sprintf("%s chart at %s", in.Kind, out.Anchor)
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(strings.Join(out.Logs, "\n"))}
		return res, nil
	}))
	reg.Register(createChart)

	updateChart := mcp.NewTool(
		"update_chart",
		mcp.WithDescription("Replace the chart at an anchor token with a re-rendered one (new kind, mode, title, or ranges)."),
		mcp.WithString("workbook_id", mcp.Required(), mcp.Description("Workbook handle ID")),
		mcp.WithString("anchor", mcp.Required(), mcp.Description("Anchor token from create_chart, sheet!cell")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Chart kind")),
		mcp.WithString("mode", mcp.Description("Chart variant")),
		mcp.WithString("title", mcp.Description("Chart title")),
		mcp.WithString("dimension", mcp.Description("Category range spec")),
		mcp.WithString("values", mcp.Description("Value ranges spec")),
		mcp.WithOutputSchema[ChartOutput](),
	)
	s.AddTool(updateChart, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in UpdateChartInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		anchorSheet, cell, found := strings.Cut(in.Anchor, "!")
		if !found || anchorSheet == "" || cell == "" {
			return mcperr.New(mcperr.Validation, "anchor must be sheet!cell, as returned by create_chart"), nil
		}
		var out ChartOutput
		err := mgr.WithWrite(in.WorkbookID, func(f *excelize.File, _ string) error {
			sctx := sheetio.Context{File: f, Sheet: anchorSheet}
			rng, err := chart.Resolve(in.Dimension, in.Values, sctx)
			if err != nil {
				return err
			}
			spec := chart.Spec{Kind: in.Kind, Mode: in.Mode, Title: in.Title, Ranges: rng}
			if err := chart.Replace(f, anchorSheet, cell, spec); err != nil {
				return err
			}
			out.WorkbookID = in.WorkbookID
			out.Sheet = anchorSheet
			out.Anchor = in.Anchor
			out.Series = len(rng.Values)
			out.Logs = append(out.Logs, "chart replaced at "+in.Anchor)
			return saveIfOnDisk(f)
		})
		if err != nil {
			return chartError(err), nil
		}
		summary := fmt.Sprintf("%s chart replaced at %s", in.Kind, out.Anchor)
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(strings.Join(out.Logs, "\n"))}
		return res, nil
	}))
	reg.Register(updateChart)

	createPivot := mcp.NewTool(
		"create_pivot",
		mcp.WithDescription("Summarize the resolved ranges into a pivot table beside the source block: first column as row field, the rest as Sum data fields."),
		mcp.WithString("workbook_id", mcp.Required(), mcp.Description("Workbook handle ID")),
		mcp.WithString("dimension", mcp.Description("Row-field range spec")),
		mcp.WithString("values", mcp.Description("Value ranges spec")),
		mcp.WithOutputSchema[PivotOutput](),
	)
	s.AddTool(createPivot, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in CreatePivotInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		var out PivotOutput
		err := mgr.WithWrite(in.WorkbookID, func(f *excelize.File, sheet string) error {
			sctx := sheetio.Context{File: f, Sheet: sheet}
			rng, err := chart.Resolve(in.Dimension, in.Values, sctx)
			if err != nil {
				return err
			}
			used, ok := sctx.UsedRange()
			if !ok {
				return fmt.Errorf("sheet %s has no used range", sheet)
			}
			if err := chart.Pivot(f, sheet, rng, used); err != nil {
				return err
			}
			out.WorkbookID = in.WorkbookID
			out.Sheet = sheet
			out.Logs = append(out.Logs, fmt.Sprintf("pivot built from %d source ranges", len(rng.Values)))
			return saveIfOnDisk(f)
		})
		if err != nil {
			if errors.Is(err, workbooks.ErrHandleNotFound) {
				return mcperr.New(mcperr.InvalidHandle, ""), nil
			}
			if isNoValueRanges(err) {
				return mcperr.Wrapf(mcperr.NoValueRanges, "%v", err), nil
			}
			return mcperr.Wrapf(mcperr.PivotFailed, "%v", err), nil
		}
		summary := "pivot table created on " + out.Sheet
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(createPivot)
}

// chartError maps chart pipeline failures onto catalog codes.
func chartError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, workbooks.ErrHandleNotFound):
		return mcperr.New(mcperr.InvalidHandle, "")
	case mcperr.IsInvalidSheet(err):
		return mcperr.Wrapf(mcperr.InvalidSheet, "%v", err)
	case isNoValueRanges(err):
		return mcperr.Wrapf(mcperr.NoValueRanges, "%v", err)
	case isSaveError(err):
		return mcperr.Wrapf(mcperr.SaveFailed, "%v", err)
	default:
		return mcperr.Wrapf(mcperr.ChartFailed, "%v", err)
	}
}

func isNoValueRanges(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no usable value ranges") || strings.Contains(msg, "dimension or values")
}

func isSaveError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "save workbook")
}

// saveIfOnDisk persists the workbook when it was opened from a path; adopted
// in-memory workbooks stay in memory.
func saveIfOnDisk(f *excelize.File) error {
	if f.Path == "" {
		return nil
	}
	if err := f.Save(); err != nil {
		return fmt.Errorf("save workbook %s: %w", f.Path, err)
	}
	return nil
}
