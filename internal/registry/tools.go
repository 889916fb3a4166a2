package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xuri/excelize/v2"

	"github.com/peelpotato/fastbi/internal/runtime"
	"github.com/peelpotato/fastbi/internal/security"
	"github.com/peelpotato/fastbi/internal/workbooks"
	"github.com/peelpotato/fastbi/pkg/mcperr"
	"github.com/peelpotato/fastbi/pkg/validation"
)

// OpenWorkbookInput defines parameters for opening a workbook.
type OpenWorkbookInput struct {
	Path string `json:"path" validate:"required,filepath_ext" jsonschema_description:"Absolute or allowed path to an Excel workbook"`
}

// OpenWorkbookOutput documents the response fields for open_workbook.
type OpenWorkbookOutput struct {
	WorkbookID      string `json:"workbook_id" jsonschema_description:"Server-assigned workbook handle ID"`
	ActiveSheet     string `json:"active_sheet" jsonschema_description:"Sheet subsequent tools operate on"`
	MaxCellsPerOp   int    `json:"maxCellsPerOp" jsonschema_description:"Effective cell count limit per operation"`
	PreviewRowLimit int    `json:"previewRowLimit" jsonschema_description:"Default row limit for previews"`
}

// CloseWorkbookInput defines parameters for closing a workbook.
type CloseWorkbookInput struct {
	WorkbookID string `json:"workbook_id" validate:"required" jsonschema_description:"Workbook handle ID to close"`
}

// CloseWorkbookOutput reports the close outcome.
type CloseWorkbookOutput struct {
	Success bool `json:"success" jsonschema_description:"True when the handle was closed"`
}

// SheetInfo summarizes a sheet without loading full data.
type SheetInfo struct {
	Name        string   `json:"name" jsonschema_description:"Sheet name"`
	RowCount    int      `json:"rowCount" jsonschema_description:"Used-range row count"`
	ColumnCount int      `json:"columnCount" jsonschema_description:"Used-range column count"`
	Headers     []string `json:"headers,omitempty" jsonschema_description:"First row when present"`
	Active      bool     `json:"active,omitempty" jsonschema_description:"True for the active sheet"`
}

// ListStructureInput defines parameters for structure discovery.
type ListStructureInput struct {
	WorkbookID string `json:"workbook_id" validate:"required" jsonschema_description:"Workbook handle ID"`
}

// ListStructureOutput summarizes workbook structure.
type ListStructureOutput struct {
	WorkbookID string      `json:"workbook_id"`
	Sheets     []SheetInfo `json:"sheets"`
}

// SetActiveSheetInput defines parameters for selecting the working sheet.
type SetActiveSheetInput struct {
	WorkbookID string `json:"workbook_id" validate:"required" jsonschema_description:"Workbook handle ID"`
	Sheet      string `json:"sheet" validate:"required" jsonschema_description:"Sheet name to make active"`
}

// SetActiveSheetOutput confirms the selection.
type SetActiveSheetOutput struct {
	WorkbookID  string `json:"workbook_id"`
	ActiveSheet string `json:"active_sheet"`
}

// RegisterWorkbookTools wires the workbook lifecycle tools.
func RegisterWorkbookTools(s *server.MCPServer, reg *Registry, limits runtime.Limits, mgr *workbooks.Manager) {
	openTool := mcp.NewTool(
		"open_workbook",
		mcp.WithDescription("Open a workbook and return a handle ID with its active sheet and effective limits"),
		mcp.WithString("path", mcp.Required(), mcp.Description("Absolute or allowed path to an Excel workbook (.xlsx, .xlsm, .xltx, .xltm)")),
		mcp.WithOutputSchema[OpenWorkbookOutput](),
	)
	s.AddTool(openTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in OpenWorkbookInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		id, err := mgr.Open(ctx, in.Path)
		if err != nil {
			return openError(err), nil
		}
		h, ok := mgr.Get(id)
		if !ok {
			return mcperr.New(mcperr.OpenFailed, "handle vanished after open"), nil
		}
		out := OpenWorkbookOutput{
			WorkbookID:      id,
			ActiveSheet:     h.ActiveSheet,
			MaxCellsPerOp:   limits.MaxCellsPerOp,
			PreviewRowLimit: limits.PreviewRowLimit,
		}
		summary := fmt.Sprintf("opened %s (active sheet %s)", in.Path, h.ActiveSheet)
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(openTool)

	closeTool := mcp.NewTool(
		"close_workbook",
		mcp.WithDescription("Close a previously opened workbook handle"),
		mcp.WithString("workbook_id", mcp.Required(), mcp.Description("Workbook handle ID")),
		mcp.WithOutputSchema[CloseWorkbookOutput](),
	)
	s.AddTool(closeTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in CloseWorkbookInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		if err := mgr.CloseHandle(ctx, in.WorkbookID); err != nil {
			if errors.Is(err, workbooks.ErrHandleNotFound) {
				return mcperr.New(mcperr.InvalidHandle, ""), nil
			}
			return mcperr.Wrapf(mcperr.SaveFailed, "close: %v", err), nil
		}
		res := mcp.NewToolResultStructured(CloseWorkbookOutput{Success: true}, "workbook closed")
		res.Content = []mcp.Content{mcp.NewTextContent("workbook closed")}
		return res, nil
	}))
	reg.Register(closeTool)

	listStructure := mcp.NewTool(
		"list_structure",
		mcp.WithDescription("Return workbook structure: sheets, dimensions, headers (no cell data)"),
		mcp.WithString("workbook_id", mcp.Required(), mcp.Description("Workbook handle ID")),
		mcp.WithOutputSchema[ListStructureOutput](),
	)
	s.AddTool(listStructure, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ListStructureInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		out := ListStructureOutput{WorkbookID: in.WorkbookID}
		err := mgr.WithRead(in.WorkbookID, func(f *excelize.File, active string) error {
			for _, name := range f.GetSheetList() {
				info := SheetInfo{Name: name, Active: name == active}
				if rows, cols, ok := sheetExtent(f, name); ok {
					info.RowCount = rows
					info.ColumnCount = cols
					info.Headers = headerRow(f, name)
				}
				out.Sheets = append(out.Sheets, info)
			}
			return nil
		})
		if err != nil {
			if errors.Is(err, workbooks.ErrHandleNotFound) {
				return mcperr.New(mcperr.InvalidHandle, ""), nil
			}
			return mcperr.Wrapf(mcperr.DiscoveryFailed, "%v", err), nil
		}
		summary := fmt.Sprintf("%d sheets", len(out.Sheets))
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(listStructure)

	setActive := mcp.NewTool(
		"set_active_sheet",
		mcp.WithDescription("Select the sheet subsequent chart and transform tools operate on"),
		mcp.WithString("workbook_id", mcp.Required(), mcp.Description("Workbook handle ID")),
		mcp.WithString("sheet", mcp.Required(), mcp.Description("Sheet name to make active")),
		mcp.WithOutputSchema[SetActiveSheetOutput](),
	)
	s.AddTool(setActive, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in SetActiveSheetInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		if err := mgr.SetActiveSheet(in.WorkbookID, in.Sheet); err != nil {
			if errors.Is(err, workbooks.ErrHandleNotFound) {
				return mcperr.New(mcperr.InvalidHandle, ""), nil
			}
			return mcperr.Wrapf(mcperr.InvalidSheet, "%v", err), nil
		}
		out := SetActiveSheetOutput{WorkbookID: in.WorkbookID, ActiveSheet: in.Sheet}
		summary := "active sheet set to " + in.Sheet
		res := mcp.NewToolResultStructured(out, summary)
		res.Content = []mcp.Content{mcp.NewTextContent(summary)}
		return res, nil
	}))
	reg.Register(setActive)
}

// openError maps manager and security failures onto catalog codes.
func openError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, security.ErrNotAllowed):
		return mcperr.New(mcperr.PermissionDenied, "")
	case errors.Is(err, security.ErrUnsupportedExtension):
		return mcperr.New(mcperr.UnsupportedFormat, "")
	case errors.Is(err, security.ErrNotFound):
		return mcperr.Wrapf(mcperr.OpenFailed, "file not found")
	case errors.Is(err, context.DeadlineExceeded):
		return mcperr.New(mcperr.BusyResource, "open workbook capacity reached")
	default:
		return mcperr.Wrapf(mcperr.OpenFailed, "%v", err)
	}
}

// sheetExtent reads the used-range size from the sheet dimension.
func sheetExtent(f *excelize.File, sheet string) (rows, cols int, ok bool) {
	dim, err := f.GetSheetDimension(sheet)
	if err != nil || dim == "" {
		return 0, 0, false
	}
	first, rest, found := strings.Cut(dim, ":")
	fc, fr, err := excelize.CellNameToCoordinates(first)
	if err != nil {
		return 0, 0, false
	}
	lc, lr := fc, fr
	if found {
		lc, lr, err = excelize.CellNameToCoordinates(rest)
		if err != nil {
			return 0, 0, false
		}
	}
	return lr - fr + 1, lc - fc + 1, true
}

// headerRow returns the first used row of a sheet via the streaming reader.
func headerRow(f *excelize.File, sheet string) []string {
	it, err := f.Rows(sheet)
	if err != nil {
		return nil
	}
	defer it.Close()
	if !it.Next() {
		return nil
	}
	cols, err := it.Columns()
	if err != nil {
		return nil
	}
	return cols
}
