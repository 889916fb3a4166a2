package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/xuri/excelize/v2"

	"github.com/peelpotato/fastbi/config"
	"github.com/peelpotato/fastbi/internal/reshape"
	"github.com/peelpotato/fastbi/internal/sheetio"
	"github.com/peelpotato/fastbi/internal/workbooks"
	"github.com/peelpotato/fastbi/pkg/mcperr"
	"github.com/peelpotato/fastbi/pkg/validation"
)

// TransformInput addresses a reshape operation at a workbook's active sheet.
type TransformInput struct {
	WorkbookID string `json:"workbook_id" validate:"required" jsonschema_description:"Workbook handle ID"`
}

// SelectColumnsInput adds the auto toggle to the base transform input.
type SelectColumnsInput struct {
	WorkbookID string `json:"workbook_id" validate:"required" jsonschema_description:"Workbook handle ID"`
	Auto       bool   `json:"auto,omitempty" jsonschema_description:"Use only the dictionary mappings, no standard default columns"`
}

// SumByGroupInput selects the aggregation variant.
type SumByGroupInput struct {
	WorkbookID string `json:"workbook_id" validate:"required" jsonschema_description:"Workbook handle ID"`
	Mode       string `json:"mode,omitempty" validate:"omitempty,oneof=group roster_group filter" jsonschema_description:"group: per-employee sums with subtotals; roster_group: one row per roster group; filter: rostered rows only"`
}

// TransformOutput reports a written result sheet.
type TransformOutput struct {
	WorkbookID  string   `json:"workbook_id"`
	ResultSheet string   `json:"result_sheet" jsonschema_description:"Sheet the result table was written to"`
	Rows        int      `json:"rows" jsonschema_description:"Result row count (header excluded)"`
	Summary     string   `json:"summary"`
	Logs        []string `json:"logs"`
}

// RegisterReshapeTools wires the transform_* tools. They are hidden by the
// write filter unless FASTBI_ENABLE_WRITES is set.
func RegisterReshapeTools(s *server.MCPServer, reg *Registry, mgr *workbooks.Manager, loc reshape.Locator) {
	enrich := mcp.NewTool(
		"transform_enrich",
		mcp.WithDescription("Join employee metadata (group, id, name) from the employee roster workbook onto the active sheet and write the result to the 'info' sheet."),
		mcp.WithString("workbook_id", mcp.Required(), mcp.Description("Workbook handle ID")),
		mcp.WithOutputSchema[TransformOutput](),
	)
	s.AddTool(enrich, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in TransformInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		lookup, path, err := loc.LoadEmployees()
		if err != nil {
			return mcperr.Wrapf(mcperr.LookupMissing, "%v", err), nil
		}
		return runTransform(mgr, in.WorkbookID, config.EnrichResultSheet,
			[]string{"employee roster loaded from " + path},
			func(input *reshape.Table) (*reshape.Result, error) {
				return reshape.Enrich(input, lookup)
			})
	}))
	reg.Register(enrich)

	selectCols := mcp.NewTool(
		"transform_select_columns",
		mcp.WithDescription("Project the active sheet down to the standard employee columns plus dictionary-mapped ones and write the result to the 'slc' sheet. Set auto=true to use only the dictionary."),
		mcp.WithString("workbook_id", mcp.Required(), mcp.Description("Workbook handle ID")),
		mcp.WithBoolean("auto", mcp.DefaultBool(false), mcp.Description("Use only the dictionary mappings")),
		mcp.WithOutputSchema[TransformOutput](),
	)
	s.AddTool(selectCols, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in SelectColumnsInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		dict, path, err := loc.LoadDictionary()
		if err != nil {
			return mcperr.Wrapf(mcperr.LookupMissing, "%v", err), nil
		}
		return runTransform(mgr, in.WorkbookID, config.SelectResultSheet,
			[]string{fmt.Sprintf("dictionary loaded from %s (%d mappings)", path, len(dict))},
			func(input *reshape.Table) (*reshape.Result, error) {
				if in.Auto {
					return reshape.AutoSelectColumns(input, dict)
				}
				return reshape.SelectColumns(input, dict)
			})
	}))
	reg.Register(selectCols)

	sumTool := mcp.NewTool(
		"transform_sum_by_group",
		mcp.WithDescription("Filter the active sheet to rostered employees and aggregate: per-employee sums with group subtotals and a grand total (mode=group), one row per roster group (mode=roster_group), or the filtered rows only (mode=filter). Writes to the 'sum' sheet."),
		mcp.WithString("workbook_id", mcp.Required(), mcp.Description("Workbook handle ID")),
		mcp.WithString("mode", mcp.DefaultString("group"), mcp.Enum("group", "roster_group", "filter"), mcp.Description("Aggregation variant")),
		mcp.WithOutputSchema[TransformOutput](),
	)
	s.AddTool(sumTool, mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in SumByGroupInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
		roster, path, err := loc.LoadEmployees()
		if err != nil {
			return mcperr.Wrapf(mcperr.LookupMissing, "%v", err), nil
		}
		return runTransform(mgr, in.WorkbookID, config.SumResultSheet,
			[]string{"employee roster loaded from " + path},
			func(input *reshape.Table) (*reshape.Result, error) {
				switch in.Mode {
				case "roster_group":
					return reshape.SumByRosterGroup(input, roster)
				case "filter":
					return reshape.FilterByRoster(input, roster)
				default:
					return reshape.SumByGroup(input, roster)
				}
			})
	}))
	reg.Register(sumTool)
}

// runTransform reads the active sheet, applies op, writes the result sheet,
// and persists the workbook, all under the handle's write lock.
func runTransform(mgr *workbooks.Manager, workbookID, resultSheet string, logs []string, op func(*reshape.Table) (*reshape.Result, error)) (*mcp.CallToolResult, error) {
	var out TransformOutput
	err := mgr.WithWrite(workbookID, func(f *excelize.File, sheet string) error {
		input, err := sheetio.ReadTable(f, sheet)
		if err != nil {
			return err
		}
		logs = append(logs, fmt.Sprintf("read %d rows from %s", len(input.Rows), sheet))

		res, err := op(input)
		if err != nil {
			return err
		}
		if err := sheetio.WriteTable(f, resultSheet, res.Table); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
		logs = append(logs, res.Summary, "result written to sheet "+resultSheet)

		out = TransformOutput{
			WorkbookID:  workbookID,
			ResultSheet: resultSheet,
			Rows:        len(res.Table.Rows),
			Summary:     res.Summary,
			Logs:        logs,
		}
		return saveIfOnDisk(f)
	})
	if err != nil {
		return transformError(err), nil
	}
	res := mcp.NewToolResultStructured(out, out.Summary)
	res.Content = []mcp.Content{mcp.NewTextContent(strings.Join(out.Logs, "\n"))}
	return res, nil
}

// transformError maps reshape pipeline failures onto catalog codes.
func transformError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, workbooks.ErrHandleNotFound):
		return mcperr.New(mcperr.InvalidHandle, "")
	case mcperr.IsInvalidSheet(err):
		return mcperr.Wrapf(mcperr.InvalidSheet, "%v", err)
	case isSaveError(err):
		return mcperr.Wrapf(mcperr.SaveFailed, "%v", err)
	case strings.HasPrefix(err.Error(), "write result"):
		return mcperr.Wrapf(mcperr.WriteFailed, "%v", err)
	default:
		return mcperr.Wrapf(mcperr.ReshapeFailed, "%v", err)
	}
}
