// Package mcperr defines the canonical tool error catalog: stable codes,
// standard messages, and inline next-step guidance for MCP clients that only
// surface a message string.
package mcperr

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// Code defines a canonical MCP error code used across tools.
type Code string

const (
	// Validation & Input
	Validation    Code = "VALIDATION"
	InvalidHandle Code = "INVALID_HANDLE"
	InvalidSheet  Code = "INVALID_SHEET"
	NoValueRanges Code = "NO_VALUE_RANGES"

	// Resource & Limits
	BusyResource Code = "BUSY_RESOURCE"
	Timeout      Code = "TIMEOUT"

	// IO & Formats
	OpenFailed      Code = "OPEN_FAILED"
	DiscoveryFailed Code = "DISCOVERY_FAILED"
	WriteFailed     Code = "WRITE_FAILED"
	SaveFailed      Code = "SAVE_FAILED"

	// Charting & Reshape
	ChartFailed   Code = "CHART_FAILED"
	PivotFailed   Code = "PIVOT_FAILED"
	ReshapeFailed Code = "RESHAPE_FAILED"
	LookupMissing Code = "LOOKUP_MISSING"

	// Integrity
	UnsupportedFormat Code = "UNSUPPORTED_FORMAT"
	PermissionDenied  Code = "PERMISSION_DENIED"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation:    {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per schema and retry", "See examples in tool description"}},
	InvalidHandle: {Code: InvalidHandle, Message: "workbook handle not found or expired", Retryable: true, NextSteps: []string{"Reopen the workbook via path and retry"}},
	InvalidSheet:  {Code: InvalidSheet, Message: "sheet not found", Retryable: true, NextSteps: []string{"Call list_structure to verify sheet names", "Check case and spacing"}},
	NoValueRanges: {Code: NoValueRanges, Message: "no usable value ranges resolved", Retryable: true, NextSteps: []string{"Give value columns as letters (B,C), spans (B:D), addresses (B2:B10), or (cols)*(rows)"}},

	BusyResource: {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},
	Timeout:      {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Narrow the range or increase the timeout"}},

	OpenFailed:      {Code: OpenFailed, Message: "failed to open workbook", Retryable: true, NextSteps: []string{"Verify path, permissions, and format"}},
	DiscoveryFailed: {Code: DiscoveryFailed, Message: "failed to discover structure", Retryable: true, NextSteps: []string{"Retry or open the workbook and inspect"}},
	WriteFailed:     {Code: WriteFailed, Message: "failed to write result sheet", Retryable: false, NextSteps: []string{"Check the sheet is not protected and retry"}},
	SaveFailed:      {Code: SaveFailed, Message: "failed to save workbook", Retryable: true, NextSteps: []string{"Close the file in other programs and retry"}},

	ChartFailed:   {Code: ChartFailed, Message: "failed to render chart", Retryable: true, NextSteps: []string{"Verify the dimension and values ranges point at data"}},
	PivotFailed:   {Code: PivotFailed, Message: "failed to build pivot table", Retryable: true, NextSteps: []string{"Ensure the source block has a header row and a value column"}},
	ReshapeFailed: {Code: ReshapeFailed, Message: "failed to reshape sheet", Retryable: true, NextSteps: []string{"Check the sheet has a header row with employee columns"}},
	LookupMissing: {Code: LookupMissing, Message: "lookup workbook not found", Retryable: false, NextSteps: []string{"Place emp.xlsx or dict.xlsx in the data directory", "Set FASTBI_DATA_DIR"}},

	UnsupportedFormat: {Code: UnsupportedFormat, Message: "unsupported workbook format", Retryable: false, NextSteps: []string{"Convert to .xlsx and retry"}},
	PermissionDenied:  {Code: PermissionDenied, Message: "insufficient permissions to access path", Retryable: false, NextSteps: []string{"Adjust permissions or choose an allowed directory"}},
}

// normalize builds a standard error string including next steps for MCP clients that
// surface only a message string. Format: "CODE: message" followed by a guidance tail.
func normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// New returns an MCP error result for a given code and optional message override.
func New(code Code, message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, message))
}

// Wrapf formats details and returns an MCP error result for the code.
func Wrapf(code Code, format string, args ...any) *mcp.CallToolResult {
	return mcp.NewToolResultError(normalize(code, fmt.Sprintf(format, args...)))
}

// IsInvalidSheet reports whether an error matches common excelize "sheet does
// not exist" messages.
func IsInvalidSheet(err error) bool {
	if err == nil {
		return false
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "doesn't exist") || strings.Contains(low, "does not exist")
}
