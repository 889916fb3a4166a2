// Package sheetio bridges excelize workbooks to the refspec and reshape
// packages: it resolves addresses against a live sheet, reads a sheet into a
// table, and writes result tables back out.
package sheetio

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/peelpotato/fastbi/internal/refspec"
	"github.com/peelpotato/fastbi/internal/reshape"
)

// Context adapts one sheet of an open workbook to refspec.SheetContext.
type Context struct {
	File  *excelize.File
	Sheet string
}

// ResolveAddress turns "B2" or "B2:B5" into a region, normalizing reversed
// corners so the result always has positive extent.
func (c Context) ResolveAddress(ref string) (refspec.Region, error) {
	ref = strings.TrimSpace(ref)
	first, rest, _ := strings.Cut(ref, ":")
	fc, fr, err := excelize.CellNameToCoordinates(strings.TrimSpace(first))
	if err != nil {
		return refspec.Region{}, fmt.Errorf("address %q: %w", ref, err)
	}
	lc, lr := fc, fr
	if rest != "" {
		lc, lr, err = excelize.CellNameToCoordinates(strings.TrimSpace(rest))
		if err != nil {
			return refspec.Region{}, fmt.Errorf("address %q: %w", ref, err)
		}
	}
	if lr < fr {
		fr, lr = lr, fr
	}
	if lc < fc {
		fc, lc = lc, fc
	}
	return refspec.Region{FirstRow: fr, FirstCol: fc, LastRow: lr, LastCol: lc}, nil
}

// UsedRange reports the sheet's dimension rectangle. ok is false for an
// empty or unknown extent.
func (c Context) UsedRange() (refspec.Bounds, bool) {
	dim, err := c.File.GetSheetDimension(c.Sheet)
	if err != nil || dim == "" {
		return refspec.Bounds{}, false
	}
	first, rest, _ := strings.Cut(dim, ":")
	fc, fr, err := excelize.CellNameToCoordinates(first)
	if err != nil {
		return refspec.Bounds{}, false
	}
	lc, lr := fc, fr
	if rest != "" {
		lc, lr, err = excelize.CellNameToCoordinates(rest)
		if err != nil {
			return refspec.Bounds{}, false
		}
	}
	return refspec.Bounds{FirstRow: fr, LastRow: lr, FirstCol: fc, LastCol: lc}, true
}

// ReadTable loads a sheet into a reshape table. The first row is the header;
// short rows are padded by the table constructor.
func ReadTable(f *excelize.File, sheet string) (*reshape.Table, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}
	body := make([][]any, 0, len(rows)-1)
	for _, r := range rows[1:] {
		row := make([]any, len(r))
		for i, v := range r {
			row[i] = v
		}
		body = append(body, row)
	}
	return reshape.New(rows[0], body)
}

// WriteTable replaces the named sheet with the table's contents. Columns
// whose header is the standard employee id get a text format so leading
// zeros survive.
func WriteTable(f *excelize.File, sheet string, t *reshape.Table) error {
	if idx, err := f.GetSheetIndex(sheet); err == nil && idx >= 0 {
		if err := f.DeleteSheet(sheet); err != nil {
			return fmt.Errorf("replace sheet %s: %w", sheet, err)
		}
	}
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	f.SetActiveSheet(idx)

	for ci, col := range t.Columns {
		if col != reshape.ColID {
			continue
		}
		styleID, err := f.NewStyle(&excelize.Style{NumFmt: 49})
		if err != nil {
			return fmt.Errorf("text style: %w", err)
		}
		name, err := excelize.ColumnNumberToName(ci + 1)
		if err != nil {
			return fmt.Errorf("column %d: %w", ci+1, err)
		}
		if err := f.SetColStyle(sheet, name, styleID); err != nil {
			return fmt.Errorf("style column %s: %w", name, err)
		}
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for ri, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, ri+2)
		if err != nil {
			return fmt.Errorf("row %d: %w", ri+2, err)
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write row %d: %w", ri+2, err)
		}
	}
	return nil
}
