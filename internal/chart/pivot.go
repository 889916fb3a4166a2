package chart

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/peelpotato/fastbi/internal/refspec"
)

// Pivot summarizes the resolved ranges into a pivot table placed two columns
// right of the source block. The source block is the bounding rectangle of
// the dimension and value regions, widened to start at the sheet's header
// row and reach its last used row and column. The block's first column becomes the row
// field; every other column becomes a summed data field.
func Pivot(f *excelize.File, sheet string, rng Ranges, used refspec.Bounds) error {
	regions := rng.Values
	if rng.Dimension != nil {
		regions = append([]refspec.Region{*rng.Dimension}, regions...)
	}
	block, ok := refspec.Bounding(regions)
	if !ok {
		return fmt.Errorf("no source ranges for pivot")
	}
	if block.FirstRow > used.FirstRow {
		block.FirstRow = used.FirstRow
	}
	if block.LastRow < used.LastRow {
		block.LastRow = used.LastRow
	}
	if block.LastCol < used.LastCol {
		block.LastCol = used.LastCol
	}
	if block.Rows() < 2 {
		return fmt.Errorf("pivot source needs a header row and at least one data row")
	}

	headers := make([]string, 0, block.Cols())
	for c := block.FirstCol; c <= block.LastCol; c++ {
		cell, err := excelize.CoordinatesToCellName(c, block.FirstRow)
		if err != nil {
			return fmt.Errorf("pivot source column %d: %w", c, err)
		}
		v, err := f.GetCellValue(sheet, cell)
		if err != nil {
			return fmt.Errorf("pivot header at %s: %w", cell, err)
		}
		if v == "" {
			return fmt.Errorf("pivot source column %s has no header", cell)
		}
		headers = append(headers, v)
	}

	data := make([]excelize.PivotTableField, 0, len(headers)-1)
	for _, h := range headers[1:] {
		data = append(data, excelize.PivotTableField{Data: h, Subtotal: "Sum", Name: "Sum of " + h})
	}
	if len(data) == 0 {
		return fmt.Errorf("pivot needs at least one value column beyond the row field")
	}

	destFirstCol := block.LastCol + 2
	destLastCol := destFirstCol + len(headers)
	destLastRow := block.FirstRow + block.Rows() + 2

	srcRef, err := areaRef(sheet, block.FirstCol, block.FirstRow, block.LastCol, block.LastRow)
	if err != nil {
		return err
	}
	dstRef, err := areaRef(sheet, destFirstCol, block.FirstRow, destLastCol, destLastRow)
	if err != nil {
		return err
	}

	opts := &excelize.PivotTableOptions{
		DataRange:       srcRef,
		PivotTableRange: dstRef,
		Rows:            []excelize.PivotTableField{{Data: headers[0]}},
		Data:            data,
		RowGrandTotals:  true,
		ColGrandTotals:  true,
	}
	if err := f.AddPivotTable(opts); err != nil {
		return fmt.Errorf("add pivot table: %w", err)
	}
	return nil
}

func areaRef(sheet string, fc, fr, lc, lr int) (string, error) {
	first, err := excelize.CoordinatesToCellName(fc, fr)
	if err != nil {
		return "", fmt.Errorf("pivot range: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(lc, lr)
	if err != nil {
		return "", fmt.Errorf("pivot range: %w", err)
	}
	return fmt.Sprintf("%s!%s:%s", sheet, first, last), nil
}
