// Package xlsxexport renders query results as an Excel workbook.
package xlsxexport

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"invosight/internal/domain"
)

const sheetName = "Results"

// WriteResult renders a query result into a single-sheet workbook: one
// header row from the result columns, then one row per result row.
func WriteResult(result *domain.QueryResult) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("removing default sheet: %w", err)
	}

	for i, col := range result.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, col.Name); err != nil {
			return nil, fmt.Errorf("writing header: %w", err)
		}
	}

	for r, row := range result.Rows {
		for c, val := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, val); err != nil {
				return nil, fmt.Errorf("writing row %d: %w", r, err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serializing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
