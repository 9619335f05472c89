package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// writeXLSX writes one sheet per table into a single workbook.
func writeXLSX(path string, tabs []table) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	for i, t := range tabs {
		if i == 0 {
			f.SetSheetName("Sheet1", t.name)
		} else {
			f.NewSheet(t.name)
		}

		header := make([]any, len(t.header))
		for j, h := range t.header {
			header[j] = h
		}
		if err := f.SetSheetRow(t.name, "A1", &header); err != nil {
			return fmt.Errorf("xlsx %s header: %w", t.name, err)
		}
		if err := f.SetRowStyle(t.name, 1, 1, headerStyle); err != nil {
			return fmt.Errorf("xlsx %s style: %w", t.name, err)
		}
		for r, row := range t.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			row := row
			if err := f.SetSheetRow(t.name, cell, &row); err != nil {
				return fmt.Errorf("xlsx %s row %d: %w", t.name, r+2, err)
			}
		}
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
