package cid10

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "CID-10"

// ExportXLSX writes the catalog to a workbook for the clinic staff, who
// keep their billing code lists in spreadsheets.
func ExportXLSX(c *Catalog, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetCellValue(xlsxSheet, "A1", "Código"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetCellValue(xlsxSheet, "B1", "Descrição"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, code := range c.Codes() {
		row := i + 2
		if err := f.SetCellValue(xlsxSheet, fmt.Sprintf("A%d", row), code.Code); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		if err := f.SetCellValue(xlsxSheet, fmt.Sprintf("B%d", row), code.Name); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
