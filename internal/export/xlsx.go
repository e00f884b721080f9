package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet every XLSX export contains.
const SheetName = "Sheet1"

// pxPerChar converts grid pixel widths to Excel character widths.
const pxPerChar = 7.0

// WriteXLSX writes snap as a one-sheet workbook. The header and footer rows
// are bold; column widths follow the grid's sizing.
func WriteXLSX(w io.Writer, snap Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx style: %w", err)
	}

	row := 1
	if err := setRow(f, row, snap.Header, bold); err != nil {
		return err
	}
	for _, r := range snap.Body {
		row++
		if err := setRow(f, row, r, 0); err != nil {
			return err
		}
	}
	if snap.HasFooter() {
		row++
		if err := setRow(f, row, snap.Footer, bold); err != nil {
			return err
		}
	}

	for i, px := range snap.Widths {
		if px <= 0 {
			continue
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("xlsx column %d: %w", i+1, err)
		}
		if err := f.SetColWidth(SheetName, col, col, float64(px)/pxPerChar); err != nil {
			return fmt.Errorf("xlsx column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []string, style int) error {
	if len(values) == 0 {
		return nil
	}
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx row %d: %w", row, err)
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(SheetName, start, &cells); err != nil {
		return fmt.Errorf("xlsx row %d: %w", row, err)
	}
	if style == 0 {
		return nil
	}
	end, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return fmt.Errorf("xlsx row %d: %w", row, err)
	}
	return f.SetCellStyle(SheetName, start, end, style)
}
