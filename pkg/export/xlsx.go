package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	minColumnWidth = 10
	maxColumnWidth = 50
)

// WriteXLSX renders the table as a single-sheet workbook with a frozen,
// filterable header row
func WriteXLSX(w io.Writer, sheet string, table *Table) error {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headerStyle, err := file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	dateStyle, err := file.NewStyle(&excelize.Style{NumFmt: 22}) // m/d/yy h:mm
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	widths := make([]float64, len(table.Columns))
	for i, col := range table.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := file.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
		widths[i] = float64(len(col)) * 1.2
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(table.Columns), 1)
	if err := file.SetCellStyle(sheet, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	for r, row := range table.Rows {
		for c, val := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := setCell(file, sheet, cell, val, dateStyle); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
			if width := float64(len(formatValue(val))) * 1.2; width > widths[c] {
				widths[c] = width
			}
		}
	}

	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if width < minColumnWidth {
			width = minColumnWidth
		}
		if width > maxColumnWidth {
			width = maxColumnWidth
		}
		if err := file.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	if err := file.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}
	if len(table.Rows) > 0 {
		if err := file.AutoFilter(sheet, "A1:"+lastHeader, nil); err != nil {
			return err
		}
	}

	return file.Write(w)
}

func setCell(file *excelize.File, sheet, cell string, val interface{}, dateStyle int) error {
	switch v := val.(type) {
	case time.Time:
		if v.IsZero() {
			return nil
		}
		if err := file.SetCellValue(sheet, cell, v.UTC()); err != nil {
			return err
		}
		return file.SetCellStyle(sheet, cell, cell, dateStyle)
	case *time.Time:
		if v == nil || v.IsZero() {
			return nil
		}
		return setCell(file, sheet, cell, *v, dateStyle)
	case int, int64, float64, string:
		return file.SetCellValue(sheet, cell, v)
	default:
		return file.SetCellValue(sheet, cell, formatValue(v))
	}
}
