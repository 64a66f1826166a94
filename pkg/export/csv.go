package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV writes the table with a header row
func WriteCSV(w io.Writer, table *Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(table.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i, val := range row {
			record[i] = formatValue(val)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
