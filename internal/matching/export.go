package matching

import (
	"context"
	"fmt"
	"io"

	"givehub/portal-backend/pkg/export"
)

const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

var exportColumns = []string{
	"Match ID", "Type", "Status", "Item", "Quantity", "Category",
	"Donor", "Donor Email", "Receiver", "Receiver Email",
	"Execution Requested", "Created", "Executed", "Completed",
}

// ExportTable lays matches out one per row
func ExportTable(matches []Match) *export.Table {
	table := &export.Table{Columns: exportColumns}
	for _, m := range matches {
		table.Rows = append(table.Rows, []interface{}{
			m.ID.String(), string(m.MatchType), m.Status, m.ItemName, m.Quantity, m.Category,
			m.DonorName, m.DonorEmail, m.ReceiverName, m.ReceiverEmail,
			m.ExecutionRequested, m.CreatedAt, m.ExecutedAt, m.CompletedAt,
		})
	}
	return table
}

// Export writes the matches selected by filter in the given format
func Export(ctx context.Context, svc Service, w io.Writer, filter Filter, format string) error {
	matches, err := svc.List(ctx, filter)
	if err != nil {
		return err
	}

	table := ExportTable(matches)
	switch format {
	case FormatCSV:
		return export.WriteCSV(w, table)
	case FormatXLSX, "":
		return export.WriteXLSX(w, "Matches", table)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}
