package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	completed := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC)
	table := &Table{Columns: []string{"Item", "Quantity", "Requested", "Completed"}}
	require.NoError(t, table.Append("Blankets", 12, true, &completed))
	require.NoError(t, table.Append("Rice, 5kg", 3, false, (*time.Time)(nil)))
	return table
}

func TestAppendChecksWidth(t *testing.T) {
	table := &Table{Columns: []string{"a", "b"}}
	assert.Error(t, table.Append("only one"))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable(t)))

	assert.Equal(t,
		"Item,Quantity,Requested,Completed\n"+
			"Blankets,12,yes,2026-03-04 10:30:00\n"+
			"\"Rice, 5kg\",3,no,\n",
		buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "Matches", sampleTable(t)))

	file, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer file.Close()

	rows, err := file.GetRows("Matches")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Item", "Quantity", "Requested", "Completed"}, rows[0])
	assert.Equal(t, "Blankets", rows[1][0])
	assert.Equal(t, "12", rows[1][1])
	assert.Equal(t, "yes", rows[1][2])
}
