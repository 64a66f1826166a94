package export

import (
	"fmt"
	"time"
)

// Table is a rectangular data set with a header row
type Table struct {
	Columns []string
	Rows    [][]interface{}
}

func (t *Table) Append(row ...interface{}) error {
	if len(row) != len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

const timestampFormat = "2006-01-02 15:04:05"

// formatValue renders a cell as text. Nil pointers become empty cells.
func formatValue(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.UTC().Format(timestampFormat)
	case *time.Time:
		if v == nil || v.IsZero() {
			return ""
		}
		return v.UTC().Format(timestampFormat)
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
