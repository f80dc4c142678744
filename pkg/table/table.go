// Package table renders index-first markdown pipe tables.
package table

import (
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

// Table is a small frame of string cells keyed by an index column.
type Table struct {
	index   string
	columns []string
	rows    [][]string
}

func New(index string, columns ...string) *Table {
	return &Table{index: index, columns: columns}
}

// Append adds a row. Missing cells are blank; extra cells are dropped.
func (t *Table) Append(index string, cells ...string) {
	row := make([]string, len(t.columns)+1)
	row[0] = index
	copy(row[1:], cells)
	t.rows = append(t.rows, row)
}

// AppendValues formats each value with Cell.
func (t *Table) AppendValues(index string, values ...interface{}) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = Cell(v)
	}
	t.Append(index, cells...)
}

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) Columns() []string { return t.columns }

// Markdown renders the table in pipe format without wrapping.
func (t *Table) Markdown() string {
	var sb strings.Builder
	w := tablewriter.NewWriter(&sb)
	w.SetHeader(append([]string{t.index}, t.columns...))
	w.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	w.SetCenterSeparator("|")
	w.SetAutoFormatHeaders(false)
	w.SetAutoWrapText(false)
	w.SetAlignment(tablewriter.ALIGN_LEFT)
	w.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	w.AppendBulk(t.rows)
	w.Render()
	return strings.TrimRight(sb.String(), "\n")
}

// Cell formats a value the way a data frame prints it.
func Cell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return Float(x)
	case *float64:
		if x == nil {
			return "nan"
		}
		return Float(*x)
	case float32:
		return Float(float64(x))
	case int:
		return fmt.Sprintf("%d", x)
	case int64:
		return fmt.Sprintf("%d", x)
	case bool:
		if x {
			return "True"
		}
		return "False"
	case time.Time:
		return Date(x)
	case decimal.Decimal:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// Float prints up to 6 decimal places without trailing zeros.
func Float(v float64) string {
	return decimal.NewFromFloat(v).Round(6).String()
}

// Fixed prints v with exactly places decimals.
func Fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// Percent prints a fraction as a percentage rounded to 2 places, e.g. "5.12%".
func Percent(frac float64) string {
	return decimal.NewFromFloat(frac).Mul(decimal.NewFromInt(100)).Round(2).String() + "%"
}

// Date prints a day stamp, or a full timestamp when the time is not midnight.
func Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04:05")
}
