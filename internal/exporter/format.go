package exporter

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// ratio marks values such as seasonal factors that need more than two
// decimal places.
type ratio float64

// formatFloat formats a float64 value for CSV output with exactly 2 decimal
// places. NaN becomes an empty cell.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return fmt.Sprintf("%.2f", f)
}

func formatRatio(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return fmt.Sprintf("%.4f", f)
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatBool formats a boolean value for CSV output
func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// formatCell renders one table cell as CSV text.
func formatCell(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return formatFloat(c)
	case ratio:
		return formatRatio(float64(c))
	case int:
		return formatInt(int64(c))
	case int64:
		return formatInt(c)
	case bool:
		return formatBool(c)
	case time.Time:
		return formatTime(c)
	case time.Duration:
		return c.String()
	case fmt.Stringer:
		return c.String()
	}
	return fmt.Sprint(v)
}

// sheetCell converts a table cell into a value excelize stores natively.
// NaN has no spreadsheet representation and is left blank.
func sheetCell(v any) any {
	switch c := v.(type) {
	case float64:
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil
		}
		return c
	case ratio:
		return sheetCell(float64(c))
	case time.Duration:
		return c.String()
	}
	return v
}
