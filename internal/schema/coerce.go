package schema

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"02.01.2006 15:04",
	"02.01.2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Excel serial dates outside this range are treated as plain numbers.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// parseTime accepts time values, Excel serial numbers and the common text
// layouts. Results are in UTC.
func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t.UTC(), true
	case float64:
		return excelSerial(t)
	case float32:
		return excelSerial(float64(t))
	case int:
		return excelSerial(float64(t))
	case int64:
		return excelSerial(float64(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func excelSerial(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || serial < minExcelSerial || serial > maxExcelSerial {
		return time.Time{}, false
	}
	ts, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

var (
	currencyNoise = strings.NewReplacer("$", "", "€", "", "£", "", "¥", "", "₹", "", " ", "", " ", "", "'", "")
	currencyCode  = regexp.MustCompile(`^[A-Za-z]{3}|[A-Za-z]{3}$`)
	decimalComma  = regexp.MustCompile(`^-?\d+,\d{1,2}$`)
)

// parseDecimal reads numbers and money strings such as "$1,234.50",
// "(12.00)" or "12,50 EUR".
func parseDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Decimal{}, false
	case decimal.Decimal:
		return n, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		return parseDecimal(float64(n))
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case string:
		return parseMoneyString(n)
	}
	return decimal.Decimal{}, false
}

func parseMoneyString(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Decimal{}, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = currencyCode.ReplaceAllString(strings.TrimSpace(s), "")
	s = currencyNoise.Replace(s)
	if decimalComma.MatchString(s) {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// parseAmount returns a float amount; NaN and false when unparseable.
func parseAmount(v any) (float64, bool) {
	d, ok := parseDecimal(v)
	if !ok {
		return math.NaN(), false
	}
	return d.InexactFloat64(), true
}

// parseQuantity accepts integers and integral decimals.
func parseQuantity(v any) (int64, bool) {
	d, ok := parseDecimal(v)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	return d.IntPart(), true
}

// parseIdentifier renders a cell as an identifier string. Integral floats
// lose their fractional part, so 17850.0 becomes "17850".
func parseIdentifier(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", false
	case string:
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") {
			return "", false
		}
		return s, true
	case float64:
		if math.IsNaN(s) {
			return "", false
		}
		if s == math.Trunc(s) && math.Abs(s) < 1e15 {
			return strconv.FormatInt(int64(s), 10), true
		}
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case time.Time:
		return s.UTC().Format(time.RFC3339), true
	}
	return "", false
}
