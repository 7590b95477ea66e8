package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// FixtureStart is the first order date of the generated fixtures, a Monday.
var FixtureStart = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

// LinearSalesCSV returns a CSV export with one order per day whose total
// grows by step each day, starting at base.
func LinearSalesCSV(days int, start time.Time, base, step float64) string {
	var b strings.Builder
	b.WriteString("Order ID,Order Date,Total\n")
	for i := 0; i < days; i++ {
		fmt.Fprintf(&b, "SO-%d,%s,%.2f\n", i, start.AddDate(0, 0, i).Format("2006-01-02"), base+step*float64(i))
	}
	return b.String()
}

// WriteFile writes content under dir, creating parents, and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}
