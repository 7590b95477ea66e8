package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{name: "orders.csv", want: FormatCSV},
		{name: "ORDERS.CSV", want: FormatCSV},
		{name: "export.txt", want: FormatCSV},
		{name: "online_retail.xlsx", want: FormatXLSX},
		{name: "report.pdf", wantErr: true},
		{name: "noext", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.name)
			if tt.wantErr {
				require.Error(t, err)
				typ, _ := apperrors.TypeOf(err)
				assert.Equal(t, apperrors.ErrTypeParsing, typ)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" .XLSX ")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("parquet")
	assert.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		columns  []string
		rows     int
		validate func(*testing.T, map[string][]any)
	}{
		{
			name:    "plain",
			input:   "InvoiceNo,InvoiceDate,Total\n536365,12/1/2010 8:26,15.30\n536366,12/1/2010 8:28,22.00\n",
			columns: []string{"InvoiceNo", "InvoiceDate", "Total"},
			rows:    2,
			validate: func(t *testing.T, v map[string][]any) {
				assert.Equal(t, "536365", v["InvoiceNo"][0])
				assert.Equal(t, "22.00", v["Total"][1])
			},
		},
		{
			name:    "bom is stripped",
			input:   "\ufeffdate,amount\n2024-01-01,10\n",
			columns: []string{"date", "amount"},
			rows:    1,
		},
		{
			name:    "ragged rows are padded",
			input:   "a,b,c\n1,2\n4,5,6,7\n",
			columns: []string{"a", "b", "c"},
			rows:    2,
			validate: func(t *testing.T, v map[string][]any) {
				assert.Nil(t, v["c"][0])
				assert.Equal(t, "6", v["c"][1])
			},
		},
		{
			name:    "blank lines and blank rows are skipped",
			input:   "a,b\n\n1,2\n,\n3,4\n",
			columns: []string{"a", "b"},
			rows:    2,
		},
		{
			name:    "duplicate and empty headers are renamed",
			input:   "amount,,amount\n1,2,3\n",
			columns: []string{"amount", "column_2", "amount_2"},
			rows:    1,
		},
		{
			name:    "quoted money with commas",
			input:   "date,total\n2024-01-01,\"$1,234.50\"\n",
			columns: []string{"date", "total"},
			rows:    1,
			validate: func(t *testing.T, v map[string][]any) {
				assert.Equal(t, "$1,234.50", v["total"][0])
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Read(strings.NewReader(tt.input), FormatCSV)
			require.NoError(t, err)
			assert.Equal(t, tt.columns, table.Columns)
			assert.Equal(t, tt.rows, table.RowCount())
			if tt.validate != nil {
				tt.validate(t, table.Values)
			}
		})
	}
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := Read(strings.NewReader(""), FormatCSV)
	require.Error(t, err)
	typ, ok := apperrors.TypeOf(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrTypeParsing, typ)
}

func writeWorkbook(t *testing.T, sheets map[string][][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReadXLSX(t *testing.T) {
	day := time.Date(2024, 3, 4, 10, 30, 0, 0, time.UTC)
	path := writeWorkbook(t, map[string][][]any{
		"Orders": {
			{},
			{"Order ID", "Order Date", "Customer", "Total"},
			{"A-1", day, 17850, 12.5},
			{"A-2", "2024-03-05", nil, "$8.00"},
		},
	})

	table, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Order ID", "Order Date", "Customer", "Total"}, table.Columns)
	require.Equal(t, 2, table.RowCount())

	assert.Equal(t, "A-1", table.Values["Order ID"][0])
	serial, ok := table.Values["Order Date"][0].(float64)
	require.True(t, ok, "dates are read as serial numbers")
	got, err := excelize.ExcelDateToTime(serial, false)
	require.NoError(t, err)
	assert.WithinDuration(t, day, got, time.Second)
	assert.Equal(t, "2024-03-05", table.Values["Order Date"][1])
	assert.Equal(t, float64(17850), table.Values["Customer"][0])
	assert.Nil(t, table.Values["Customer"][1])
	assert.Equal(t, 12.5, table.Values["Total"][0])
	assert.Equal(t, "$8.00", table.Values["Total"][1])
}

func TestReadXLSXNamedSheet(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{
		"Notes": {{"readme"}},
	})
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	_, err = f.NewSheet("Data")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Data", "A1", &[]any{"date", "amount"}))
	require.NoError(t, f.SetSheetRow("Data", "A2", &[]any{"2024-01-01", 3}))
	require.NoError(t, f.Save())
	require.NoError(t, f.Close())

	table, err := ReadFile(path, Options{Sheet: "Data"})
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "amount"}, table.Columns)
	assert.Equal(t, 1, table.RowCount())

	_, err = ReadFile(path, Options{Sheet: "Missing"})
	require.Error(t, err)
}

func TestReadXLSXEmptyAndCorrupt(t *testing.T) {
	path := writeWorkbook(t, map[string][][]any{"Empty": {}})
	_, err := ReadFile(path)
	require.Error(t, err)

	_, err = Read(bytes.NewReader([]byte("not a zip")), FormatXLSX)
	require.Error(t, err)
	typ, _ := apperrors.TypeOf(err)
	assert.Equal(t, apperrors.ErrTypeParsing, typ)
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,amount\n2024-01-01,1\n"), 0o644))
	table, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.RowCount())
}
