package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

// Format identifies a supported input encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat maps a file name to its format by extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", apperrors.NewParsingError(fmt.Sprintf("unsupported file type %q", filepath.Ext(name)), nil)
}

// ParseFormat accepts a user supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))) {
	case FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", apperrors.NewParsingError(fmt.Sprintf("unsupported format %q", s), nil)
}

// Options tune a read. The zero value reads the first sheet that has a header.
type Options struct {
	Sheet string
}

// ReadFile opens path and reads it using the format implied by its extension.
func ReadFile(path string, opts ...Options) (*domain.RawTable, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open "+filepath.Base(path), err)
	}
	defer f.Close()
	return Read(f, format, opts...)
}

// Read decodes r in the given format.
func Read(r io.Reader, format Format, opts ...Options) (*domain.RawTable, error) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	switch format {
	case FormatCSV:
		return readCSV(r)
	case FormatXLSX:
		return readXLSX(r, o.Sheet)
	}
	return nil, apperrors.NewParsingError(fmt.Sprintf("unsupported format %q", format), nil)
}

// buildTable turns a header and its rows into a RawTable. Blank header cells
// get positional names and repeated names get a numeric suffix. Rows are
// padded or truncated to the header width; fully blank rows are dropped.
func buildTable(header []string, rows [][]any) (*domain.RawTable, error) {
	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		}
		seen[name]++
		columns[i] = name
	}
	if len(columns) == 0 {
		return nil, apperrors.NewParsingError("header row is empty", nil)
	}

	table := domain.NewRawTable(columns...)
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		if len(row) > len(columns) {
			row = row[:len(columns)]
		}
		table.AppendRow(row...)
	}
	return table, nil
}

func blankRow(row []any) bool {
	for _, c := range row {
		switch v := c.(type) {
		case nil:
		case string:
			if strings.TrimSpace(v) != "" {
				return false
			}
		default:
			return false
		}
	}
	return true
}
