package ingest

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/internal/errors"
	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

func readXLSX(r io.Reader, sheet string) (*domain.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	names := f.GetSheetList()
	if sheet != "" {
		names = []string{sheet}
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
			return nil, apperrors.NewParsingError(fmt.Sprintf("sheet %q not found", sheet), err)
		}
	}

	for _, name := range names {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", name), err)
		}
		headerIdx := firstNonBlank(rows)
		if headerIdx < 0 {
			continue
		}
		body := make([][]any, 0, len(rows)-headerIdx-1)
		for _, row := range rows[headerIdx+1:] {
			cells := make([]any, len(row))
			for i, c := range row {
				cells[i] = rawCell(c)
			}
			body = append(body, cells)
		}
		return buildTable(rows[headerIdx], body)
	}
	return nil, apperrors.NewParsingError("workbook has no sheet with a header row", nil)
}

func firstNonBlank(rows [][]string) int {
	for i, row := range rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				return i
			}
		}
	}
	return -1
}

// rawCell keeps numeric cells as float64 so date serials stay recognizable.
func rawCell(s string) any {
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
