package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

const (
	defaultSheet   = "Sheet1"
	minColumnWidth = 12
	maxColumnWidth = 48
)

// WorkbookWriter renders a report as an XLSX workbook, one sheet per table.
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer.
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger}
}

// Build assembles the workbook in memory. The caller closes it.
func (w *WorkbookWriter) Build(r *domain.AnalysisReport) (*excelize.File, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, t := range Tables(r) {
		if i == 0 {
			err = f.SetSheetName(defaultSheet, t.Name)
		} else {
			_, err = f.NewSheet(t.Name)
		}
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create sheet %s: %w", t.Name, err)
		}
		if err := writeSheet(f, t, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("sheet %s: %w", t.Name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write streams the workbook to out.
func (w *WorkbookWriter) Write(out io.Writer, r *domain.AnalysisReport) error {
	f, err := w.Build(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// WriteFile saves the workbook at path, creating parent directories.
func (w *WorkbookWriter) WriteFile(path string, r *domain.AnalysisReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	f, err := w.Build(r)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	w.logger.Info("Workbook written",
		slog.String("path", path),
		slog.String("run_id", r.RunID),
		slog.Int("sheets", f.SheetCount))
	return nil
}

func writeSheet(f *excelize.File, t Table, headerStyle int) error {
	headers := make([]any, len(t.Headers))
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		headers[i] = h
		widths[i] = len(h)
	}
	if err := f.SetSheetRow(t.Name, "A1", &headers); err != nil {
		return err
	}

	for r, row := range t.Rows {
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = sheetCell(c)
			if i < len(widths) {
				widths[i] = max(widths[i], len(formatCell(c)))
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, cell, &cells); err != nil {
			return err
		}
	}

	if len(t.Headers) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(t.Headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.Name, "A1", last, headerStyle); err != nil {
		return err
	}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		w := float64(min(max(width+2, minColumnWidth), maxColumnWidth))
		if err := f.SetColWidth(t.Name, col, col, w); err != nil {
			return err
		}
	}
	return f.SetPanes(t.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
