package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes report tables under a base directory.
type CSVWriter struct {
	dir    string
	logger *slog.Logger
}

// NewCSVWriter creates a writer rooted at dir.
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir, logger: slog.Default()}
}

// WithLogger replaces the writer's logger.
func (w *CSVWriter) WithLogger(logger *slog.Logger) *CSVWriter {
	if logger != nil {
		w.logger = logger
	}
	return w
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix && !options.Append {
		if _, err := file.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteTable writes one report table to its file name.
func (w *CSVWriter) WriteTable(t Table) error {
	name := t.File
	if name == "" {
		name = t.Name + ".csv"
	}
	return w.WriteCSV(name, WriteOptions{
		Headers:   t.Headers,
		Records:   t.Records(),
		BOMPrefix: true,
	})
}

// WriteReport writes kpi_series.csv, forecast.csv, audit.csv and, when the
// run decomposed its series, decomposition.csv. It returns the paths written.
func (w *CSVWriter) WriteReport(r *domain.AnalysisReport) ([]string, error) {
	tables := CSVTables(r)
	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		if err := w.WriteTable(t); err != nil {
			return paths, fmt.Errorf("%s: %w", t.File, err)
		}
		paths = append(paths, w.resolvePath(t.File))
	}
	return paths, nil
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	closer io.Closer
	writer *csv.Writer
}

// NewStreamWriter writes a BOM and headers to out and returns a writer for
// the remaining records. Close flushes but never closes out.
func NewStreamWriter(out io.Writer, headers []string) (*StreamWriter, error) {
	if _, err := out.Write(utf8BOM); err != nil {
		return nil, fmt.Errorf("failed to write BOM: %w", err)
	}
	writer := csv.NewWriter(out)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}
	return &StreamWriter{writer: writer}, nil
}

// CreateStreamWriter creates a new streaming CSV writer
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("Creating CSV stream writer",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	sw, err := NewStreamWriter(file, headers)
	if err != nil {
		file.Close()
		return nil, err
	}
	sw.closer = file
	return sw, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	err := s.writer.Error()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.dir == "" {
		return filePath
	}
	return filepath.Join(w.dir, filePath)
}
