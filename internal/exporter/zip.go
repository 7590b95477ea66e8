package exporter

import (
	"archive/zip"
	"fmt"
	"io"

	"github.com/abdulmale3k/Integrated--Sales-Analytics-Platform/pkg/contracts/domain"
)

// WriteZip streams the report's CSV files into a single zip archive.
func WriteZip(w io.Writer, r *domain.AnalysisReport) error {
	zw := zip.NewWriter(w)
	for _, t := range CSVTables(r) {
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     t.File,
			Method:   zip.Deflate,
			Modified: r.GeneratedAt,
		})
		if err != nil {
			return fmt.Errorf("failed to add %s: %w", t.File, err)
		}
		sw, err := NewStreamWriter(entry, t.Headers)
		if err != nil {
			return err
		}
		for _, rec := range t.Records() {
			if err := sw.WriteRecord(rec); err != nil {
				return fmt.Errorf("failed to write %s: %w", t.File, err)
			}
		}
		if err := sw.Close(); err != nil {
			return err
		}
	}
	return zw.Close()
}
