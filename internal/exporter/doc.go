// Package exporter writes analysis reports to disk or to a stream.
//
// Every report is first flattened into named tables (see Tables). CSVWriter
// writes the tables as UTF-8 CSV files with a byte order mark so Excel
// detects the encoding, WriteZip bundles the same files into one archive,
// and WorkbookWriter renders them as sheets of a single XLSX workbook.
//
// Example usage:
//
//	w := exporter.NewCSVWriter("reports/run-42")
//	files, err := w.WriteReport(report)
//
//	wb := exporter.NewWorkbookWriter(logger)
//	err = wb.WriteFile("reports/run-42.xlsx", report)
package exporter
