// Package ingest turns uploaded CSV and XLSX files into raw tables.
//
// Cells are kept uninterpreted: CSV cells stay strings, XLSX cells are read
// as stored values so dates arrive as Excel serial numbers. Interpretation
// belongs to the schema package.
package ingest
