// Package export renders document listings as CSV and XLSX downloads.
package export

// Table is a rectangular listing with a header row. Cells hold strings, numbers
// or anything with a String method.
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]any
}

// Content types for the supported formats.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)
