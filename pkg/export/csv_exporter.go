// Package export renders report datasets into downloadable files.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is one tabular report: a header row plus data rows in display
// order. Rows shorter than the header pad with blanks; longer rows are an
// error at render time.
type Dataset struct {
	Columns []string
	Rows    [][]string
}

// CSVExporter renders datasets as RFC 4180 CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render encodes the dataset into CSV bytes.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Columns) == 0 {
		return nil, fmt.Errorf("export: dataset has no columns")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(data.Columns); err != nil {
		return nil, fmt.Errorf("export: write header: %w", err)
	}
	for i, row := range data.Rows {
		if len(row) > len(data.Columns) {
			return nil, fmt.Errorf("export: row %d has %d cells for %d columns", i, len(row), len(data.Columns))
		}
		padded := make([]string, len(data.Columns))
		copy(padded, row)
		if err := w.Write(padded); err != nil {
			return nil, fmt.Errorf("export: write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("export: flush: %w", err)
	}
	return buf.Bytes(), nil
}
