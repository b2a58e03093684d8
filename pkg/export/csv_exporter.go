package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// RowSource yields one record per call and io.EOF once exhausted.
type RowSource func() ([]string, error)

// CSVExporter writes tabular read-back data as CSV.
type CSVExporter struct {
	flushEvery int
}

// NewCSVExporter builds a CSV exporter flushing every flushEvery rows.
func NewCSVExporter(flushEvery int) *CSVExporter {
	if flushEvery <= 0 {
		flushEvery = 1000
	}
	return &CSVExporter{flushEvery: flushEvery}
}

// Stream writes headers and then every row produced by next to w.
// It returns the number of data rows written.
func (e *CSVExporter) Stream(w io.Writer, headers []string, next RowSource) (int, error) {
	if len(headers) == 0 {
		return 0, fmt.Errorf("csv requires at least one header")
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(headers); err != nil {
		return 0, fmt.Errorf("write csv headers: %w", err)
	}

	written := 0
	for {
		record, err := next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return written, fmt.Errorf("read csv row: %w", err)
		}
		if len(record) != len(headers) {
			return written, fmt.Errorf("csv row %d has %d fields, want %d", written+1, len(record), len(headers))
		}
		if err := writer.Write(record); err != nil {
			return written, fmt.Errorf("write csv row: %w", err)
		}
		written++
		if written%e.flushEvery == 0 {
			writer.Flush()
			if err := writer.Error(); err != nil {
				return written, fmt.Errorf("flush csv: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return written, fmt.Errorf("flush csv: %w", err)
	}
	return written, nil
}
