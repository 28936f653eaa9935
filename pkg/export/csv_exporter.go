package export

import (
	"fmt"
	"io"
	"reflect"

	"github.com/gocarina/gocsv"
)

// CSVExporter renders slices of csv-tagged structs into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for records, which must be a slice of
// structs (or struct pointers) carrying `csv` tags. The header row is always
// written, even for an empty slice.
func (e *CSVExporter) Render(records interface{}) ([]byte, error) {
	if kind := reflect.TypeOf(records); kind == nil || kind.Kind() != reflect.Slice {
		return nil, fmt.Errorf("csv requires a slice of records")
	}
	out, err := gocsv.MarshalBytes(records)
	if err != nil {
		return nil, fmt.Errorf("marshal csv: %w", err)
	}
	return out, nil
}

// DecodeCSV reads a header-first CSV document into out, a pointer to a slice
// of csv-tagged structs.
func DecodeCSV(in io.Reader, out interface{}) error {
	if err := gocsv.Unmarshal(in, out); err != nil {
		return fmt.Errorf("decode csv: %w", err)
	}
	return nil
}
