package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ReadCSVFile reads a comma-separated file with a header row.
func ReadCSVFile(path string) (Table, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Table{}, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads comma-separated data with a header row.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return Table{}, fmt.Errorf("read csv header: %w", err)
	}
	rows, err := cr.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read csv: %w", err)
	}
	return normalize(header, rows)
}
