// Package table reads rectangular string tables from CSV, XLSX, parquet and SQL sources.
package table

import (
	"context"
	"fmt"
	"strings"
)

// Supported source drivers.
const (
	DriverCSV      = "csv"
	DriverXLSX     = "xlsx"
	DriverParquet  = "parquet"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// driverAliases maps accepted spellings onto a supported driver.
var driverAliases = map[string]string{
	"sqlite":     DriverSQLite,
	"postgresql": DriverPostgres,
	"excel":      DriverXLSX,
}

// CanonicalDriver normalizes a configured driver name.
func CanonicalDriver(driver string) string {
	d := strings.ToLower(strings.TrimSpace(driver))
	if alias, ok := driverAliases[d]; ok {
		return alias
	}
	return d
}

// Source locates a table.
type Source struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`  // file path, or DSN for SQL drivers
	Sheet  string `yaml:"sheet"` // xlsx only; first sheet when empty
	Table  string `yaml:"table"` // SQL only
}

// String describes the source for logs and errors.
func (s Source) String() string {
	switch d := CanonicalDriver(s.Driver); d {
	case DriverSQLite, DriverPostgres:
		return fmt.Sprintf("%s table %s", d, s.Table)
	case DriverXLSX:
		if s.Sheet != "" {
			return fmt.Sprintf("%s[%s]", s.Path, s.Sheet)
		}
	}
	return s.Path
}

// Table is a header plus rows of cells, all rows as wide as the header.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Index returns the position of a column, matching exactly.
func (t Table) Index(name string) (int, bool) {
	for i, c := range t.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// IndexFold returns the position of a column, ignoring case.
func (t Table) IndexFold(name string) (int, bool) {
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i, true
		}
	}
	return -1, false
}

// Open reads the table described by src.
func Open(ctx context.Context, src Source) (Table, error) {
	var (
		t   Table
		err error
	)
	driver := CanonicalDriver(src.Driver)
	switch driver {
	case "", DriverCSV:
		t, err = ReadCSVFile(src.Path)
	case DriverXLSX:
		t, err = ReadXLSX(src.Path, src.Sheet)
	case DriverParquet:
		t, err = ReadParquet(src.Path)
	case DriverSQLite, DriverPostgres:
		t, err = ReadSQLSource(ctx, driver, src.Path, src.Table)
	default:
		return Table{}, fmt.Errorf("unsupported table driver %q", src.Driver)
	}
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", src, err)
	}
	return t, nil
}

// normalize trims header cells, rejects empty or duplicate headers and pads
// short rows with empty cells.
func normalize(header []string, rows [][]string) (Table, error) {
	if len(header) == 0 {
		return Table{}, fmt.Errorf("table has no header")
	}
	cols := make([]string, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			return Table{}, fmt.Errorf("column %d has an empty header", i+1)
		}
		if _, dup := seen[h]; dup {
			return Table{}, fmt.Errorf("duplicate column %q", h)
		}
		seen[h] = struct{}{}
		cols[i] = h
	}

	out := make([][]string, 0, len(rows))
	for i, r := range rows {
		if len(r) > len(cols) {
			return Table{}, fmt.Errorf("row %d has %d cells, header has %d", i+1, len(r), len(cols))
		}
		if isBlank(r) {
			continue
		}
		row := make([]string, len(cols))
		for j, cell := range r {
			row[j] = strings.TrimSpace(cell)
		}
		out = append(out, row)
	}
	return Table{Columns: cols, Rows: out}, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
