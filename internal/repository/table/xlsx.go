package table

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads a worksheet whose first row is the header.
// An empty sheet name selects the first sheet of the workbook.
func ReadXLSX(path, sheet string) (Table, error) {
	f, err := excelize.OpenFile(filepath.Clean(path))
	if err != nil {
		return Table{}, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Table{}, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return Table{}, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return Table{}, fmt.Errorf("sheet %q is empty", sheet)
	}
	return normalize(rows[0], rows[1:])
}
