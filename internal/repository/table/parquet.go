package table

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

const parquetBatch = 1000

// ReadParquet reads a flat parquet file. Nested columns are named by their
// dotted path; repeated values are joined with ';'.
func ReadParquet(path string) (Table, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Table{}, fmt.Errorf("open parquet: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return Table{}, fmt.Errorf("stat parquet: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return Table{}, fmt.Errorf("open parquet: %w", err)
	}

	leaves := pf.Schema().Columns()
	header := make([]string, len(leaves))
	for i, p := range leaves {
		header[i] = strings.Join(p, ".")
	}

	var cells [][]string
	buf := make([]parquet.Row, parquetBatch)
	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := rows.ReadRows(buf)
			for i := range n {
				cells = append(cells, parquetRow(buf[i], len(header)))
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return Table{}, fmt.Errorf("read parquet rows: %w", readErr)
			}
		}
	}
	return normalize(header, cells)
}

func parquetRow(row parquet.Row, width int) []string {
	out := make([]string, width)
	for _, v := range row {
		col := v.Column()
		if col < 0 || col >= width || v.IsNull() {
			continue
		}
		s := parquetCell(v)
		if out[col] != "" {
			s = out[col] + ";" + s
		}
		out[col] = s
	}
	return out
}

func parquetCell(v parquet.Value) string {
	switch v.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}
