// Package grid loads the precomputed reference grid from a tabular source.
//
// The source has one row per reference case. Declared feature columns hold the
// case's inputs; a column named <feature>_t<label> holds that feature's
// attribution at explanation time point <label>. The column-name pattern is
// resolved once here into an explicit time point -> attribution table map.
package grid

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
	domgrid "github.com/fmhr12/ORN-Prognosis/internal/domain/grid"
	"github.com/fmhr12/ORN-Prognosis/internal/repository/table"
)

// Load reads src and builds a grid bound to schema.
func Load(ctx context.Context, src table.Source, schema feature.Schema) (*domgrid.Grid, error) {
	t, err := table.Open(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("load grid: %w", err)
	}
	g, err := FromTable(t, schema)
	if err != nil {
		return nil, fmt.Errorf("load grid from %s: %w", src, err)
	}
	return g, nil
}

// attrColumn is a parsed attribution column.
type attrColumn struct {
	pos     int
	feature string
	tag     domgrid.Tag
}

// FromTable builds a grid from an in-memory table.
func FromTable(t table.Table, schema feature.Schema) (*domgrid.Grid, error) {
	featurePos := make([]int, schema.Len())
	for i, name := range schema.Names() {
		pos, ok := t.Index(name)
		if !ok {
			return nil, fmt.Errorf("missing feature column %q", name)
		}
		featurePos[i] = pos
	}

	attrs := attributionColumns(t.Columns, schema)
	if len(attrs) == 0 {
		return nil, fmt.Errorf("no attribution columns (<feature>%s<label>) found", domgrid.SuffixSep)
	}

	enc := feature.NewEncoder(schema)
	names := schema.Names()
	rows := make([]feature.Vector, len(t.Rows))
	for r, cells := range t.Rows {
		raw := make(map[string]string, len(names))
		for i, name := range names {
			raw[name] = cells[featurePos[i]]
		}
		v, err := enc.EncodeStrings(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r+1, err)
		}
		rows[r] = v
	}

	byTag := make(map[domgrid.Tag][]attrColumn)
	for _, a := range attrs {
		byTag[a.tag] = append(byTag[a.tag], a)
	}

	tables := make(map[domgrid.Tag]domgrid.Table, len(byTag))
	for tag, cols := range byTag {
		features := make([]string, len(cols))
		for i, c := range cols {
			features[i] = c.feature
		}
		values := make([][]float64, len(t.Rows))
		for r, cells := range t.Rows {
			vec := make([]float64, len(cols))
			for i, c := range cols {
				x, err := strconv.ParseFloat(cells[c.pos], 64)
				if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
					return nil, fmt.Errorf("row %d column %q: not a finite number: %q",
						r+1, t.Columns[c.pos], cells[c.pos])
				}
				vec[i] = x
			}
			values[r] = vec
		}
		tables[tag] = domgrid.NewTable(features, values)
	}

	g, err := domgrid.New(schema, rows, tables)
	if err != nil {
		return nil, err //nolint:wrapcheck // caller adds source context
	}
	return g, nil
}

// attributionColumns finds <feature>_t<label> columns with a numeric label,
// ordered by schema position within each label. The longest matching feature
// name wins, so "Dose_total_t60" binds to "Dose_total" rather than "Dose".
// Columns that do not match are ignored.
func attributionColumns(columns []string, schema feature.Schema) []attrColumn {
	names := schema.Names()
	byLength := append([]string(nil), names...)
	sort.SliceStable(byLength, func(i, j int) bool { return len(byLength[i]) > len(byLength[j]) })

	var out []attrColumn
	for pos, col := range columns {
		for _, name := range byLength {
			prefix := name + domgrid.SuffixSep
			if !strings.HasPrefix(col, prefix) {
				continue
			}
			tag, err := domgrid.ParseTag(strings.TrimPrefix(col, prefix))
			if err != nil {
				continue
			}
			out = append(out, attrColumn{pos: pos, feature: name, tag: tag})
			break
		}
	}

	order := make(map[string]int, len(names))
	for i, n := range names {
		order[n] = i
	}
	sort.SliceStable(out, func(i, j int) bool { return order[out[i].feature] < order[out[j].feature] })
	return out
}
