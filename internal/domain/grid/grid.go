package grid

import (
	"fmt"
	"sort"

	"github.com/fmhr12/ORN-Prognosis/internal/domain"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
)

// Table holds the precomputed attributions of every grid row at one time point.
// values[row][j] is the attribution of features[j] for that row.
type Table struct {
	features []string
	values   [][]float64
}

// NewTable creates an attribution table. The grid validates its shape.
func NewTable(features []string, values [][]float64) Table {
	return Table{features: features, values: values}
}

// Features returns the attributable feature names in schema order.
func (t Table) Features() []string { return append([]string(nil), t.features...) }

// Len returns the number of rows.
func (t Table) Len() int { return len(t.values) }

// Row returns the attribution vector of a grid row, aligned with Features.
func (t Table) Row(i int) []float64 { return t.values[i] }

// Range is the observed span of a numeric feature across the grid.
type Range struct {
	Min float64
	Max float64
}

// Span returns Max-Min.
func (r Range) Span() float64 { return r.Max - r.Min }

// Grid is the immutable reference grid of synthetic cases with precomputed attributions.
type Grid struct {
	schema       feature.Schema
	rows         []feature.Vector
	tables       map[Tag]Table
	tags         []Tag
	attributable []string
	ranges       []Range
}

// New validates and creates a grid.
// Every row must use schema; every table must have one vector per row and the
// same attributable feature set, which must be a subset of schema.
func New(schema feature.Schema, rows []feature.Vector, tables map[Tag]Table) (*Grid, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("grid has no rows")
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("grid has no attribution time points")
	}
	for i, r := range rows {
		if !r.Schema().Equal(schema) {
			return nil, fmt.Errorf("%w: grid row %d", domain.ErrSchemaMismatch, i)
		}
	}

	tags := make([]Tag, 0, len(tables))
	for tag := range tables {
		if _, err := ParseTag(string(tag)); err != nil {
			return nil, fmt.Errorf("grid: %w", err)
		}
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Time() < tags[j].Time() })

	attributable := tables[tags[0]].features
	if len(attributable) == 0 {
		return nil, fmt.Errorf("grid: time point %s has no attributable features", tags[0])
	}
	for _, name := range attributable {
		if _, ok := schema.Index(name); !ok {
			return nil, fmt.Errorf("%w: attribution feature %q not in schema", domain.ErrSchemaMismatch, name)
		}
	}
	for _, tag := range tags {
		tbl := tables[tag]
		if !sameNames(tbl.features, attributable) {
			return nil, fmt.Errorf("%w: time point %s attributes %v, time point %s attributes %v",
				domain.ErrSchemaMismatch, tag, tbl.features, tags[0], attributable)
		}
		if len(tbl.values) != len(rows) {
			return nil, fmt.Errorf("grid: time point %s has %d attribution rows, want %d",
				tag, len(tbl.values), len(rows))
		}
		for i, v := range tbl.values {
			if len(v) != len(attributable) {
				return nil, fmt.Errorf("grid: time point %s row %d has %d attributions, want %d",
					tag, i, len(v), len(attributable))
			}
		}
	}

	return &Grid{
		schema:       schema,
		rows:         rows,
		tables:       tables,
		tags:         tags,
		attributable: append([]string(nil), attributable...),
		ranges:       observedRanges(schema, rows),
	}, nil
}

func sameNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func observedRanges(schema feature.Schema, rows []feature.Vector) []Range {
	ranges := make([]Range, schema.Len())
	for j := 0; j < schema.Len(); j++ {
		if !schema.At(j).IsNumeric() {
			continue
		}
		r := Range{Min: rows[0].Numeric(j), Max: rows[0].Numeric(j)}
		for _, row := range rows[1:] {
			x := row.Numeric(j)
			if x < r.Min {
				r.Min = x
			}
			if x > r.Max {
				r.Max = x
			}
		}
		ranges[j] = r
	}
	return ranges
}

// Schema returns the grid's feature schema.
func (g *Grid) Schema() feature.Schema { return g.schema }

// Len returns the number of rows.
func (g *Grid) Len() int { return len(g.rows) }

// Row returns the i-th grid row.
func (g *Grid) Row(i int) feature.Vector { return g.rows[i] }

// Tags returns the precomputed time points in ascending time order.
func (g *Grid) Tags() []Tag { return append([]Tag(nil), g.tags...) }

// HasTag reports whether attributions exist for tag.
func (g *Grid) HasTag(tag Tag) bool {
	_, ok := g.tables[tag]
	return ok
}

// Attributions returns the attribution table for tag.
func (g *Grid) Attributions(tag Tag) (Table, error) {
	t, ok := g.tables[tag]
	if !ok {
		return Table{}, fmt.Errorf("%w: %q (available: %v)", domain.ErrUnknownTimePoint, string(tag), g.tags)
	}
	return t, nil
}

// AttributableFeatures returns the features that carry attributions, in schema order.
func (g *Grid) AttributableFeatures() []string { return append([]string(nil), g.attributable...) }

// Ranges returns the observed range per schema position (zero value for categorical).
func (g *Grid) Ranges() []Range { return append([]Range(nil), g.ranges...) }
