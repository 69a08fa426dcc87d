// Package curve loads named reference curves from tabular sources.
package curve

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	domcurve "github.com/fmhr12/ORN-Prognosis/internal/domain/curve"
	"github.com/fmhr12/ORN-Prognosis/internal/repository/table"
)

// Column names, matched case-insensitively.
const (
	TimeColumn  = "Time"
	ValueColumn = "MeanCIF"
)

// LoadStore loads every named source into a store. Names are loaded in sorted order.
func LoadStore(ctx context.Context, sources map[string]table.Source) (*domcurve.Store, error) {
	names := make([]string, 0, len(sources))
	for n := range sources {
		names = append(names, n)
	}
	sort.Strings(names)

	curves := make([]domcurve.Curve, 0, len(names))
	for _, n := range names {
		c, err := Load(ctx, n, sources[n])
		if err != nil {
			return nil, err
		}
		curves = append(curves, c)
	}
	st, err := domcurve.NewStore(curves...)
	if err != nil {
		return nil, fmt.Errorf("build curve store: %w", err)
	}
	return st, nil
}

// Load reads one curve.
func Load(ctx context.Context, name string, src table.Source) (domcurve.Curve, error) {
	t, err := table.Open(ctx, src)
	if err != nil {
		return domcurve.Curve{}, fmt.Errorf("load curve %q: %w", name, err)
	}
	c, err := FromTable(name, t)
	if err != nil {
		return domcurve.Curve{}, fmt.Errorf("load curve %q from %s: %w", name, src, err)
	}
	return c, nil
}

// FromTable builds a curve from Time and MeanCIF columns.
func FromTable(name string, t table.Table) (domcurve.Curve, error) {
	ti, ok := t.IndexFold(TimeColumn)
	if !ok {
		return domcurve.Curve{}, fmt.Errorf("missing %s column", TimeColumn)
	}
	vi, ok := t.IndexFold(ValueColumn)
	if !ok {
		return domcurve.Curve{}, fmt.Errorf("missing %s column", ValueColumn)
	}

	points := make([]domcurve.Point, len(t.Rows))
	for r, cells := range t.Rows {
		tm, err := strconv.ParseFloat(cells[ti], 64)
		if err != nil {
			return domcurve.Curve{}, fmt.Errorf("row %d: bad %s %q", r+1, TimeColumn, cells[ti])
		}
		v, err := strconv.ParseFloat(cells[vi], 64)
		if err != nil {
			return domcurve.Curve{}, fmt.Errorf("row %d: bad %s %q", r+1, ValueColumn, cells[vi])
		}
		points[r] = domcurve.Point{Time: tm, Value: v}
	}
	c, err := domcurve.New(name, points)
	if err != nil {
		return domcurve.Curve{}, err //nolint:wrapcheck // caller adds source context
	}
	return c, nil
}
