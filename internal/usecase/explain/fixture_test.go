package explain

import (
	"context"
	"testing"

	"github.com/fmhr12/ORN-Prognosis/internal/domain/curve"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/grid"
)

// --- Mocks ---

type stubPredictor struct {
	value float64
	err   error
	calls int
	last  float64
}

func (m *stubPredictor) PointAt(_ context.Context, _ feature.Vector, t float64, _ int) (float64, error) {
	m.calls++
	m.last = t
	return m.value, m.err
}

// --- Fixtures ---

var fixtureRows = []map[string]any{
	{"Age": 40.0, "Smoking": "Never", "Extraction": "No"},
	{"Age": 60.0, "Smoking": "Current", "Extraction": "Yes"},
	{"Age": 80.0, "Smoking": "Never", "Extraction": "Yes"},
	{"Age": 50.0, "Smoking": "Current", "Extraction": "No"},
}

var fixtureAttributions = [][]float64{
	{0.01, -0.02},
	{0.03, 0.04},
	{0.05, -0.01},
	{0.00, 0.02},
}

func mustSchema(t *testing.T, order ...string) feature.Schema {
	t.Helper()
	age, _ := feature.NewNumeric("Age", 18, 90)
	smoking, _ := feature.NewCategorical("Smoking", []string{"Never", "Current"})
	extraction, _ := feature.NewCategorical("Extraction", []string{"No", "Yes"})
	byName := map[string]feature.Feature{"Age": age, "Smoking": smoking, "Extraction": extraction}
	if len(order) == 0 {
		order = []string{"Age", "Smoking", "Extraction"}
	}
	fs := make([]feature.Feature, 0, len(order))
	for _, n := range order {
		fs = append(fs, byName[n])
	}
	s, err := feature.NewSchema(fs...)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	return s
}

func mustVector(t *testing.T, s feature.Schema, raw map[string]any) feature.Vector {
	t.Helper()
	v, err := feature.NewEncoder(s).Encode(raw)
	if err != nil {
		t.Fatalf("Encode(%v): %v", raw, err)
	}
	return v
}

func mustGrid(t *testing.T, s feature.Schema, raws []map[string]any, attrs [][]float64) *grid.Grid {
	t.Helper()
	rows := make([]feature.Vector, len(raws))
	for i, raw := range raws {
		rows[i] = mustVector(t, s, raw)
	}
	g, err := grid.New(s, rows, map[grid.Tag]grid.Table{
		"24": grid.NewTable([]string{"Age", "Smoking"}, attrs),
		"60": grid.NewTable([]string{"Age", "Smoking"}, attrs),
	})
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}
	return g
}

func mustCurves(t *testing.T) *curve.Store {
	t.Helper()
	mk := func(name string, scale float64) curve.Curve {
		c, err := curve.New(name, []curve.Point{
			{Time: 0, Value: 0},
			{Time: 60, Value: 0.10 * scale},
			{Time: 120, Value: 0.20 * scale},
		})
		if err != nil {
			t.Fatalf("curve.New: %v", err)
		}
		return c
	}
	st, err := curve.NewStore(mk("overall", 1), mk("extraction_yes", 1.5), mk("extraction_no", 0.5))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return st
}

func newTestService(t *testing.T, pred PointPredictor, policy BaselinePolicy) (*Service, *grid.Grid) {
	t.Helper()
	s := mustSchema(t)
	g := mustGrid(t, s, fixtureRows, fixtureAttributions)
	svc, err := New(g, mustCurves(t), pred, policy)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	svc.newID = func() string { return "test-id" }
	return svc, g
}
