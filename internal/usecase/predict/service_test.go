package predict

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/fmhr12/ORN-Prognosis/internal/domain"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/curve"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
)

// --- Mocks ---

// linearModel returns min(1, slope*t): monotone by construction.
type linearModel struct {
	slope     float64
	decreases bool
	short     bool
	fixed     *float64
	err       error
	calls     int
	lastTimes []float64
}

func (m *linearModel) Predict(_ context.Context, _ feature.Vector, times []float64, _ int) ([]curve.Point, error) {
	m.calls++
	m.lastTimes = append([]float64(nil), times...)
	if m.err != nil {
		return nil, m.err
	}
	out := make([]curve.Point, len(times))
	for i, t := range times {
		v := m.slope * t
		if m.decreases {
			v = 1 - v
		}
		if v > 1 {
			v = 1
		}
		if m.fixed != nil {
			v = *m.fixed
		}
		out[i] = curve.Point{Time: t, Value: v}
	}
	if m.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

type mockCurves struct{ store *curve.Store }

func (m *mockCurves) Get(name string) (curve.Curve, error) { return m.store.Get(name) }

// --- Helpers ---

func testVector(t *testing.T) feature.Vector {
	t.Helper()
	age, _ := feature.NewNumeric("Age", 18, 90)
	s, err := feature.NewSchema(age)
	if err != nil {
		t.Fatalf("NewSchema: %v", err)
	}
	v, err := feature.NewEncoder(s).Encode(map[string]any{"Age": 61})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return v
}

func testCurves(t *testing.T) *mockCurves {
	t.Helper()
	c, err := curve.New("overall", []curve.Point{{Time: 0, Value: 0}, {Time: 60, Value: 0.1}})
	if err != nil {
		t.Fatalf("curve.New: %v", err)
	}
	st, _ := curve.NewStore(c)
	return &mockCurves{store: st}
}

// --- Tests ---

func TestCurve_DenseGridMonotone(t *testing.T) {
	m := &linearModel{slope: 0.002}
	svc, err := New(m, testCurves(t), Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	pts, err := svc.Curve(context.Background(), testVector(t), 1)
	if err != nil {
		t.Fatalf("Curve: %v", err)
	}
	if len(pts) != 115 || pts[0].Time != 0 || pts[114].Time != 114 {
		t.Fatalf("unexpected dense grid: len=%d", len(pts))
	}
	for i := 1; i < len(pts); i++ {
		if pts[i].Value < pts[i-1].Value {
			t.Fatalf("curve decreases at t=%g", pts[i].Time)
		}
	}
}

func TestCurve_DecreasingModelRejected(t *testing.T) {
	svc, _ := New(&linearModel{slope: 0.002, decreases: true}, testCurves(t), Config{})
	_, err := svc.Curve(context.Background(), testVector(t), 1)
	if !errors.Is(err, domain.ErrModelContract) {
		t.Fatalf("expected ErrModelContract, got %v", err)
	}
}

func TestCurve_Cached(t *testing.T) {
	m := &linearModel{slope: 0.001}
	svc, err := New(m, testCurves(t), Config{DenseMax: 10, DenseStep: 5, CacheSize: 8})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	v := testVector(t)

	first, err := svc.Curve(context.Background(), v, 1)
	if err != nil {
		t.Fatalf("Curve: %v", err)
	}
	first[0].Value = 99 // callers must not be able to corrupt the cache

	second, err := svc.Curve(context.Background(), v, 1)
	if err != nil {
		t.Fatalf("Curve: %v", err)
	}
	if m.calls != 1 {
		t.Errorf("model called %d times, want 1", m.calls)
	}
	if second[0].Value != 0 {
		t.Errorf("cached curve was mutated: %g", second[0].Value)
	}

	if _, err := svc.Curve(context.Background(), v, 2); err != nil {
		t.Fatalf("Curve: %v", err)
	}
	if m.calls != 2 {
		t.Errorf("different cause must miss the cache, calls = %d", m.calls)
	}
}

func TestTable_QueryTimes(t *testing.T) {
	tests := []struct {
		raw  string
		want []float64
	}{
		{"60, abc, 90", []float64{60, 90}},
		{"", []float64{60}},
		{"abc, , x", []float64{60}},
		{"12", []float64{12}},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			m := &linearModel{slope: 0.001}
			svc, _ := New(m, testCurves(t), Config{})
			rows, err := svc.Table(context.Background(), testVector(t), tc.raw, 1)
			if err != nil {
				t.Fatalf("Table: %v", err)
			}
			if len(rows) != len(tc.want) {
				t.Fatalf("got %d rows, want %d", len(rows), len(tc.want))
			}
			for i, r := range rows {
				if r.Time != tc.want[i] {
					t.Errorf("row %d time = %g, want %g", i, r.Time, tc.want[i])
				}
			}
		})
	}
}

func TestFormatRow(t *testing.T) {
	r := FormatRow(curve.Point{Time: 60, Value: 0.123456})
	if r.Display != "0.1235" {
		t.Errorf("Display = %q", r.Display)
	}
	if r.Percent != "12.35%" {
		t.Errorf("Percent = %q", r.Percent)
	}
	if r.Value != 0.123456 {
		t.Errorf("Value must stay unrounded, got %g", r.Value)
	}
}

func TestPointAt(t *testing.T) {
	m := &linearModel{slope: 0.001}
	svc, _ := New(m, testCurves(t), Config{})
	v, err := svc.PointAt(context.Background(), testVector(t), 60, 1)
	if err != nil {
		t.Fatalf("PointAt: %v", err)
	}
	if math.Abs(v-0.06) > 1e-15 {
		t.Errorf("PointAt = %g, want 0.06", v)
	}
	if len(m.lastTimes) != 1 || m.lastTimes[0] != 60 {
		t.Errorf("model called with %v", m.lastTimes)
	}
}

func TestPredict_ShortOutputRejected(t *testing.T) {
	svc, _ := New(&linearModel{slope: 0.001, short: true}, testCurves(t), Config{})
	_, err := svc.PointAt(context.Background(), testVector(t), 60, 1)
	if !errors.Is(err, domain.ErrModelContract) {
		t.Fatalf("expected ErrModelContract, got %v", err)
	}
}

func TestPredict_ModelErrorWrapped(t *testing.T) {
	svc, _ := New(&linearModel{err: domain.ErrUnknownCause}, testCurves(t), Config{})
	_, err := svc.Table(context.Background(), testVector(t), "60", 9)
	if !errors.Is(err, domain.ErrUnknownCause) {
		t.Fatalf("expected ErrUnknownCause, got %v", err)
	}
}

func TestOverlays(t *testing.T) {
	svc, _ := New(&linearModel{}, testCurves(t), Config{})

	cs, err := svc.Overlays([]string{"overall"})
	if err != nil || len(cs) != 1 || cs[0].Name() != "overall" {
		t.Fatalf("Overlays = %v, %v", cs, err)
	}
	_, err = svc.Overlays([]string{"overall", "missing"})
	if !errors.Is(err, domain.ErrCurveNotFound) {
		t.Fatalf("expected ErrCurveNotFound, got %v", err)
	}
}

func TestPredict_NonProbabilityRejected(t *testing.T) {
	for name, v := range map[string]float64{"nan": math.NaN(), "above one": 1.5, "negative": -0.1, "inf": math.Inf(1)} {
		t.Run(name, func(t *testing.T) {
			svc, _ := New(&linearModel{fixed: &v}, testCurves(t), Config{})
			ctx := context.Background()
			if _, err := svc.Curve(ctx, testVector(t), 1); !errors.Is(err, domain.ErrModelContract) {
				t.Errorf("Curve: expected ErrModelContract, got %v", err)
			}
			if _, err := svc.Table(ctx, testVector(t), "60", 1); !errors.Is(err, domain.ErrModelContract) {
				t.Errorf("Table: expected ErrModelContract, got %v", err)
			}
			if _, err := svc.PointAt(ctx, testVector(t), 60, 1); !errors.Is(err, domain.ErrModelContract) {
				t.Errorf("PointAt: expected ErrModelContract, got %v", err)
			}
		})
	}
}
