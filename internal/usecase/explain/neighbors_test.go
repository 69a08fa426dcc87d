package explain

import (
	"math"
	"testing"

	"github.com/fmhr12/ORN-Prognosis/internal/domain/grid"
)

func TestSelectNeighbors_OrderAndTies(t *testing.T) {
	ns := SelectNeighbors([]float64{0.4, 0.1, 0.4, 0.1, 0.9}, K)
	if len(ns) != 3 {
		t.Fatalf("expected 3 neighbours, got %d", len(ns))
	}
	want := []int{1, 3, 0}
	for i, n := range ns {
		if n.Index != want[i] {
			t.Errorf("neighbour %d: index %d, want %d", i, n.Index, want[i])
		}
	}
}

func TestSelectNeighbors_FewerRowsThanK(t *testing.T) {
	ns := SelectNeighbors([]float64{0.3, 0.2}, K)
	if len(ns) != 2 {
		t.Fatalf("expected 2 neighbours, got %d", len(ns))
	}
	w := Weights(ns)
	if math.Abs(w[0]+w[1]-1) > 1e-12 {
		t.Errorf("weights sum to %g", w[0]+w[1])
	}
}

func TestWeights_Normalized(t *testing.T) {
	cases := [][]float64{
		{0},
		{0, 0, 0},
		{0, 0.5, 1},
		{0.2, 0.2, 0.7},
		{3, 5, 8},
	}
	for _, ds := range cases {
		ns := SelectNeighbors(ds, K)
		w := Weights(ns)
		var sum float64
		for _, x := range w {
			if x < 0 {
				t.Errorf("%v: negative weight %g", ds, x)
			}
			sum += x
		}
		if math.Abs(sum-1) > 1e-12 {
			t.Errorf("%v: weights sum to %g", ds, sum)
		}
	}
}

func TestWeights_Formula(t *testing.T) {
	ns := []Neighbor{{Index: 0, Distance: 0.1}, {Index: 1, Distance: 0.2}, {Index: 2, Distance: 0.2}}
	w := Weights(ns)

	inv := []float64{1 / (0.1 + Epsilon), 1 / (0.2 + Epsilon), 1 / (0.2 + Epsilon)}
	total := inv[0] + inv[1] + inv[2]
	for i := range w {
		if math.Abs(w[i]-inv[i]/total) > 1e-15 {
			t.Errorf("w[%d] = %g, want %g", i, w[i], inv[i]/total)
		}
	}
	if w[1] != w[2] {
		t.Errorf("equidistant neighbours must get equal weight: %g vs %g", w[1], w[2])
	}
}

func TestWeights_NearestDominates(t *testing.T) {
	ns := []Neighbor{{Distance: 0.05}, {Distance: 0.06}, {Distance: 0.5}}
	w := Weights(ns)
	if !(w[0] > w[1] && w[1] > w[2]) {
		t.Errorf("weights not strictly decreasing with distance: %v", w)
	}
}

func TestWeights_ExactMatchFinite(t *testing.T) {
	w := Weights([]Neighbor{{Distance: 0}, {Distance: 0.3}})
	for _, x := range w {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			t.Fatalf("non-finite weight %v", w)
		}
	}
	if w[0] < 0.999999 {
		t.Errorf("exact match weight = %g", w[0])
	}
}

func TestInterpolate(t *testing.T) {
	table := grid.NewTable([]string{"Age", "Smoking"}, [][]float64{
		{1, 10},
		{2, 20},
		{3, 30},
	})
	ns := []Neighbor{{Index: 2}, {Index: 0}}
	got := Interpolate(ns, []float64{0.25, 0.75}, table)
	want := []float64{0.25*3 + 0.75*1, 0.25*30 + 0.75*10}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("feature %d: %g, want %g", i, got[i], want[i])
		}
	}
}

func TestResidual_SignPreserved(t *testing.T) {
	if r := Residual(0.1, []float64{0.02, 0.03}, 0.12); math.Abs(r-(-0.03)) > 1e-15 {
		t.Errorf("Residual = %g, want -0.03", r)
	}
	if r := Residual(0.1, nil, 0.15); math.Abs(r-0.05) > 1e-15 {
		t.Errorf("Residual = %g, want 0.05", r)
	}
}
