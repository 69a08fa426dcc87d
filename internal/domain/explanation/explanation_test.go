package explanation

import (
	"math"
	"testing"
)

func TestAssemble_OrderAndTotal(t *testing.T) {
	e := Assemble(Parts{
		Tag:          "60",
		Time:         60,
		Baseline:     0.08,
		Features:     []string{"Age", "Dmean"},
		Attributions: []float64{0.01, 0.04},
		Residual:     -0.005,
		Prediction:   0.125,
	})

	if len(e.Contributions) != 3 {
		t.Fatalf("expected 3 contributions, got %d", len(e.Contributions))
	}
	if e.Contributions[0].Feature != "Age" || e.Contributions[1].Feature != "Dmean" {
		t.Errorf("feature order not preserved: %+v", e.Contributions)
	}
	if e.Contributions[2].Feature != Unattributed {
		t.Errorf("unattributed must be last, got %q", e.Contributions[2].Feature)
	}
	if math.Abs(e.Total()-e.Prediction) > 1e-12 {
		t.Errorf("Total() = %g, Prediction = %g", e.Total(), e.Prediction)
	}
	if e.Residual() != -0.005 {
		t.Errorf("Residual() = %g", e.Residual())
	}
}

func TestContribution_Missing(t *testing.T) {
	e := Assemble(Parts{Features: []string{"Age"}, Attributions: []float64{0.1}})
	if _, ok := e.Contribution("Smoking"); ok {
		t.Error("expected missing contribution")
	}
	if v, ok := e.Contribution("Age"); !ok || v != 0.1 {
		t.Errorf("Contribution(Age) = %g, %v", v, ok)
	}
}
