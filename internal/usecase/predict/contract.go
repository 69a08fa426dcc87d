package predict

import (
	"context"

	"github.com/fmhr12/ORN-Prognosis/internal/domain/curve"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
)

// Model is the fitted cumulative-incidence model. It must be deterministic and
// non-decreasing in time for a fixed vector, and defined for any t >= 0.
type Model interface {
	Predict(ctx context.Context, v feature.Vector, times []float64, cause int) ([]curve.Point, error)
}

// CurveReader reads named reference curves.
type CurveReader interface {
	Get(name string) (curve.Curve, error)
}
