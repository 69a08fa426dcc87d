package explain

import (
	"context"

	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
)

// PointPredictor evaluates the fitted model at a single time.
type PointPredictor interface {
	PointAt(ctx context.Context, v feature.Vector, t float64, cause int) (float64, error)
}

// BaselineSource resolves reference curve values.
type BaselineSource interface {
	BaselineAt(name string, t float64) (float64, error)
	Has(name string) bool
}
