package predict

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fmhr12/ORN-Prognosis/internal/cache"
	"github.com/fmhr12/ORN-Prognosis/internal/domain"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/curve"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/timepoint"
	"github.com/fmhr12/ORN-Prognosis/internal/metrics"
	"github.com/fmhr12/ORN-Prognosis/internal/tracing"
)

// Display precision of tabulated values.
const (
	ValueDecimals   = 4
	PercentDecimals = 2
)

// Config controls the dense curve and its cache.
type Config struct {
	DenseMax  float64
	DenseStep float64
	CacheSize int           // 0 disables the dense-curve cache
	CacheTTL  time.Duration // 0 keeps entries until evicted
}

// Row is one tabulated (time, value) pair with display strings.
type Row struct {
	Time    float64 `json:"time"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
	Percent string  `json:"percent"`
}

// Service produces CIF curves and tables from the fitted model.
type Service struct {
	model  Model
	curves CurveReader
	dense  []float64
	cache  *cache.LRU[string, []curve.Point]
}

// New creates a prediction service.
func New(model Model, curves CurveReader, cfg Config) (*Service, error) {
	if cfg.DenseMax == 0 {
		cfg.DenseMax = timepoint.DefaultDenseMax
	}
	if cfg.DenseStep == 0 {
		cfg.DenseStep = timepoint.DefaultDenseStep
	}
	s := &Service{
		model:  model,
		curves: curves,
		dense:  timepoint.Dense(cfg.DenseMax, cfg.DenseStep),
	}
	if cfg.CacheSize > 0 {
		c, err := cache.NewLRU[string, []curve.Point]("curve", cfg.CacheSize, cfg.CacheTTL)
		if err != nil {
			return nil, err //nolint:wrapcheck // already names the cache
		}
		s.cache = c
	}
	return s, nil
}

// DenseTimes returns the dense time grid used by Curve.
func (s *Service) DenseTimes() []float64 { return append([]float64(nil), s.dense...) }

// Curve returns the CIF of cause over the dense grid.
// A curve that decreases in time is reported as ErrModelContract.
func (s *Service) Curve(ctx context.Context, v feature.Vector, cause int) ([]curve.Point, error) {
	ctx, span := tracing.StartSpan(ctx, "predict.Curve",
		tracing.AttrCause.Int(cause),
		tracing.AttrTimes.Int(len(s.dense)),
	)
	defer span.End()

	key := v.Key() + "#" + strconv.Itoa(cause)
	if s.cache != nil {
		if pts, ok := s.cache.Get(key); ok {
			span.SetAttributes(tracing.AttrCacheHit.Bool(true))
			metrics.PredictRequestsTotal.WithLabelValues("curve", "ok").Inc()
			return append([]curve.Point(nil), pts...), nil
		}
	}

	pts, err := s.predict(ctx, v, s.dense, cause)
	if err == nil {
		err = checkMonotone(pts)
	}
	if err != nil {
		tracing.RecordError(span, err)
		metrics.PredictRequestsTotal.WithLabelValues("curve", "error").Inc()
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, pts)
	}
	metrics.PredictRequestsTotal.WithLabelValues("curve", "ok").Inc()
	return append([]curve.Point(nil), pts...), nil
}

// Table evaluates the model at caller-supplied query times given as a comma
// list. Invalid tokens are dropped; an empty result falls back to the default time.
func (s *Service) Table(ctx context.Context, v feature.Vector, rawTimes string, cause int) ([]Row, error) {
	times := timepoint.ParseQueryTimes(rawTimes)

	ctx, span := tracing.StartSpan(ctx, "predict.Table",
		tracing.AttrCause.Int(cause),
		tracing.AttrTimes.Int(len(times)),
	)
	defer span.End()

	pts, err := s.predict(ctx, v, times, cause)
	if err != nil {
		tracing.RecordError(span, err)
		metrics.PredictRequestsTotal.WithLabelValues("table", "error").Inc()
		return nil, err
	}
	metrics.PredictRequestsTotal.WithLabelValues("table", "ok").Inc()

	rows := make([]Row, len(pts))
	for i, p := range pts {
		rows[i] = FormatRow(p)
	}
	return rows, nil
}

// PointAt returns the CIF of cause at a single time.
func (s *Service) PointAt(ctx context.Context, v feature.Vector, t float64, cause int) (float64, error) {
	pts, err := s.predict(ctx, v, []float64{t}, cause)
	if err != nil {
		return 0, err
	}
	return pts[0].Value, nil
}

// Overlays returns named reference curves for plotting, in request order.
func (s *Service) Overlays(names []string) ([]curve.Curve, error) {
	out := make([]curve.Curve, 0, len(names))
	for _, n := range names {
		c, err := s.curves.Get(n)
		if err != nil {
			return nil, fmt.Errorf("overlay: %w", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *Service) predict(ctx context.Context, v feature.Vector, times []float64, cause int) ([]curve.Point, error) {
	pts, err := s.model.Predict(ctx, v, times, cause)
	if err != nil {
		return nil, fmt.Errorf("model predict: %w", err)
	}
	if len(pts) != len(times) {
		return nil, fmt.Errorf("%w: %d values for %d times", domain.ErrModelContract, len(pts), len(times))
	}
	if err := checkRange(pts); err != nil {
		return nil, err
	}
	return pts, nil
}

// checkRange rejects values that are not finite probabilities.
func checkRange(pts []curve.Point) error {
	for _, p := range pts {
		if math.IsNaN(p.Value) || p.Value < 0 || p.Value > 1 {
			return fmt.Errorf("%w: CIF %g at t=%g is outside [0,1]", domain.ErrModelContract, p.Value, p.Time)
		}
	}
	return nil
}

func checkMonotone(pts []curve.Point) error {
	for i := 1; i < len(pts); i++ {
		if pts[i].Value < pts[i-1].Value {
			return fmt.Errorf("%w: CIF decreases between t=%g and t=%g",
				domain.ErrModelContract, pts[i-1].Time, pts[i].Time)
		}
	}
	return nil
}

// FormatRow rounds a point for display: the value to ValueDecimals places and
// a percentage to PercentDecimals places.
func FormatRow(p curve.Point) Row {
	d := decimal.NewFromFloat(p.Value)
	return Row{
		Time:    p.Time,
		Value:   p.Value,
		Display: d.StringFixed(ValueDecimals),
		Percent: d.Mul(decimal.NewFromInt(100)).StringFixed(PercentDecimals) + "%",
	}
}
