package explain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fmhr12/ORN-Prognosis/internal/domain"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/explanation"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/grid"
	"github.com/fmhr12/ORN-Prognosis/internal/logger"
	"github.com/fmhr12/ORN-Prognosis/internal/metrics"
	"github.com/fmhr12/ORN-Prognosis/internal/tracing"
)

// Service explains model predictions by interpolating precomputed attributions
// from the nearest reference grid rows. It holds only immutable state and is
// safe for concurrent use.
type Service struct {
	grid     *grid.Grid
	curves   BaselineSource
	model    PointPredictor
	baseline BaselinePolicy
	newID    func() string
}

// New creates an explanation service. The baseline policy is validated against
// the grid schema and the loaded curves.
func New(g *grid.Grid, curves BaselineSource, model PointPredictor, policy BaselinePolicy) (*Service, error) {
	if policy.Curve == "" {
		policy.Curve = DefaultBaselineCurve
	}
	if err := policy.Validate(g.Schema(), curves); err != nil {
		return nil, fmt.Errorf("baseline policy: %w", err)
	}
	return &Service{
		grid:     g,
		curves:   curves,
		model:    model,
		baseline: policy,
		newID:    uuid.NewString,
	}, nil
}

// Tags returns the explanation time points available in the grid.
func (s *Service) Tags() []grid.Tag { return s.grid.Tags() }

// Explain decomposes the model's prediction for v at tag into a baseline,
// per-feature contributions and an unattributed residual.
func (s *Service) Explain(
	ctx context.Context, v feature.Vector, tag grid.Tag, cause int,
) (explanation.Explanation, error) {
	ctx, span := tracing.StartSpan(ctx, "explain.Explain",
		tracing.AttrTimePoint.String(tag.String()),
		tracing.AttrCause.Int(cause),
	)
	defer span.End()
	ctx = logger.With(ctx, zap.String("time_point", tag.String()), zap.Int("cause", cause))
	start := time.Now()

	e, err := s.explain(ctx, v, tag, cause)
	if err != nil {
		tracing.RecordError(span, err)
		metrics.ExplainRequestsTotal.WithLabelValues(tagLabel(s.grid, tag), statusOf(err)).Inc()
		return explanation.Explanation{}, err
	}

	metrics.ExplainRequestsTotal.WithLabelValues(tag.String(), "ok").Inc()
	metrics.ExplainDuration.WithLabelValues(tag.String()).Observe(time.Since(start).Seconds())
	metrics.ExplainResidual.WithLabelValues(tag.String()).Observe(math.Abs(e.Residual()))
	if len(e.Neighbors) > 0 {
		metrics.ExplainNearestDistance.Observe(e.Neighbors[0].Distance)
	}
	span.SetAttributes(
		tracing.AttrNeighbors.Int(len(e.Neighbors)),
		tracing.AttrResidual.Float64(e.Residual()),
	)

	logger.FromContext(ctx).Debug("explanation computed",
		zap.String("explanation_id", e.ID),
		zap.String("baseline_curve", e.BaselineCurve),
		zap.Float64("prediction", e.Prediction),
		zap.Float64("residual", e.Residual()),
	)
	return e, nil
}

func (s *Service) explain(
	ctx context.Context, v feature.Vector, tag grid.Tag, cause int,
) (explanation.Explanation, error) {
	table, err := s.grid.Attributions(tag)
	if err != nil {
		return explanation.Explanation{}, err //nolint:wrapcheck // already carries the tag
	}
	t := tag.Time()

	neighbors := SelectNeighbors(Distances(v, s.grid), K)
	weights := Weights(neighbors)
	attributions := Interpolate(neighbors, weights, table)

	curveName := s.baseline.Resolve(v)
	baseline, err := s.curves.BaselineAt(curveName, t)
	if err != nil {
		return explanation.Explanation{}, fmt.Errorf("baseline: %w", err)
	}

	prediction, err := s.model.PointAt(ctx, v, t, cause)
	if err != nil {
		return explanation.Explanation{}, fmt.Errorf("predict at %s: %w", tag, err)
	}

	used := make([]explanation.Neighbor, len(neighbors))
	for i, n := range neighbors {
		used[i] = explanation.Neighbor{Index: n.Index, Distance: n.Distance, Weight: weights[i]}
	}

	return explanation.Assemble(explanation.Parts{
		ID:            s.newID(),
		Tag:           tag.String(),
		Time:          t,
		Cause:         cause,
		BaselineCurve: curveName,
		Baseline:      baseline,
		Features:      table.Features(),
		Attributions:  attributions,
		Residual:      Residual(baseline, attributions, prediction),
		Prediction:    prediction,
		Neighbors:     used,
	}), nil
}

// tagLabel keeps unknown tags out of metric labels.
func tagLabel(g *grid.Grid, tag grid.Tag) string {
	if g.HasTag(tag) {
		return tag.String()
	}
	return "unknown"
}

func statusOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownTimePoint):
		return "unknown_time_point"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrUnknownCause):
		return "invalid"
	default:
		return "error"
	}
}
