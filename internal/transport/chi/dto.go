package chi

import (
	"github.com/fmhr12/ORN-Prognosis/internal/domain/curve"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/explanation"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
	"github.com/fmhr12/ORN-Prognosis/internal/usecase/predict"
)

// PredictRequest is the body of /predict, /explain and /curve.
type PredictRequest struct {
	Features    map[string]any `json:"features"`
	ExplainTime string         `json:"explain_time,omitempty"`
	QueryTimes  *string        `json:"query_times,omitempty"` // nil: default query time
	Overlays    []string       `json:"overlays,omitempty"`    // nil: configured defaults
	Cause       int            `json:"cause,omitempty"`       // 0: configured default
}

// PointDTO is one curve point.
type PointDTO struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// OverlayDTO is a named reference curve.
type OverlayDTO struct {
	Name   string     `json:"name"`
	Points []PointDTO `json:"points"`
}

// CurveResponse is the body of /curve.
type CurveResponse struct {
	Cause      int           `json:"cause"`
	CauseLabel string        `json:"cause_label,omitempty"`
	Curve      []PointDTO    `json:"curve"`
	Table      []predict.Row `json:"table"`
	Overlays   []OverlayDTO  `json:"overlays"`
}

// PredictResponse is the body of /predict.
type PredictResponse struct {
	CurveResponse
	Explanation explanation.Explanation `json:"explanation"`
}

// FeatureDTO describes one input for the presentation layer.
type FeatureDTO struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Levels []string `json:"levels,omitempty"`
}

// CauseDTO is one competing-risk cause.
type CauseDTO struct {
	Cause int    `json:"cause"`
	Label string `json:"label"`
}

// DefaultsDTO carries request defaults.
type DefaultsDTO struct {
	ExplainTime string   `json:"explain_time"`
	Cause       int      `json:"cause"`
	QueryTime   float64  `json:"query_time"`
	Overlays    []string `json:"overlays"`
}

// SchemaResponse is the body of /schema.
type SchemaResponse struct {
	Features   []FeatureDTO `json:"features"`
	TimePoints []string     `json:"time_points"`
	Curves     []string     `json:"curves"`
	Causes     []CauseDTO   `json:"causes"`
	Defaults   DefaultsDTO  `json:"defaults"`
}

// BaselineResponse is the body of /baseline/{curve}.
type BaselineResponse struct {
	Curve string  `json:"curve"`
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func pointsToDTO(pts []curve.Point) []PointDTO {
	out := make([]PointDTO, len(pts))
	for i, p := range pts {
		out[i] = PointDTO{Time: p.Time, Value: p.Value}
	}
	return out
}

func overlaysToDTO(cs []curve.Curve) []OverlayDTO {
	out := make([]OverlayDTO, len(cs))
	for i, c := range cs {
		out[i] = OverlayDTO{Name: c.Name(), Points: pointsToDTO(c.Points())}
	}
	return out
}

func featureToDTO(f feature.Feature) FeatureDTO {
	d := FeatureDTO{Name: f.Name(), Kind: string(f.Kind())}
	if f.IsNumeric() {
		lo, hi := f.Min(), f.Max()
		d.Min, d.Max = &lo, &hi
	} else {
		d.Levels = f.Levels()
	}
	return d
}
