package ornprog

import (
	"github.com/fmhr12/ORN-Prognosis/internal/domain/curve"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/explanation"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
	"github.com/fmhr12/ORN-Prognosis/internal/usecase/predict"
)

// Features maps input names to values. Numeric inputs accept numbers or
// numeric strings; categorical inputs take one of the declared levels.
type Features map[string]any

// Unattributed names the residual contribution that makes an explanation add up.
const Unattributed = explanation.Unattributed

// Point is one (time, cumulative incidence) pair.
type Point struct {
	Time  float64
	Value float64
}

// Row is a tabulated point with display strings.
type Row struct {
	Time    float64
	Value   float64
	Display string // 4 decimals
	Percent string // 2 decimals with a % sign
}

// Contribution is one additive term of an explanation.
type Contribution struct {
	Feature string
	Value   float64
}

// Explanation decomposes Prediction into Baseline plus Contributions.
type Explanation struct {
	ID            string
	TimePoint     string
	Time          float64
	Cause         int
	BaselineCurve string
	Baseline      float64
	Contributions []Contribution
	Prediction    float64
}

// Total returns Baseline plus every contribution. It equals Prediction up to
// floating-point error.
func (e Explanation) Total() float64 {
	sum := e.Baseline
	for _, c := range e.Contributions {
		sum += c.Value
	}
	return sum
}

// FeatureInfo describes one input.
type FeatureInfo struct {
	Name   string
	Kind   string // "numeric" or "categorical"
	Min    float64
	Max    float64
	Levels []string
}

// SchemaInfo describes the loaded artifacts.
type SchemaInfo struct {
	Features   []FeatureInfo
	TimePoints []string
	Curves     []string
	Causes     map[int]string
	Version    string
}

func explanationFromDomain(e explanation.Explanation) Explanation {
	out := Explanation{
		ID:            e.ID,
		TimePoint:     e.Tag,
		Time:          e.Time,
		Cause:         e.Cause,
		BaselineCurve: e.BaselineCurve,
		Baseline:      e.Baseline,
		Contributions: make([]Contribution, len(e.Contributions)),
		Prediction:    e.Prediction,
	}
	for i, c := range e.Contributions {
		out.Contributions[i] = Contribution{Feature: c.Feature, Value: c.Value}
	}
	return out
}

func pointsFromDomain(pts []curve.Point) []Point {
	out := make([]Point, len(pts))
	for i, p := range pts {
		out[i] = Point{Time: p.Time, Value: p.Value}
	}
	return out
}

func rowsFromDomain(rows []predict.Row) []Row {
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{Time: r.Time, Value: r.Value, Display: r.Display, Percent: r.Percent}
	}
	return out
}

func featureFromDomain(f feature.Feature) FeatureInfo {
	info := FeatureInfo{Name: f.Name(), Kind: string(f.Kind())}
	if f.IsNumeric() {
		info.Min, info.Max = f.Min(), f.Max()
	} else {
		info.Levels = f.Levels()
	}
	return info
}
