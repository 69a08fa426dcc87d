package curve

import (
	"fmt"
	"math"
	"sort"
)

// Point is one (time, cumulative incidence) sample.
type Point struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// Curve is an immutable population-average cumulative incidence curve.
type Curve struct {
	name   string
	points []Point
}

// New validates and creates a curve.
// Times must be non-negative and strictly increasing; values must lie in [0,1]
// and be non-decreasing.
func New(name string, points []Point) (Curve, error) {
	if name == "" {
		return Curve{}, fmt.Errorf("curve name is required")
	}
	if len(points) == 0 {
		return Curve{}, fmt.Errorf("curve %q: no points", name)
	}
	for i, p := range points {
		if math.IsNaN(p.Time) || math.IsNaN(p.Value) {
			return Curve{}, fmt.Errorf("curve %q: NaN at point %d", name, i)
		}
		if p.Time < 0 {
			return Curve{}, fmt.Errorf("curve %q: negative time %g", name, p.Time)
		}
		if p.Value < 0 || p.Value > 1 {
			return Curve{}, fmt.Errorf("curve %q: value %g at time %g outside [0,1]", name, p.Value, p.Time)
		}
		if i == 0 {
			continue
		}
		prev := points[i-1]
		if p.Time <= prev.Time {
			return Curve{}, fmt.Errorf("curve %q: times not strictly increasing at %g", name, p.Time)
		}
		if p.Value < prev.Value {
			return Curve{}, fmt.Errorf("curve %q: value decreases at time %g", name, p.Time)
		}
	}
	return Curve{name: name, points: append([]Point(nil), points...)}, nil
}

// Name returns the curve name.
func (c Curve) Name() string { return c.name }

// Points returns a copy of the samples.
func (c Curve) Points() []Point { return append([]Point(nil), c.points...) }

// Len returns the number of samples.
func (c Curve) Len() int { return len(c.points) }

// At returns the value at time t by linear interpolation between the bracketing
// samples. Outside the recorded range the nearest endpoint value is returned.
func (c Curve) At(t float64) float64 {
	first, last := c.points[0], c.points[len(c.points)-1]
	if t <= first.Time {
		return first.Value
	}
	if t >= last.Time {
		return last.Value
	}
	// first index with Time >= t; guaranteed in (0, len-1]
	j := sort.Search(len(c.points), func(i int) bool { return c.points[i].Time >= t })
	hi := c.points[j]
	if hi.Time == t {
		return hi.Value
	}
	lo := c.points[j-1]
	frac := (t - lo.Time) / (hi.Time - lo.Time)
	return lo.Value + frac*(hi.Value-lo.Value)
}
