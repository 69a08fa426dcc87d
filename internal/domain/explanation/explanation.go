package explanation

// Unattributed is the synthetic feature carrying the consistency residual.
const Unattributed = "unattributed"

// Contribution is one named additive term of an explanation.
type Contribution struct {
	Feature string  `json:"feature"`
	Value   float64 `json:"value"`
}

// Neighbor is one grid row used for interpolation.
type Neighbor struct {
	Index    int     `json:"index"`
	Distance float64 `json:"distance"`
	Weight   float64 `json:"weight"`
}

// Explanation is an additive decomposition of a prediction at one time point:
// Baseline + sum(Contributions) == Prediction.
type Explanation struct {
	ID            string         `json:"id"`
	Tag           string         `json:"time_point"`
	Time          float64        `json:"time"`
	Cause         int            `json:"cause"`
	BaselineCurve string         `json:"baseline_curve"`
	Baseline      float64        `json:"baseline"`
	Contributions []Contribution `json:"contributions"`
	Prediction    float64        `json:"prediction"`
	Neighbors     []Neighbor     `json:"neighbors,omitempty"`
}

// Parts are the computed pieces an explanation is assembled from.
type Parts struct {
	ID            string
	Tag           string
	Time          float64
	Cause         int
	BaselineCurve string
	Baseline      float64
	Features      []string  // attributable features, schema order
	Attributions  []float64 // aligned with Features
	Residual      float64
	Prediction    float64
	Neighbors     []Neighbor
}

// Assemble packages parts into an Explanation. Contributions keep feature order
// with the unattributed term last.
func Assemble(p Parts) Explanation {
	contribs := make([]Contribution, 0, len(p.Features)+1)
	for i, f := range p.Features {
		contribs = append(contribs, Contribution{Feature: f, Value: p.Attributions[i]})
	}
	contribs = append(contribs, Contribution{Feature: Unattributed, Value: p.Residual})

	return Explanation{
		ID:            p.ID,
		Tag:           p.Tag,
		Time:          p.Time,
		Cause:         p.Cause,
		BaselineCurve: p.BaselineCurve,
		Baseline:      p.Baseline,
		Contributions: contribs,
		Prediction:    p.Prediction,
		Neighbors:     append([]Neighbor(nil), p.Neighbors...),
	}
}

// Total returns Baseline plus the sum of all contributions.
func (e Explanation) Total() float64 {
	sum := e.Baseline
	for _, c := range e.Contributions {
		sum += c.Value
	}
	return sum
}

// Contribution returns the value of a named contribution.
func (e Explanation) Contribution(name string) (float64, bool) {
	for _, c := range e.Contributions {
		if c.Feature == name {
			return c.Value, true
		}
	}
	return 0, false
}

// Residual returns the unattributed term.
func (e Explanation) Residual() float64 {
	v, _ := e.Contribution(Unattributed)
	return v
}
