// Package finegray evaluates a fitted Fine–Gray subdistribution hazard model.
//
// For cause k the cumulative incidence is
//
//	F_k(t | x) = 1 - exp(-H0_k(t) * exp(beta_k · x))
//
// where H0_k is the cumulative baseline subdistribution hazard, stored as a
// right-continuous step function. F_k is non-decreasing in t for fixed x.
package finegray

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/fmhr12/ORN-Prognosis/internal/domain"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/curve"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
)

// artifact is the on-disk YAML form.
type artifact struct {
	Name   string          `yaml:"name"`
	Causes []causeArtifact `yaml:"causes"`
}

type causeArtifact struct {
	Cause          int                          `yaml:"cause"`
	Label          string                       `yaml:"label"`
	BaselineHazard []knot                       `yaml:"baseline_hazard"`
	Numeric        map[string]numericCoef       `yaml:"numeric"`
	Categorical    map[string]map[string]float64 `yaml:"categorical"`
}

type knot struct {
	Time   float64 `yaml:"time"`
	Hazard float64 `yaml:"hazard"`
}

type numericCoef struct {
	Coef   float64 `yaml:"coef"`
	Center float64 `yaml:"center"`
}

// causeModel is the evaluated form of one cause, with coefficients aligned to the schema.
type causeModel struct {
	label  string
	times  []float64
	hazard []float64
	coef   []float64            // numeric features, by schema index
	center []float64            // numeric features, by schema index
	levels []map[string]float64 // categorical features, by schema index
}

// Model is an immutable fitted model bound to a feature schema.
type Model struct {
	name   string
	schema feature.Schema
	causes map[int]*causeModel
}

// Load reads a model artifact from a YAML file.
func Load(path string, schema feature.Schema) (*Model, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read model %s: %w", path, err)
	}
	m, err := Parse(data, schema)
	if err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes and validates a model artifact against schema.
func Parse(data []byte, schema feature.Schema) (*Model, error) {
	var a artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if len(a.Causes) == 0 {
		return nil, fmt.Errorf("model defines no causes")
	}

	causes := make(map[int]*causeModel, len(a.Causes))
	for _, ca := range a.Causes {
		if _, dup := causes[ca.Cause]; dup {
			return nil, fmt.Errorf("duplicate cause %d", ca.Cause)
		}
		cm, err := buildCause(ca, schema)
		if err != nil {
			return nil, fmt.Errorf("cause %d: %w", ca.Cause, err)
		}
		causes[ca.Cause] = cm
	}
	return &Model{name: a.Name, schema: schema, causes: causes}, nil
}

func buildCause(ca causeArtifact, schema feature.Schema) (*causeModel, error) {
	if len(ca.BaselineHazard) == 0 {
		return nil, fmt.Errorf("baseline_hazard is empty")
	}
	cm := &causeModel{
		label:  ca.Label,
		times:  make([]float64, len(ca.BaselineHazard)),
		hazard: make([]float64, len(ca.BaselineHazard)),
		coef:   make([]float64, schema.Len()),
		center: make([]float64, schema.Len()),
		levels: make([]map[string]float64, schema.Len()),
	}
	for i, k := range ca.BaselineHazard {
		if k.Time < 0 || k.Hazard < 0 {
			return nil, fmt.Errorf("baseline_hazard[%d]: negative time or hazard", i)
		}
		if i > 0 {
			prev := ca.BaselineHazard[i-1]
			if k.Time <= prev.Time {
				return nil, fmt.Errorf("baseline_hazard[%d]: times not strictly increasing", i)
			}
			if k.Hazard < prev.Hazard {
				return nil, fmt.Errorf("baseline_hazard[%d]: cumulative hazard decreases", i)
			}
		}
		cm.times[i] = k.Time
		cm.hazard[i] = k.Hazard
	}

	for name, nc := range ca.Numeric {
		i, ok := schema.Index(name)
		if !ok {
			return nil, fmt.Errorf("%w: numeric coefficient for unknown feature %q", domain.ErrSchemaMismatch, name)
		}
		if !schema.At(i).IsNumeric() {
			return nil, fmt.Errorf("%w: feature %q is not numeric", domain.ErrSchemaMismatch, name)
		}
		cm.coef[i] = nc.Coef
		cm.center[i] = nc.Center
	}
	for name, lv := range ca.Categorical {
		i, ok := schema.Index(name)
		if !ok {
			return nil, fmt.Errorf("%w: categorical coefficient for unknown feature %q", domain.ErrSchemaMismatch, name)
		}
		f := schema.At(i)
		if f.IsNumeric() {
			return nil, fmt.Errorf("%w: feature %q is not categorical", domain.ErrSchemaMismatch, name)
		}
		for level := range lv {
			if !f.HasLevel(level) {
				return nil, fmt.Errorf("%w: feature %q has no level %q", domain.ErrSchemaMismatch, name, level)
			}
		}
		cm.levels[i] = lv
	}
	return cm, nil
}

// Digest writes the fitted parameters to w in a stable order.
func (m *Model) Digest(w io.Writer) {
	fmt.Fprintf(w, "model %s\n", m.name)
	for _, c := range m.Causes() {
		cm := m.causes[c]
		fmt.Fprintf(w, "cause %d %q %v %v %v %v\n", c, cm.label, cm.times, cm.hazard, cm.coef, cm.center)
		for i, lv := range cm.levels {
			levels := make([]string, 0, len(lv))
			for l := range lv {
				levels = append(levels, l)
			}
			sort.Strings(levels)
			for _, l := range levels {
				fmt.Fprintf(w, "level %d %q %v\n", i, l, lv[l])
			}
		}
	}
}

// Name returns the artifact name.
func (m *Model) Name() string { return m.name }

// Schema returns the schema the model was bound to.
func (m *Model) Schema() feature.Schema { return m.schema }

// Causes returns the fitted causes in ascending order.
func (m *Model) Causes() []int {
	out := make([]int, 0, len(m.causes))
	for c := range m.causes {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}

// Label returns the label of a cause.
func (m *Model) Label(cause int) string {
	if cm, ok := m.causes[cause]; ok {
		return cm.label
	}
	return ""
}

// Predict returns the cumulative incidence of cause at each requested time, in request order.
func (m *Model) Predict(_ context.Context, v feature.Vector, times []float64, cause int) ([]curve.Point, error) {
	cm, ok := m.causes[cause]
	if !ok {
		return nil, fmt.Errorf("%w: %d", domain.ErrUnknownCause, cause)
	}
	if !v.Schema().Equal(m.schema) {
		return nil, domain.ErrSchemaMismatch
	}

	lp := cm.linearPredictor(v, m.schema)
	if math.IsNaN(lp) {
		return nil, fmt.Errorf("%w: linear predictor is NaN", domain.ErrModelContract)
	}
	risk := math.Exp(lp)
	out := make([]curve.Point, len(times))
	for i, t := range times {
		if t < 0 || math.IsNaN(t) {
			return nil, domain.NewValidationErrorf("time", "must be non-negative, got %g", t)
		}
		out[i] = curve.Point{Time: t, Value: cif(cm.baselineAt(t), risk)}
	}
	return out, nil
}

// cif is 1 - exp(-h0*risk) clamped to [0,1]. A zero hazard is 0 even when
// risk overflowed to +Inf.
func cif(h0, risk float64) float64 {
	if h0 <= 0 {
		return 0
	}
	v := -math.Expm1(-h0 * risk)
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}

func (cm *causeModel) linearPredictor(v feature.Vector, schema feature.Schema) float64 {
	var lp float64
	for i := 0; i < schema.Len(); i++ {
		if schema.At(i).IsNumeric() {
			lp += cm.coef[i] * (v.Numeric(i) - cm.center[i])
			continue
		}
		if lv := cm.levels[i]; lv != nil {
			lp += lv[v.Level(i)]
		}
	}
	return lp
}

// baselineAt evaluates the right-continuous step function: 0 before the first knot,
// the last knot's value after the final time.
func (cm *causeModel) baselineAt(t float64) float64 {
	j := sort.Search(len(cm.times), func(i int) bool { return cm.times[i] > t })
	if j == 0 {
		return 0
	}
	return cm.hazard[j-1]
}
