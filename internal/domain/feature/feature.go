package feature

import "fmt"

// Kind is the value type of a feature.
type Kind string

// Feature kinds.
const (
	// Numeric is a real-valued feature with an advisory domain range.
	Numeric     Kind = "numeric"
	Categorical Kind = "categorical"
)

// IsValid checks if the kind is supported.
func (k Kind) IsValid() bool {
	return k == Numeric || k == Categorical
}

const maxNameLength = 64

// Feature is an immutable value object describing one model input.
type Feature struct {
	name   string
	kind   Kind
	min    float64
	max    float64
	levels []string
}

// NewNumeric validates and creates a numeric feature.
// min and max are advisory bounds for callers; the encoder does not enforce them.
func NewNumeric(name string, minVal, maxVal float64) (Feature, error) {
	if err := validateName(name); err != nil {
		return Feature{}, err
	}
	if minVal > maxVal {
		return Feature{}, fmt.Errorf("feature %q: min %g greater than max %g", name, minVal, maxVal)
	}
	return Feature{name: name, kind: Numeric, min: minVal, max: maxVal}, nil
}

// NewCategorical validates and creates a categorical feature.
// Levels must be non-empty and unique; their order is kept for presentation.
func NewCategorical(name string, levels []string) (Feature, error) {
	if err := validateName(name); err != nil {
		return Feature{}, err
	}
	if len(levels) == 0 {
		return Feature{}, fmt.Errorf("feature %q: at least one level is required", name)
	}
	seen := make(map[string]bool, len(levels))
	for _, l := range levels {
		if l == "" {
			return Feature{}, fmt.Errorf("feature %q: empty level", name)
		}
		if seen[l] {
			return Feature{}, fmt.Errorf("feature %q: duplicate level %q", name, l)
		}
		seen[l] = true
	}
	return Feature{name: name, kind: Categorical, levels: append([]string(nil), levels...)}, nil
}

// New dispatches on kind. Bounds are ignored for categorical features, levels for numeric ones.
func New(name string, kind Kind, minVal, maxVal float64, levels []string) (Feature, error) {
	switch kind {
	case Numeric:
		return NewNumeric(name, minVal, maxVal)
	case Categorical:
		return NewCategorical(name, levels)
	default:
		return Feature{}, fmt.Errorf("feature %q: invalid kind %q", name, kind)
	}
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("feature name is required")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("feature name %q too long (max %d)", name, maxNameLength)
	}
	return nil
}

// Name returns the feature name.
func (f Feature) Name() string { return f.name }

// Kind returns the feature kind.
func (f Feature) Kind() Kind { return f.kind }

// IsNumeric reports whether the feature is numeric.
func (f Feature) IsNumeric() bool { return f.kind == Numeric }

// Min returns the advisory lower bound (numeric only).
func (f Feature) Min() float64 { return f.min }

// Max returns the advisory upper bound (numeric only).
func (f Feature) Max() float64 { return f.max }

// Levels returns a copy of the declared levels (categorical only).
func (f Feature) Levels() []string { return append([]string(nil), f.levels...) }

// HasLevel checks whether level is declared.
func (f Feature) HasLevel(level string) bool {
	for _, l := range f.levels {
		if l == level {
			return true
		}
	}
	return false
}
