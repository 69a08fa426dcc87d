package grid

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SuffixSep separates a feature name from a time-point label in attribution column names.
const SuffixSep = "_t"

// Tag is an explanation time-point label, e.g. "60". Labels are matched exactly.
type Tag string

// ParseTag validates a label. It must be a non-negative number so the model
// can be evaluated at the same time point.
func ParseTag(s string) (Tag, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("time point label is required")
	}
	t, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
		return "", fmt.Errorf("time point label %q is not a non-negative number", s)
	}
	return Tag(s), nil
}

// Time returns the numeric time of the tag.
func (t Tag) Time() float64 {
	v, err := strconv.ParseFloat(string(t), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// Column returns the attribution column name for a feature at this tag.
func (t Tag) Column(featureName string) string {
	return featureName + SuffixSep + string(t)
}

// String returns the label.
func (t Tag) String() string { return string(t) }
