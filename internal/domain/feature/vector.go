package feature

import (
	"strconv"
	"strings"
)

// Vector is a FeatureVector: one value per schema feature, in schema order.
// Numeric features use nums[i]; categorical features use levels[i].
type Vector struct {
	schema Schema
	nums   []float64
	levels []string
}

// Schema returns the schema the vector is bound to.
func (v Vector) Schema() Schema { return v.schema }

// Len returns the number of values.
func (v Vector) Len() int { return len(v.nums) }

// Numeric returns the numeric value at position i.
func (v Vector) Numeric(i int) float64 { return v.nums[i] }

// Level returns the categorical level at position i.
func (v Vector) Level(i int) string { return v.levels[i] }

// LevelOf returns the categorical level of a named feature.
func (v Vector) LevelOf(name string) (string, bool) {
	i, ok := v.schema.Index(name)
	if !ok || v.schema.At(i).IsNumeric() {
		return "", false
	}
	return v.levels[i], true
}

// Map returns the values keyed by feature name (float64 or string).
func (v Vector) Map() map[string]any {
	m := make(map[string]any, len(v.nums))
	for i, f := range v.schema.features {
		if f.IsNumeric() {
			m[f.name] = v.nums[i]
		} else {
			m[f.name] = v.levels[i]
		}
	}
	return m
}

// Key returns a canonical text form of the vector, stable across processes.
func (v Vector) Key() string {
	var b strings.Builder
	for i, f := range v.schema.features {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(f.name)
		b.WriteByte('=')
		if f.IsNumeric() {
			b.WriteString(strconv.FormatFloat(v.nums[i], 'g', -1, 64))
		} else {
			b.WriteString(v.levels[i])
		}
	}
	return b.String()
}
