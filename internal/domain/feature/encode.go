package feature

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/fmhr12/ORN-Prognosis/internal/domain"
)

// Encoder normalizes raw caller values into Vectors of a fixed schema.
type Encoder struct {
	schema Schema
}

// NewEncoder creates an encoder for schema.
func NewEncoder(schema Schema) *Encoder {
	return &Encoder{schema: schema}
}

// Schema returns the encoder's schema.
func (e *Encoder) Schema() Schema { return e.schema }

// Encode validates raw values and returns a Vector.
// Every schema feature must be present and no other keys are allowed.
// Numeric values are not clamped to the advisory bounds.
func (e *Encoder) Encode(raw map[string]any) (Vector, error) {
	unknown := make([]string, 0)
	for k := range raw {
		if _, ok := e.schema.index[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Vector{}, domain.NewValidationError(unknown[0], "unknown feature")
	}

	n := e.schema.Len()
	nums := make([]float64, n)
	levels := make([]string, n)
	for i, f := range e.schema.features {
		val, ok := raw[f.name]
		if !ok || val == nil {
			return Vector{}, domain.NewValidationError(f.name, "value is required")
		}
		if f.IsNumeric() {
			x, err := toFloat(f.name, val)
			if err != nil {
				return Vector{}, err
			}
			nums[i] = x
			continue
		}
		level, err := toLevel(f, val)
		if err != nil {
			return Vector{}, err
		}
		levels[i] = level
	}
	return Vector{schema: e.schema, nums: nums, levels: levels}, nil
}

// EncodeStrings is Encode for all-text input (CSV cells, CLI flags).
func (e *Encoder) EncodeStrings(raw map[string]string) (Vector, error) {
	m := make(map[string]any, len(raw))
	for k, v := range raw {
		m[k] = v
	}
	return e.Encode(m)
}

func toFloat(name string, val any) (float64, error) {
	var x float64
	switch v := val.(type) {
	case float64:
		x = v
	case float32:
		x = float64(v)
	case int:
		x = float64(v)
	case int64:
		x = float64(v)
	case int32:
		x = float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, domain.NewValidationErrorf(name, "not a number: %q", v.String())
		}
		x = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, domain.NewValidationErrorf(name, "not a number: %q", v)
		}
		x = f
	default:
		return 0, domain.NewValidationErrorf(name, "expected a number, got %T", val)
	}
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, domain.NewValidationError(name, "must be a finite number")
	}
	return x, nil
}

func toLevel(f Feature, val any) (string, error) {
	var s string
	switch v := val.(type) {
	case string:
		s = strings.TrimSpace(v)
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		return "", domain.NewValidationErrorf(f.name, "expected one of %s, got %T", strings.Join(f.levels, ", "), val)
	}
	if !f.HasLevel(s) {
		return "", domain.NewValidationErrorf(f.name, "%q is not one of %s", s, strings.Join(f.levels, ", "))
	}
	return s, nil
}
