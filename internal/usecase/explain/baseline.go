package explain

import (
	"fmt"
	"sort"

	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
)

// DefaultBaselineCurve is used when no baseline curve is configured.
const DefaultBaselineCurve = "overall"

// BaselinePolicy chooses the reference curve an explanation is measured against.
// With StratifyBy set, the query's level of that categorical feature selects a
// curve from Strata; unmapped levels fall back to Curve.
type BaselinePolicy struct {
	Curve      string
	StratifyBy string
	Strata     map[string]string // level -> curve name
}

// Validate checks the policy against the schema and the available curves.
func (p BaselinePolicy) Validate(schema feature.Schema, curves BaselineSource) error {
	if !curves.Has(p.Curve) {
		return fmt.Errorf("baseline curve %q is not loaded", p.Curve)
	}
	if p.StratifyBy == "" {
		return nil
	}
	f, ok := schema.ByName(p.StratifyBy)
	if !ok {
		return fmt.Errorf("stratify_by feature %q not in schema", p.StratifyBy)
	}
	if f.IsNumeric() {
		return fmt.Errorf("stratify_by feature %q must be categorical", p.StratifyBy)
	}
	levels := make([]string, 0, len(p.Strata))
	for level := range p.Strata {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	for _, level := range levels {
		if !f.HasLevel(level) {
			return fmt.Errorf("strata: %q is not a level of %q", level, p.StratifyBy)
		}
		if !curves.Has(p.Strata[level]) {
			return fmt.Errorf("strata: curve %q for level %q is not loaded", p.Strata[level], level)
		}
	}
	return nil
}

// Resolve returns the curve name for a query.
func (p BaselinePolicy) Resolve(v feature.Vector) string {
	if p.StratifyBy == "" {
		return p.Curve
	}
	level, ok := v.LevelOf(p.StratifyBy)
	if !ok {
		return p.Curve
	}
	if name, ok := p.Strata[level]; ok {
		return name
	}
	return p.Curve
}
