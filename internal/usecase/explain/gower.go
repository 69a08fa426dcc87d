package explain

import (
	"math"

	"github.com/fmhr12/ORN-Prognosis/internal/domain/feature"
	"github.com/fmhr12/ORN-Prognosis/internal/domain/grid"
)

// column pairs a query feature with the same-named reference feature.
type column struct {
	q, r    int
	numeric bool
	span    float64
}

// matcher holds the features shared by a query schema and a reference schema.
// Features are matched by name, so declaration order does not matter.
type matcher struct {
	cols []column
}

// newMatcher pairs features present in both schemas with the same kind.
// ranges is indexed by reference schema position. Numeric features with a
// zero observed range carry no information and are left out of the mean.
func newMatcher(query, ref feature.Schema, ranges []grid.Range) matcher {
	cols := make([]column, 0, query.Len())
	for qi := 0; qi < query.Len(); qi++ {
		qf := query.At(qi)
		ri, ok := ref.Index(qf.Name())
		if !ok || ref.At(ri).Kind() != qf.Kind() {
			continue
		}
		c := column{q: qi, r: ri, numeric: qf.IsNumeric()}
		if c.numeric {
			if ri >= len(ranges) || ranges[ri].Span() <= 0 {
				continue
			}
			c.span = ranges[ri].Span()
		}
		cols = append(cols, c)
	}
	return matcher{cols: cols}
}

func (m matcher) distance(q, r feature.Vector) float64 {
	if len(m.cols) == 0 {
		return 0
	}
	var sum float64
	for _, c := range m.cols {
		if c.numeric {
			sum += math.Abs(q.Numeric(c.q)-r.Numeric(c.r)) / c.span
			continue
		}
		if q.Level(c.q) != r.Level(c.r) {
			sum++
		}
	}
	return sum / float64(len(m.cols))
}

// Gower returns the mixed-type dissimilarity between a and b: the mean over
// shared features of |a-b|/range for numeric features and 0/1 for categorical
// ones. ranges is indexed by b's schema positions. Numeric features with no
// usable range are left out, so values differing only there still give 0.
func Gower(a, b feature.Vector, ranges []grid.Range) float64 {
	return newMatcher(a.Schema(), b.Schema(), ranges).distance(a, b)
}

// Distances returns the Gower distance from query to every grid row, in grid order.
func Distances(query feature.Vector, g *grid.Grid) []float64 {
	m := newMatcher(query.Schema(), g.Schema(), g.Ranges())
	out := make([]float64, g.Len())
	for i := range out {
		out[i] = m.distance(query, g.Row(i))
	}
	return out
}
