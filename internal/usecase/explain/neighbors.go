package explain

import (
	"sort"

	"github.com/fmhr12/ORN-Prognosis/internal/domain/grid"
)

// K is the number of grid rows an explanation is interpolated from.
const K = 3

// Epsilon smooths inverse-distance weights so an exact match stays finite.
const Epsilon = 1e-8

// Neighbor is a selected grid row and its distance to the query.
type Neighbor struct {
	Index    int
	Distance float64
}

// SelectNeighbors returns the min(k, len(distances)) closest rows in ascending
// distance. Equal distances keep grid order.
func SelectNeighbors(distances []float64, k int) []Neighbor {
	all := make([]Neighbor, len(distances))
	for i, d := range distances {
		all[i] = Neighbor{Index: i, Distance: d}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Distance < all[j].Distance })
	if k < len(all) {
		all = all[:k]
	}
	return all
}

// Weights returns normalized inverse-distance weights:
// w_i = (1/(d_i+Epsilon)) / sum_j 1/(d_j+Epsilon).
func Weights(ns []Neighbor) []float64 {
	w := make([]float64, len(ns))
	var total float64
	for i, n := range ns {
		w[i] = 1 / (n.Distance + Epsilon)
		total += w[i]
	}
	for i := range w {
		w[i] /= total
	}
	return w
}

// Interpolate blends the neighbours' attribution vectors: sum_i w_i * a_i[f]
// for each attributable feature of table.
func Interpolate(ns []Neighbor, weights []float64, table grid.Table) []float64 {
	out := make([]float64, len(table.Features()))
	for i, n := range ns {
		row := table.Row(n.Index)
		for f := range out {
			out[f] += weights[i] * row[f]
		}
	}
	return out
}

// Residual is the part of prediction not covered by baseline plus attributions.
// Adding it as a contribution makes the explanation sum to the prediction exactly.
func Residual(baseline float64, attributions []float64, prediction float64) float64 {
	sum := baseline
	for _, a := range attributions {
		sum += a
	}
	return prediction - sum
}
