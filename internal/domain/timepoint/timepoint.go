// Package timepoint parses caller-supplied query times and builds uniform time grids.
package timepoint

import (
	"math"
	"strconv"
	"strings"
)

// DefaultQueryTime is used when a query-time list has no valid entries.
const DefaultQueryTime = 60.0

// Dense grid defaults (months).
const (
	DefaultDenseMax  = 114.0
	DefaultDenseStep = 1.0
)

// ParseQueryTimes parses a comma-separated list of times.
// Non-numeric, non-finite and negative tokens are discarded. Order and duplicates
// are preserved. An input with no valid token yields [DefaultQueryTime].
func ParseQueryTimes(raw string) []float64 {
	var times []float64
	for _, tok := range strings.Split(raw, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		t, err := strconv.ParseFloat(tok, 64)
		if err != nil || math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
			continue
		}
		times = append(times, t)
	}
	if len(times) == 0 {
		return []float64{DefaultQueryTime}
	}
	return times
}

// Dense returns 0, step, 2*step, ... up to and including maxTime.
// Non-positive step or negative maxTime fall back to the defaults.
func Dense(maxTime, step float64) []float64 {
	if step <= 0 {
		step = DefaultDenseStep
	}
	if maxTime < 0 {
		maxTime = DefaultDenseMax
	}
	n := int(math.Floor(maxTime/step+1e-9)) + 1
	times := make([]float64, n)
	for i := range times {
		times[i] = float64(i) * step
	}
	return times
}
