// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrBadEdges is returned when histogram edges are not a strictly
// increasing sequence of at least two finite values.
var ErrBadEdges = errors.New("histogram edges must be at least two strictly increasing finite values")

// Linspace returns num evenly spaced values from start to stop inclusive.
func Linspace(start, stop float64, num int) ([]float64, error) {
	if num < 2 {
		return nil, fmt.Errorf("linspace needs at least 2 points, got %d", num)
	}
	if !(stop > start) {
		return nil, fmt.Errorf("linspace stop %g must exceed start %g", stop, start)
	}
	return floats.Span(make([]float64, num), start, stop), nil
}

func validateEdges(edges []float64) error {
	if len(edges) < 2 {
		return ErrBadEdges
	}
	for i, e := range edges {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return ErrBadEdges
		}
		if i > 0 && !(e > edges[i-1]) {
			return ErrBadEdges
		}
	}
	return nil
}

// Histogram counts samples into the bins delimited by edges. Every bin is
// half-open [edges[i], edges[i+1]) except the last, which also includes
// its right edge. Samples outside the edges are dropped.
func Histogram(samples, edges []float64) ([]int, error) {
	if err := validateEdges(edges); err != nil {
		return nil, err
	}

	counts := make([]int, len(edges)-1)
	last := edges[len(edges)-1]
	for _, x := range samples {
		if x == last {
			counts[len(counts)-1]++
			continue
		}
		if i := floats.Within(edges, x); i >= 0 {
			counts[i]++
		}
	}
	return counts, nil
}

// Bin computes the histogram of every dataset over the same edges.
func Bin(datasets []Dataset, edges []float64) ([][]int, error) {
	out := make([][]int, len(datasets))
	for i, d := range datasets {
		counts, err := Histogram(d.Samples, edges)
		if err != nil {
			return nil, err
		}
		out[i] = counts
	}
	return out, nil
}

// Envelope returns a range covering width standard deviations either side
// of every distribution.
func Envelope(dists []Normal, width float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, d := range dists {
		lo = math.Min(lo, d.Mean-width*d.SD)
		hi = math.Max(hi, d.Mean+width*d.SD)
	}
	return lo, hi
}
