// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stats

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrZeroSigma is returned when a density or overlap needs a positive SD.
var ErrZeroSigma = errors.New("distribution standard deviation must be positive")

// Normal is a normal distribution described by its mean and SD.
type Normal struct {
	Mean float64 `json:"mean" yaml:"mean"`
	SD   float64 `json:"sd" yaml:"sd"`
}

func (n Normal) dist() distuv.Normal {
	return distuv.Normal{Mu: n.Mean, Sigma: n.SD}
}

// PDF evaluates the normal density at each x.
func PDF(n Normal, xs []float64) ([]float64, error) {
	if !(n.SD > 0) {
		return nil, ErrZeroSigma
	}
	d := n.dist()
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = d.Prob(x)
	}
	return out, nil
}

// PDFs evaluates every distribution's density at xs.
func PDFs(dists []Normal, xs []float64) ([][]float64, error) {
	out := make([][]float64, len(dists))
	for i, n := range dists {
		ys, err := PDF(n, xs)
		if err != nil {
			return nil, fmt.Errorf("distribution %d: %w", i, err)
		}
		out[i] = ys
	}
	return out, nil
}

// Overlap returns the overlapping coefficient of two normal distributions:
// the area under the minimum of both densities, in [0, 1]. The densities
// cross at most twice; the area follows from the CDFs at the crossings.
func Overlap(a, b Normal) (float64, error) {
	if !(a.SD > 0) || !(b.SD > 0) {
		return 0, ErrZeroSigma
	}

	x, y := a, b
	if y.SD < x.SD || (y.SD == x.SD && y.Mean < x.Mean) {
		x, y = y, x
	}
	xVar, yVar := x.SD*x.SD, y.SD*y.SD
	dv := yVar - xVar
	dm := math.Abs(y.Mean - x.Mean)

	if dv == 0 {
		return 1 - math.Erf(dm/(2*x.SD*math.Sqrt2)), nil
	}

	av := x.Mean*yVar - y.Mean*xVar
	bv := x.SD * y.SD * math.Sqrt(dm*dm+dv*math.Log(yVar/xVar))
	x1 := (av + bv) / dv
	x2 := (av - bv) / dv

	dx, dy := x.dist(), y.dist()
	ov := 1 - (math.Abs(dy.CDF(x1)-dx.CDF(x1)) + math.Abs(dy.CDF(x2)-dx.CDF(x2)))
	return math.Max(0, math.Min(1, ov)), nil
}

// OverlapSummary is the overlap of the reference distribution with another.
type OverlapSummary struct {
	Index   int     `json:"index" yaml:"index"`
	Overlap float64 `json:"overlap" yaml:"overlap"`
	Message string  `json:"message" yaml:"message"`
}

// PercentOverlap compares the first distribution with every distribution,
// itself included, and describes each overlap as a percentage.
func PercentOverlap(dists []Normal) ([]OverlapSummary, error) {
	if len(dists) == 0 {
		return nil, nil
	}
	out := make([]OverlapSummary, len(dists))
	for i, d := range dists {
		ov, err := Overlap(dists[0], d)
		if err != nil {
			return nil, fmt.Errorf("dataset %d: %w", i+1, err)
		}
		out[i] = OverlapSummary{
			Index:   i,
			Overlap: ov,
			Message: fmt.Sprintf("The overlap between dataset 1 and dataset %d is %.2f%%", i+1, ov*100),
		}
	}
	return out, nil
}

// Summary describes a sample for box plots and tables.
type Summary struct {
	N      int     `json:"n" yaml:"n"`
	Mean   float64 `json:"mean" yaml:"mean"`
	SD     float64 `json:"sd" yaml:"sd"`
	Min    float64 `json:"min" yaml:"min"`
	Q1     float64 `json:"q1" yaml:"q1"`
	Median float64 `json:"median" yaml:"median"`
	Q3     float64 `json:"q3" yaml:"q3"`
	Max    float64 `json:"max" yaml:"max"`
}

// Summarize computes the sample mean, SD and quartiles. An empty sample
// yields the zero Summary.
func Summarize(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	s := Summary{
		N:      len(sorted),
		Mean:   stat.Mean(sorted, nil),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
	}
	if len(sorted) > 1 {
		s.SD = stat.StdDev(sorted, nil)
	}
	return s
}
