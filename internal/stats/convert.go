// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stats turns published per-genotype summary statistics into
// synthetic phenotype distributions: parameter conversion, sample
// generation, histogram binning, density curves, and distribution overlap.
package stats

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cast"

	"github.com/pdiddy/genocode/pkg/types"
)

const (
	// DefaultCILevel is the confidence level assumed when none is given.
	DefaultCILevel = 95.0

	// DefaultN is the sample size assumed for SE and CI conversions.
	DefaultN = 100
)

var (
	ErrUnknownCILevel = errors.New("unsupported confidence level")
	ErrMissingMean    = errors.New("mean is required when no confidence interval is given")
	ErrNonPositiveSD  = errors.New("standard deviation must be positive")
	ErrIncompleteCI   = errors.New("confidence interval needs both lower and upper bounds")
	ErrInvertedCI     = errors.New("confidence interval lower bound exceeds upper bound")
)

// zScores maps a two-sided confidence level (percent) to its critical value.
var zScores = map[float64]float64{
	99.9: 3.291,
	99.5: 2.807,
	99.0: 2.576,
	95.0: 1.960,
	90.0: 1.645,
	85.0: 1.440,
	80.0: 1.282,
}

// ZScore returns the critical value for a confidence level in percent.
func ZScore(level float64) (float64, error) {
	z, ok := zScores[level]
	if !ok {
		return 0, fmt.Errorf("%w: %g (use 80, 85, 90, 95, 99, 99.5 or 99.9)", ErrUnknownCILevel, level)
	}
	return z, nil
}

// SEToSD converts a standard error of the mean to a standard deviation.
func SEToSD(se float64, n int) float64 {
	return se * math.Sqrt(float64(n))
}

// CIToSD converts a confidence interval of the mean to a standard deviation.
// The interval half-width is z*SD/sqrt(n).
func CIToSD(lower, upper, level float64, n int) (float64, error) {
	z, err := ZScore(level)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(float64(n)) * (upper - lower) / (2 * z), nil
}

// Resolve derives the mean and standard deviation described by ss. A
// standard error, when present, determines the SD; otherwise a confidence
// interval does; otherwise the explicit SD is used. A confidence interval
// without a mean centres the distribution on the interval midpoint.
// Every problem found is reported.
func Resolve(ss types.SummaryStats) (mean, sd float64, err error) {
	var result *multierror.Error

	n := ss.N
	if n <= 0 {
		n = DefaultN
	}
	level := ss.CILevel
	if level == 0 {
		level = DefaultCILevel
	}

	haveSD := false
	switch {
	case ss.LowerCI != nil && ss.UpperCI != nil:
		lower, upper := *ss.LowerCI, *ss.UpperCI
		if lower > upper {
			result = multierror.Append(result, fmt.Errorf("%w: %g > %g", ErrInvertedCI, lower, upper))
			break
		}
		v, cerr := CIToSD(lower, upper, level, n)
		if cerr != nil {
			result = multierror.Append(result, cerr)
			break
		}
		sd, haveSD = v, true
		if ss.Mean == nil {
			mean = (lower + upper) / 2
		}
	case ss.LowerCI != nil || ss.UpperCI != nil:
		result = multierror.Append(result, ErrIncompleteCI)
	}
	ciFailed := result != nil

	if ss.SE != nil {
		sd, haveSD = SEToSD(*ss.SE, n), true
	} else if !haveSD && ss.SD != nil {
		sd, haveSD = *ss.SD, true
	}

	if ss.Mean != nil {
		mean = *ss.Mean
	} else if ss.LowerCI == nil || ss.UpperCI == nil {
		result = multierror.Append(result, ErrMissingMean)
	}

	switch {
	case haveSD && (!(sd > 0) || math.IsInf(sd, 0)):
		result = multierror.Append(result, fmt.Errorf("%w (got %g)", ErrNonPositiveSD, sd))
	case !haveSD && !ciFailed:
		result = multierror.Append(result, fmt.Errorf("%w: none of sd, se or a confidence interval given", ErrNonPositiveSD))
	}

	if err := result.ErrorOrNil(); err != nil {
		return 0, 0, err
	}
	return mean, sd, nil
}

// ParseParams coerces loosely typed values (numbers or numeric strings,
// as submitted through forms or CSV cells) into SummaryStats. Recognised
// keys: mean, sd, se, lower_ci, upper_ci, ci_level, n. Nil and blank
// values are treated as unset.
func ParseParams(values map[string]any) (types.SummaryStats, error) {
	var (
		ss     types.SummaryStats
		result *multierror.Error
	)

	num := func(key string) *float64 {
		v, ok := values[key]
		if !ok || v == nil {
			return nil
		}
		if s, isStr := v.(string); isStr {
			s = strings.TrimSpace(s)
			if s == "" {
				return nil
			}
			v = s
		}
		f, err := cast.ToFloat64E(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", key, err))
			return nil
		}
		return &f
	}

	ss.Mean = num("mean")
	ss.SD = num("sd")
	ss.SE = num("se")
	ss.LowerCI = num("lower_ci")
	ss.UpperCI = num("upper_ci")
	if p := num("ci_level"); p != nil {
		ss.CILevel = *p
	}
	if v, ok := values["n"]; ok && v != nil && v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("n: %w", err))
		} else {
			ss.N = n
		}
	}

	return ss, result.ErrorOrNil()
}
