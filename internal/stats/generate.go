// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stats

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"github.com/hashicorp/go-multierror"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pdiddy/genocode/pkg/types"
)

// DefaultSize is the number of samples drawn when no size is given.
const DefaultSize = 100

// Dataset is a synthetic sample drawn for one genotype group.
type Dataset struct {
	Label    string    `json:"label" yaml:"label"`
	Genotype string    `json:"genotype" yaml:"genotype"`
	Mean     float64   `json:"mean" yaml:"mean"`
	SD       float64   `json:"sd" yaml:"sd"`
	Samples  []float64 `json:"samples,omitempty" yaml:"samples,omitempty"`
}

// Normal returns the distribution the dataset was drawn from.
func (d Dataset) Normal() Normal {
	return Normal{Mean: d.Mean, SD: d.SD}
}

// NewRand returns a deterministic generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// SeedFor derives a stable seed from a string such as a study ID.
func SeedFor(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// Generate draws size normal samples with the mean and SD resolved from ss.
func Generate(ss types.SummaryStats, size int, rng *rand.Rand) (Dataset, error) {
	mean, sd, err := Resolve(ss)
	if err != nil {
		return Dataset{}, err
	}
	if size <= 0 {
		size = DefaultSize
	}

	dist := distuv.Normal{Mu: mean, Sigma: sd, Src: rng}
	samples := make([]float64, size)
	for i := range samples {
		samples[i] = dist.Rand()
	}
	return Dataset{Mean: mean, SD: sd, Samples: samples}, nil
}

// Compound generates one dataset per genotype group, in group order.
// Groups that cannot be resolved are reported together.
func Compound(groups []types.GenotypeGroup, size int, rng *rand.Rand) ([]Dataset, error) {
	var result *multierror.Error
	datasets := make([]Dataset, 0, len(groups))

	for _, g := range groups {
		d, err := Generate(g.SummaryStats, size, rng)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("genotype %s: %w", g.Genotype, err))
			continue
		}
		d.Label = g.DisplayName()
		d.Genotype = g.Genotype
		datasets = append(datasets, d)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return datasets, nil
}
