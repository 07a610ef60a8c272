// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report builds genotype-to-phenotype reports. For each trait
// study it draws synthetic samples from every genotype group's published
// statistics, bins them on shared edges, evaluates the normal densities,
// and measures how far each group's distribution overlaps the reference
// genotype's. A subject's call selects the group they belong to.
package report

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/pdiddy/genocode/internal/catalog"
	"github.com/pdiddy/genocode/internal/stats"
	"github.com/pdiddy/genocode/pkg/types"
)

// Defaults applied when the corresponding ReportConfig field is zero.
const (
	DefaultSampleSize  = 1000
	DefaultBins        = 30
	DefaultCurvePoints = 200

	// envelopeWidth is how many SDs either side of each mean the plotted range covers.
	envelopeWidth = 4.0
)

// ErrUnknownGenotype is returned when a call matches none of a study's groups.
var ErrUnknownGenotype = errors.New("genotype has no published group")

// Group is one genotype group's share of a report.
type Group struct {
	Genotype  string        `json:"genotype" yaml:"genotype"`
	Label     string        `json:"label" yaml:"label"`
	Mean      float64       `json:"mean" yaml:"mean"`
	SD        float64       `json:"sd" yaml:"sd"`
	Reference bool          `json:"reference,omitempty" yaml:"reference,omitempty"`
	Counts    []int         `json:"counts" yaml:"counts"`
	Density   []float64     `json:"density" yaml:"density"`
	Sample    stats.Summary `json:"sample" yaml:"sample"`

	// Overlap is the overlapping coefficient with the reference group.
	Overlap float64 `json:"overlap" yaml:"overlap"`

	// Samples are the synthetic draws; kept for plotting, not serialized.
	Samples []float64 `json:"-" yaml:"-"`
}

// Subject places a subject's call within a study.
type Subject struct {
	Genotype string  `json:"genotype" yaml:"genotype"`
	Label    string  `json:"label" yaml:"label"`
	Overlap  float64 `json:"overlap" yaml:"overlap"`
	Message  string  `json:"message" yaml:"message"`
}

// Report is the distribution comparison for one trait study.
type Report struct {
	StudyID   string `json:"study_id" yaml:"study_id"`
	RSID      string `json:"rsid" yaml:"rsid"`
	Gene      string `json:"gene,omitempty" yaml:"gene,omitempty"`
	Phenotype string `json:"phenotype" yaml:"phenotype"`
	Unit      string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Citation  string `json:"citation,omitempty" yaml:"citation,omitempty"`
	Reference string `json:"reference_genotype" yaml:"reference_genotype"`
	Seed      uint64 `json:"seed" yaml:"seed"`

	// Edges are the histogram bin edges shared by every group.
	Edges []float64 `json:"edges" yaml:"edges"`

	// X holds the points the densities are evaluated at.
	X []float64 `json:"x" yaml:"x"`

	Groups []Group `json:"groups" yaml:"groups"`

	// Subject is set when the report was built for a subject's call.
	Subject *Subject `json:"subject,omitempty" yaml:"subject,omitempty"`
}

// AxisLabel returns the phenotype axis title.
func (r *Report) AxisLabel() string {
	if r.Unit == "" {
		return r.Phenotype
	}
	return r.Phenotype + " (" + r.Unit + ")"
}

// Uncovered names a catalog study the subject's data could not be matched to.
type Uncovered struct {
	StudyID string `json:"study_id" yaml:"study_id"`
	RSID    string `json:"rsid" yaml:"rsid"`
	Reason  string `json:"reason" yaml:"reason"`
}

// Set holds the reports for every study a subject's calls cover.
type Set struct {
	Reports    []*Report   `json:"reports" yaml:"reports"`
	NotCovered []Uncovered `json:"not_covered,omitempty" yaml:"not_covered,omitempty"`
}

func withDefaults(cfg types.ReportConfig) types.ReportConfig {
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultSampleSize
	}
	if cfg.Bins < 2 {
		cfg.Bins = DefaultBins
	}
	return cfg
}

// seedFor picks the configured seed or one derived from the study ID, so
// the same study always yields the same synthetic samples.
func seedFor(study types.TraitStudy, cfg types.ReportConfig) uint64 {
	if cfg.Seed != 0 {
		return cfg.Seed
	}
	return stats.SeedFor(study.ID)
}

// Build creates the report for study. call is the subject's genotype; an
// empty call builds the study-only view. A nil rng draws from a generator
// seeded by cfg.Seed, or by the study ID when no seed is configured.
func Build(ctx context.Context, study types.TraitStudy, call string, cfg types.ReportConfig, rng *rand.Rand) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cfg = withDefaults(cfg)
	seed := seedFor(study, cfg)
	if rng == nil {
		rng = stats.NewRand(seed)
	}

	_, refIdx := catalog.Reference(study)
	if refIdx < 0 {
		return nil, fmt.Errorf("study %s: reference genotype %q has no group", study.ID, study.ReferenceGenotype)
	}

	datasets, err := stats.Compound(study.Groups, cfg.SampleSize, rng)
	if err != nil {
		return nil, fmt.Errorf("study %s: %w", study.ID, err)
	}

	normals := make([]stats.Normal, len(datasets))
	for i, d := range datasets {
		normals[i] = d.Normal()
	}

	lo, hi := stats.Envelope(normals, envelopeWidth)
	for _, d := range datasets {
		for _, v := range d.Samples {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}

	edges, err := stats.Linspace(lo, hi, cfg.Bins)
	if err != nil {
		return nil, fmt.Errorf("study %s: %w", study.ID, err)
	}
	counts, err := stats.Bin(datasets, edges)
	if err != nil {
		return nil, fmt.Errorf("study %s: %w", study.ID, err)
	}
	xs, err := stats.Linspace(lo, hi, DefaultCurvePoints)
	if err != nil {
		return nil, fmt.Errorf("study %s: %w", study.ID, err)
	}
	densities, err := stats.PDFs(normals, xs)
	if err != nil {
		return nil, fmt.Errorf("study %s: %w", study.ID, err)
	}

	r := &Report{
		StudyID:   study.ID,
		RSID:      study.RSID,
		Gene:      study.Gene,
		Phenotype: study.Phenotype,
		Unit:      study.Unit,
		Citation:  study.Citation,
		Reference: study.ReferenceGenotype,
		Seed:      seed,
		Edges:     edges,
		X:         xs,
		Groups:    make([]Group, len(datasets)),
	}

	for i, d := range datasets {
		ov, err := stats.Overlap(normals[refIdx], normals[i])
		if err != nil {
			return nil, fmt.Errorf("study %s: genotype %s: %w", study.ID, d.Genotype, err)
		}
		r.Groups[i] = Group{
			Genotype:  d.Genotype,
			Label:     d.Label,
			Mean:      d.Mean,
			SD:        d.SD,
			Reference: i == refIdx,
			Counts:    counts[i],
			Density:   densities[i],
			Sample:    stats.Summarize(d.Samples),
			Overlap:   ov,
			Samples:   d.Samples,
		}
	}

	if call != "" {
		g, ok := catalog.Group(study, call)
		if !ok {
			return nil, fmt.Errorf("study %s: %w: %s", study.ID, ErrUnknownGenotype, call)
		}
		for _, rg := range r.Groups {
			if rg.Genotype != g.Genotype {
				continue
			}
			r.Subject = &Subject{
				Genotype: rg.Genotype,
				Label:    rg.Label,
				Overlap:  rg.Overlap,
				Message: fmt.Sprintf("Your %s genotype %s (%s) overlaps the reference %s distribution by %.2f%%",
					study.RSID, rg.Genotype, rg.Label, study.ReferenceGenotype, rg.Overlap*100),
			}
		}
	}
	return r, nil
}

// BuildAll creates a report for every catalog study whose SNP appears in
// calls. Studies whose SNP is absent or no-called, or whose call matches
// no group, are listed as not covered.
func BuildAll(ctx context.Context, cat *catalog.Catalog, calls map[string]types.Call, cfg types.ReportConfig) (*Set, error) {
	set := &Set{Reports: []*Report{}}
	for _, study := range cat.Studies() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		c, ok := calls[study.RSID]
		if !ok {
			set.NotCovered = append(set.NotCovered, Uncovered{
				StudyID: study.ID, RSID: study.RSID, Reason: "not present in the raw data or no-called",
			})
			continue
		}
		if _, ok := catalog.Group(study, c.Genotype); !ok {
			set.NotCovered = append(set.NotCovered, Uncovered{
				StudyID: study.ID, RSID: study.RSID, Reason: fmt.Sprintf("genotype %s has no published group", c.Genotype),
			})
			continue
		}

		r, err := Build(ctx, study, c.Genotype, cfg, nil)
		if err != nil {
			return nil, err
		}
		set.Reports = append(set.Reports, r)
	}

	sort.SliceStable(set.NotCovered, func(i, j int) bool {
		return set.NotCovered[i].StudyID < set.NotCovered[j].StudyID
	})
	return set, nil
}
