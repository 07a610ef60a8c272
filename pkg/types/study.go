// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SummaryStats holds the published statistics for one genotype group.
// A group is described by a mean with either a standard deviation, a
// standard error, or a confidence interval. When only a confidence
// interval is given the mean defaults to its midpoint.
type SummaryStats struct {
	// Mean is the group's phenotype mean.
	Mean *float64 `json:"mean,omitempty" yaml:"mean,omitempty" toml:"mean,omitempty"`

	// SD is the standard deviation.
	SD *float64 `json:"sd,omitempty" yaml:"sd,omitempty" toml:"sd,omitempty"`

	// SE is the standard error of the mean.
	SE *float64 `json:"se,omitempty" yaml:"se,omitempty" toml:"se,omitempty"`

	// LowerCI and UpperCI bound the confidence interval of the mean.
	LowerCI *float64 `json:"lower_ci,omitempty" yaml:"lower_ci,omitempty" toml:"lower_ci,omitempty"`
	UpperCI *float64 `json:"upper_ci,omitempty" yaml:"upper_ci,omitempty" toml:"upper_ci,omitempty"`

	// CILevel is the confidence level in percent (default 95).
	CILevel float64 `json:"ci_level,omitempty" yaml:"ci_level,omitempty" toml:"ci_level,omitempty"`

	// N is the group's sample size, used for SE and CI conversions (default 100).
	N int `json:"n,omitempty" yaml:"n,omitempty" toml:"n,omitempty"`
}

// GenotypeGroup is one genotype's phenotype distribution within a study.
type GenotypeGroup struct {
	// Genotype is the allele pair (e.g. "AT"). Matched in canonical order.
	Genotype string `json:"genotype" yaml:"genotype" toml:"genotype"`

	// Label is an optional display name (e.g. "Wild", "Single SNP").
	Label string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`

	SummaryStats `yaml:",inline"`
}

// DisplayName returns Label, falling back to Genotype.
func (g GenotypeGroup) DisplayName() string {
	if g.Label != "" {
		return g.Label
	}
	return g.Genotype
}

// TraitStudy links a SNP to a phenotype through per-genotype statistics.
type TraitStudy struct {
	// ID is the catalog-unique study identifier (e.g. "fto-bmi").
	ID string `json:"id" yaml:"id" toml:"id"`

	// RSID is the SNP the study measures.
	RSID string `json:"rsid" yaml:"rsid" toml:"rsid"`

	// Gene is the gene the SNP lies in or near.
	Gene string `json:"gene,omitempty" yaml:"gene,omitempty" toml:"gene,omitempty"`

	// Phenotype names the measured trait (e.g. "BMI").
	Phenotype string `json:"phenotype" yaml:"phenotype" toml:"phenotype"`

	// Unit is the phenotype unit (e.g. "kg/m^2").
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty" toml:"unit,omitempty"`

	// ReferenceGenotype is the baseline group every other group is compared with.
	ReferenceGenotype string `json:"reference_genotype" yaml:"reference_genotype" toml:"reference_genotype"`

	// Keywords refine literature queries for the study.
	Keywords []string `json:"keywords,omitempty" yaml:"keywords,omitempty" toml:"keywords,omitempty"`

	// Citation optionally identifies the publication the statistics come from (DOI).
	Citation string `json:"citation,omitempty" yaml:"citation,omitempty" toml:"citation,omitempty"`

	// Groups lists the genotype groups, reference included.
	Groups []GenotypeGroup `json:"groups" yaml:"groups" toml:"groups"`
}

// AxisLabel returns the phenotype with its unit for plot axes.
func (s TraitStudy) AxisLabel() string {
	if s.Unit == "" {
		return s.Phenotype
	}
	return s.Phenotype + " (" + s.Unit + ")"
}
