// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog loads and validates the trait study catalog: the list of
// SNPs with published per-genotype phenotype statistics that reports are
// built from. Catalogs are YAML by default; files ending in .toml are
// decoded as TOML.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/go-multierror"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/genocode/internal/genotype"
	"github.com/pdiddy/genocode/internal/stats"
	"github.com/pdiddy/genocode/pkg/types"
)

//go:embed default.yaml
var defaultCatalog []byte

// ErrNotFound is returned when a study or rsid is not in the catalog.
var ErrNotFound = errors.New("study not found")

// file is the on-disk catalog layout.
type file struct {
	Studies []types.TraitStudy `yaml:"studies" toml:"studies"`
}

// Catalog is an immutable, validated set of trait studies.
type Catalog struct {
	studies []types.TraitStudy
	byID    map[string]int
	byRSID  map[string][]int
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog, "yaml")
}

// Load reads a catalog from path. An empty path loads the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		format = "toml"
	}
	c, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates catalog data in the given format ("yaml" or "toml").
func Parse(data []byte, format string) (*Catalog, error) {
	var f file
	switch format {
	case "yaml", "yml", "":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing YAML catalog: %w", err)
		}
	case "toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parsing TOML catalog: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q: use yaml or toml", format)
	}
	return New(f.Studies)
}

// New validates studies and builds a Catalog. Genotypes and rsids are
// normalized; every validation problem is reported together.
func New(studies []types.TraitStudy) (*Catalog, error) {
	if len(studies) == 0 {
		return nil, errors.New("catalog has no studies")
	}
	c := &Catalog{
		byID:   make(map[string]int),
		byRSID: make(map[string][]int),
	}

	var result *multierror.Error
	for i, s := range studies {
		s = normalize(s)
		if err := validate(s); err != nil {
			result = multierror.Append(result, fmt.Errorf("study %d (%s): %w", i+1, s.ID, err))
			continue
		}
		if _, dup := c.byID[s.ID]; dup {
			result = multierror.Append(result, fmt.Errorf("study %d: duplicate id %q", i+1, s.ID))
			continue
		}
		c.byID[s.ID] = len(c.studies)
		c.byRSID[s.RSID] = append(c.byRSID[s.RSID], len(c.studies))
		c.studies = append(c.studies, s)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return c, nil
}

func normalize(s types.TraitStudy) types.TraitStudy {
	s.ID = strings.TrimSpace(s.ID)
	s.RSID = strings.ToLower(strings.TrimSpace(s.RSID))
	s.ReferenceGenotype = genotype.Canonical(s.ReferenceGenotype)
	groups := make([]types.GenotypeGroup, len(s.Groups))
	for i, g := range s.Groups {
		g.Genotype = genotype.Canonical(g.Genotype)
		groups[i] = g
	}
	s.Groups = groups
	return s
}

func validate(s types.TraitStudy) error {
	var result *multierror.Error
	if s.ID == "" {
		result = multierror.Append(result, errors.New("id is required"))
	}
	if !strings.HasPrefix(s.RSID, "rs") {
		result = multierror.Append(result, fmt.Errorf("rsid %q must start with rs", s.RSID))
	}
	if s.Phenotype == "" {
		result = multierror.Append(result, errors.New("phenotype is required"))
	}
	if len(s.Groups) < 2 {
		result = multierror.Append(result, fmt.Errorf("need at least 2 genotype groups, got %d", len(s.Groups)))
	}

	seen := make(map[string]bool)
	hasRef := false
	for _, g := range s.Groups {
		if g.Genotype == "" {
			result = multierror.Append(result, errors.New("group genotype is required"))
			continue
		}
		if seen[g.Genotype] {
			result = multierror.Append(result, fmt.Errorf("duplicate genotype group %s", g.Genotype))
		}
		seen[g.Genotype] = true
		if g.Genotype == s.ReferenceGenotype {
			hasRef = true
		}
		if _, _, err := stats.Resolve(g.SummaryStats); err != nil {
			result = multierror.Append(result, fmt.Errorf("genotype %s: %w", g.Genotype, err))
		}
	}
	if !hasRef {
		result = multierror.Append(result, fmt.Errorf("reference genotype %q has no group", s.ReferenceGenotype))
	}
	return result.ErrorOrNil()
}

// Studies returns all studies in catalog order.
func (c *Catalog) Studies() []types.TraitStudy {
	out := make([]types.TraitStudy, len(c.studies))
	copy(out, c.studies)
	return out
}

// Len returns the number of studies.
func (c *Catalog) Len() int { return len(c.studies) }

// ByID returns the study with the given identifier.
func (c *Catalog) ByID(id string) (types.TraitStudy, error) {
	i, ok := c.byID[id]
	if !ok {
		return types.TraitStudy{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return c.studies[i], nil
}

// Lookup returns every study measuring rsid.
func (c *Catalog) Lookup(rsid string) []types.TraitStudy {
	idx := c.byRSID[strings.ToLower(rsid)]
	out := make([]types.TraitStudy, len(idx))
	for i, j := range idx {
		out[i] = c.studies[j]
	}
	return out
}

// RSIDs returns the distinct rsids covered by the catalog, sorted.
func (c *Catalog) RSIDs() []string {
	out := make([]string, 0, len(c.byRSID))
	for rsid := range c.byRSID {
		out = append(out, rsid)
	}
	sort.Strings(out)
	return out
}

// Reference returns the reference group of a study and its index.
func Reference(s types.TraitStudy) (types.GenotypeGroup, int) {
	for i, g := range s.Groups {
		if g.Genotype == s.ReferenceGenotype {
			return g, i
		}
	}
	return types.GenotypeGroup{}, -1
}

// Group returns the study group matching a genotype call, compared in
// canonical order.
func Group(s types.TraitStudy, call string) (types.GenotypeGroup, bool) {
	want := genotype.Canonical(call)
	for _, g := range s.Groups {
		if g.Genotype == want {
			return g, true
		}
	}
	return types.GenotypeGroup{}, false
}
