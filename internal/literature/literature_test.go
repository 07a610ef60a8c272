// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/genocode/internal/httputil"
	"github.com/pdiddy/genocode/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

type stubBackend struct {
	name     string
	articles []types.Article
	err      error
}

func (s *stubBackend) Name() string { return s.name }

func (s *stubBackend) Search(context.Context, Query, types.LiteratureConfig) ([]types.Article, error) {
	return s.articles, s.err
}

func testCfg() types.LiteratureConfig {
	return types.LiteratureConfig{
		HTTPConfig:        types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "genocode-test"},
		MaxResults:        10,
		RecencyBiasWindow: 5 * 365 * 24 * time.Hour,
	}
}

func TestQueryIsEmpty(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  bool
	}{
		{"zero", Query{}, true},
		{"blank text", Query{FreeText: "   "}, true},
		{"free text", Query{FreeText: "FTO obesity"}, false},
		{"keywords", Query{Keywords: []string{"BMI"}}, false},
		{"dates only", Query{DateFrom: time.Now()}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.query.IsEmpty(); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQueryForStudy(t *testing.T) {
	study := types.TraitStudy{
		RSID:      "rs9939609",
		Gene:      "FTO",
		Phenotype: "BMI",
		Keywords:  []string{"obesity", "body mass index"},
	}
	q := QueryForStudy(study)
	if q.FreeText != "rs9939609 FTO BMI" {
		t.Errorf("FreeText = %q", q.FreeText)
	}
	if got := q.terms(); got != "rs9939609 FTO BMI obesity body mass index" {
		t.Errorf("terms() = %q", got)
	}

	q.Keywords[0] = "changed"
	if study.Keywords[0] != "obesity" {
		t.Error("QueryForStudy must not alias the study keywords")
	}

	if got := QueryForStudy(types.TraitStudy{RSID: "rs1", Phenotype: "height"}).FreeText; got != "rs1 height" {
		t.Errorf("FreeText without gene = %q", got)
	}
}

func TestMergeByIdentifierAndTitle(t *testing.T) {
	articles := []types.Article{
		{Identifier: "10.1126/science.1141634", Title: "A Common Variant in the FTO Gene", Source: "openalex", RelevanceScore: 0.7},
		{Identifier: "10.1126/SCIENCE.1141634", Title: "", Source: "semantic_scholar", RelevanceScore: 0.9, URL: "https://s2/x"},
		{Identifier: "2301.00001", Title: "a common variant in the fto gene!", Source: "arxiv", RelevanceScore: 0.2},
		{Identifier: "2301.00002", Title: "Unrelated", Source: "arxiv"},
	}

	merged, removed := merge(articles)
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}
	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	m := merged[0]
	if m.RelevanceScore != 0.9 {
		t.Errorf("score = %v, want the higher 0.9", m.RelevanceScore)
	}
	if m.Source != "openalex,semantic_scholar,arxiv" {
		t.Errorf("source = %q", m.Source)
	}
	if m.URL != "https://s2/x" {
		t.Errorf("URL not filled from duplicate: %q", m.URL)
	}
	if m.Identifier != "10.1126/science.1141634" {
		t.Errorf("identifier = %q, want the DOI", m.Identifier)
	}
}

func TestFillPrefersDOI(t *testing.T) {
	dst := types.Article{Identifier: "2301.00001", Source: "arxiv"}
	fill(&dst, types.Article{Identifier: "10.1000/xyz", Source: "arxiv"})
	if dst.Identifier != "10.1000/xyz" {
		t.Errorf("Identifier = %q", dst.Identifier)
	}
	if dst.Source != "arxiv" {
		t.Errorf("Source = %q, duplicate source should not repeat", dst.Source)
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := map[string]string{
		"FTO & Obesity: A Review.":   "fto obesity a review",
		"  Spaced   Out  ":           "spaced out",
		"":                           "",
		"Genome-wide association...": "genomewide association",
	}
	for in, want := range tests {
		if got := normalizeTitle(in); got != want {
			t.Errorf("normalizeTitle(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBoostRecent(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	window := 4 * 365 * 24 * time.Hour
	articles := []types.Article{
		{Date: now.Add(-24 * time.Hour), RelevanceScore: 0.5},
		{Date: now.AddDate(-10, 0, 0), RelevanceScore: 0.5},
		{RelevanceScore: 0.5},
		{Date: now.Add(-time.Hour), RelevanceScore: 0.95},
	}
	boostRecent(articles, window, now)

	if articles[0].RelevanceScore <= 0.69 {
		t.Errorf("recent article boost too small: %v", articles[0].RelevanceScore)
	}
	if articles[1].RelevanceScore != 0.5 || articles[2].RelevanceScore != 0.5 {
		t.Error("old or undated articles must not be boosted")
	}
	if articles[3].RelevanceScore != 1 {
		t.Errorf("score should cap at 1, got %v", articles[3].RelevanceScore)
	}
}

func TestPositionScore(t *testing.T) {
	if got := positionScore(0, 1); got != 1 {
		t.Errorf("single = %v", got)
	}
	if got := positionScore(0, 5); got != 1 {
		t.Errorf("first = %v", got)
	}
	if got := positionScore(4, 5); got < 0.0999 || got > 0.1001 {
		t.Errorf("last = %v, want 0.1", got)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	_, err := Search(context.Background(), Query{}, []Backend{&stubBackend{name: "x"}}, testCfg(), false, &bytes.Buffer{})
	if !errors.Is(err, ErrEmptyQuery) {
		t.Errorf("err = %v, want ErrEmptyQuery", err)
	}
}

func TestSearchNoBackends(t *testing.T) {
	_, err := Search(context.Background(), Query{FreeText: "FTO"}, nil, testCfg(), false, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "no literature backends") {
		t.Errorf("err = %v", err)
	}
}

func TestSearchMergesRanksAndLimits(t *testing.T) {
	backends := []Backend{
		&stubBackend{name: "openalex", articles: []types.Article{
			{Identifier: "10.1/a", Title: "Alpha", Source: "openalex", RelevanceScore: 0.4},
			{Identifier: "10.1/b", Title: "Beta", Source: "openalex", RelevanceScore: 0.8},
		}},
		&stubBackend{name: "semantic_scholar", articles: []types.Article{
			{Identifier: "10.1/a", Title: "Alpha", Source: "semantic_scholar", RelevanceScore: 0.9},
			{Identifier: "10.1/c", Title: "Gamma", Source: "semantic_scholar", RelevanceScore: 0.1},
		}},
		&stubBackend{name: "arxiv", err: errors.New("boom")},
	}
	cfg := testCfg()
	cfg.MaxResults = 2

	var log bytes.Buffer
	out, err := Search(context.Background(), Query{FreeText: "FTO"}, backends, cfg, false, &log)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(out.Results) != 2 {
		t.Fatalf("len(Results) = %d, want 2", len(out.Results))
	}
	if out.Results[0].Title != "Alpha" || out.Results[1].Title != "Beta" {
		t.Errorf("order = %q, %q", out.Results[0].Title, out.Results[1].Title)
	}
	if out.DupsRemoved != 1 {
		t.Errorf("DupsRemoved = %d", out.DupsRemoved)
	}
	if len(out.BackendErrors) != 1 || !strings.HasPrefix(out.BackendErrors[0], "arxiv:") {
		t.Errorf("BackendErrors = %v", out.BackendErrors)
	}
	if !strings.Contains(log.String(), "warning: arxiv failed") {
		t.Errorf("log = %q", log.String())
	}
}

func TestSearchFailsWhenEveryBackendFails(t *testing.T) {
	backends := []Backend{
		&stubBackend{name: "a", err: errors.New("down")},
		&stubBackend{name: "b", err: errors.New("down")},
	}
	out, err := Search(context.Background(), Query{FreeText: "FTO"}, backends, testCfg(), false, &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(out.BackendErrors) != 2 {
		t.Errorf("BackendErrors = %v", out.BackendErrors)
	}
}

func TestBackendsFollowConfig(t *testing.T) {
	cfg := testCfg()
	cfg.EnableOpenAlex = true
	cfg.EnableArxiv = true
	cfg.OpenAlexEmail = "lab@example.org"

	bs := Backends(cfg)
	if len(bs) != 2 {
		t.Fatalf("len = %d, want 2", len(bs))
	}
	if bs[0].Name() != "openalex" || bs[1].Name() != "arxiv" {
		t.Errorf("names = %s, %s", bs[0].Name(), bs[1].Name())
	}
	if oa := bs[0].(*OpenAlexBackend); oa.Email != "lab@example.org" {
		t.Errorf("email = %q", oa.Email)
	}
}
