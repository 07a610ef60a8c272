// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package literature finds scientific articles for trait studies. Queries
// fan out to several bibliographic APIs concurrently; results are merged
// by identifier and normalized title, then ranked by source position with
// an optional boost for recent work.
package literature

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/pdiddy/genocode/pkg/types"
)

// DefaultMaxResults caps results when the config leaves MaxResults unset.
const DefaultMaxResults = 20

// ErrEmptyQuery is returned when a query has nothing to search for.
var ErrEmptyQuery = errors.New("query is empty: provide free text or keywords")

// Backend searches one bibliographic API.
type Backend interface {
	Name() string
	Search(ctx context.Context, query Query, cfg types.LiteratureConfig) ([]types.Article, error)
}

// Query holds literature search parameters.
type Query struct {
	FreeText string
	Keywords []string
	DateFrom time.Time
	DateTo   time.Time
}

// IsEmpty reports whether the query has no searchable terms.
func (q Query) IsEmpty() bool {
	return strings.TrimSpace(q.FreeText) == "" && len(q.Keywords) == 0
}

// terms joins the free text and keywords into one search string.
func (q Query) terms() string {
	parts := make([]string, 0, 1+len(q.Keywords))
	if s := strings.TrimSpace(q.FreeText); s != "" {
		parts = append(parts, s)
	}
	for _, kw := range q.Keywords {
		if kw = strings.TrimSpace(kw); kw != "" {
			parts = append(parts, kw)
		}
	}
	return strings.Join(parts, " ")
}

// QueryForStudy builds the query that links articles to a trait study:
// the rsid, gene and phenotype as free text, refined by the study keywords.
func QueryForStudy(s types.TraitStudy) Query {
	var parts []string
	for _, p := range []string{s.RSID, s.Gene, s.Phenotype} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return Query{
		FreeText: strings.Join(parts, " "),
		Keywords: append([]string(nil), s.Keywords...),
	}
}

// Output holds ranked results and merge statistics.
type Output struct {
	Results       []types.Article `json:"results" yaml:"results"`
	DupsRemoved   int             `json:"duplicates_removed" yaml:"duplicates_removed"`
	BackendErrors []string        `json:"backend_errors,omitempty" yaml:"backend_errors,omitempty"`
}

// Backends returns the backends enabled in cfg. Every backend shares one
// HTTP client with the configured timeout.
func Backends(cfg types.LiteratureConfig) []Backend {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	var out []Backend
	if cfg.EnableOpenAlex {
		out = append(out, &OpenAlexBackend{Client: client, Email: cfg.OpenAlexEmail})
	}
	if cfg.EnableSemanticScholar {
		out = append(out, &SemanticScholarBackend{Client: client, APIKey: cfg.SemanticScholarAPIKey})
	}
	if cfg.EnableArxiv {
		out = append(out, &ArxivBackend{Client: client})
	}
	return out
}

// Search runs query against every backend concurrently, merges duplicates,
// ranks the results, and keeps the top cfg.MaxResults. A failing backend is
// reported on w and in Output.BackendErrors; Search fails only when every
// backend fails.
func Search(ctx context.Context, query Query, backends []Backend, cfg types.LiteratureConfig, recencyBias bool, w io.Writer) (Output, error) {
	if query.IsEmpty() {
		return Output{}, ErrEmptyQuery
	}
	if len(backends) == 0 {
		return Output{}, errors.New("no literature backends enabled")
	}

	type result struct {
		name     string
		articles []types.Article
		err      error
	}
	ch := make(chan result, len(backends))
	var wg sync.WaitGroup

	for i, b := range backends {
		if i > 0 && cfg.InterBackendDelay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(cfg.InterBackendDelay):
			}
		}
		wg.Add(1)
		go func(b Backend) {
			defer wg.Done()
			arts, err := b.Search(ctx, query, cfg)
			ch <- result{name: b.Name(), articles: arts, err: err}
		}(b)
	}
	wg.Wait()
	close(ch)

	var all []types.Article
	var failures []string
	for r := range ch {
		if r.err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", r.name, r.err))
			fmt.Fprintf(w, "warning: %s failed: %v\n", r.name, r.err)
			continue
		}
		all = append(all, r.articles...)
	}
	sort.Strings(failures)
	if len(failures) == len(backends) {
		return Output{BackendErrors: failures}, fmt.Errorf("every literature backend failed: %s", strings.Join(failures, "; "))
	}

	merged, removed := merge(all)
	if recencyBias && cfg.RecencyBiasWindow > 0 {
		boostRecent(merged, cfg.RecencyBiasWindow, time.Now())
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].RelevanceScore > merged[j].RelevanceScore
	})

	limit := cfg.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return Output{Results: merged, DupsRemoved: removed, BackendErrors: failures}, nil
}

// merge collapses articles sharing an identifier or normalized title.
func merge(articles []types.Article) ([]types.Article, int) {
	index := make(map[string]int)
	var out []types.Article
	removed := 0

	for _, a := range articles {
		keys := mergeKeys(a)
		at := -1
		for _, k := range keys {
			if i, ok := index[k]; ok {
				at = i
				break
			}
		}
		if at >= 0 {
			fill(&out[at], a)
			removed++
		} else {
			at = len(out)
			out = append(out, a)
		}
		for _, k := range keys {
			if _, ok := index[k]; !ok {
				index[k] = at
			}
		}
	}
	return out, removed
}

func mergeKeys(a types.Article) []string {
	var keys []string
	if a.Identifier != "" {
		keys = append(keys, "id:"+strings.ToLower(a.Identifier))
	}
	if t := normalizeTitle(a.Title); t != "" {
		keys = append(keys, "title:"+t)
	}
	return keys
}

// fill copies fields dst lacks from src and keeps the better score.
func fill(dst *types.Article, src types.Article) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if dst.Date.IsZero() {
		dst.Date = src.Date
	}
	if dst.URL == "" {
		dst.URL = src.URL
	}
	// A DOI is the most portable identifier.
	if isDOI(src.Identifier) && !isDOI(dst.Identifier) {
		dst.Identifier = src.Identifier
	}
	dst.RelevanceScore = math.Max(dst.RelevanceScore, src.RelevanceScore)
	if src.Source != "" && !containsField(dst.Source, src.Source) {
		dst.Source += "," + src.Source
	}
}

func containsField(list, s string) bool {
	for _, f := range strings.Split(list, ",") {
		if f == s {
			return true
		}
	}
	return false
}

func isDOI(s string) bool {
	return strings.HasPrefix(s, "10.")
}

// normalizeTitle lowercases a title and strips punctuation and extra spaces.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// boostRecent raises scores of articles published within window of now,
// by up to 0.2 for the newest, capped at 1.
func boostRecent(articles []types.Article, window time.Duration, now time.Time) {
	for i := range articles {
		if articles[i].Date.IsZero() {
			continue
		}
		age := now.Sub(articles[i].Date)
		if age < 0 || age > window {
			continue
		}
		boost := 0.2 * (1 - float64(age)/float64(window))
		articles[i].RelevanceScore = math.Min(1, articles[i].RelevanceScore+boost)
	}
}

// positionScore scores a result by its rank in a source's relevance-sorted
// list: 1.0 for the first, falling linearly to 0.1 for the last.
func positionScore(i, total int) float64 {
	if total <= 1 {
		return 1
	}
	return 1 - float64(i)/float64(total-1)*0.9
}

func limitFor(cfg types.LiteratureConfig, ceiling int) int {
	n := cfg.MaxResults
	if n <= 0 {
		n = DefaultMaxResults
	}
	if ceiling > 0 && n > ceiling {
		n = ceiling
	}
	return n
}

func parseDate(date string, year int) time.Time {
	if date != "" {
		if t, err := time.Parse(time.DateOnly, date); err == nil {
			return t
		}
	}
	if year > 0 {
		return time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Time{}
}
