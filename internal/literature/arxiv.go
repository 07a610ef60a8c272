// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/genocode/internal/httputil"
	"github.com/pdiddy/genocode/pkg/types"
)

// arxivBase is the arXiv API endpoint; tests point it at an httptest server.
var arxivBase = "https://export.arxiv.org/api/query"

// DefaultArxivCategory restricts arXiv queries to genomics preprints.
const DefaultArxivCategory = "q-bio.GN"

// ArxivBackend queries arXiv.
type ArxivBackend struct {
	Client *http.Client

	// Category limits results to an arXiv subject class; empty uses
	// DefaultArxivCategory.
	Category string
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return "arxiv" }

// Search queries arXiv's Atom API sorted by relevance.
func (b *ArxivBackend) Search(ctx context.Context, query Query, cfg types.LiteratureConfig) ([]types.Article, error) {
	q := b.searchQuery(query)
	if q == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{
		"search_query": {q},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(limitFor(cfg, 0))},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv returned HTTP %d", resp.StatusCode)
	}

	var feed struct {
		Entries []arxivEntry `xml:"entry"`
	}
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding arXiv feed: %w", err)
	}

	var articles []types.Article
	for i, e := range feed.Entries {
		id := arxivID(e.ID)
		if id == "" {
			continue
		}
		published, err := time.Parse(time.RFC3339, e.Published)
		if err != nil || !inRange(published, query) {
			continue
		}
		a := types.Article{
			Identifier:     id,
			Title:          collapseSpace(e.Title),
			Abstract:       collapseSpace(e.Summary),
			Date:           published,
			Source:         b.Name(),
			URL:            "https://arxiv.org/abs/" + id,
			RelevanceScore: positionScore(i, len(feed.Entries)),
		}
		for _, au := range e.Authors {
			a.Authors = append(a.Authors, strings.TrimSpace(au.Name))
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// searchQuery ANDs every term group with the subject category.
func (b *ArxivBackend) searchQuery(q Query) string {
	var groups []string
	if fields := strings.Fields(q.FreeText); len(fields) > 0 {
		groups = append(groups, "all:"+strings.Join(fields, " "))
	}
	for _, kw := range q.Keywords {
		if fields := strings.Fields(kw); len(fields) > 0 {
			groups = append(groups, "all:"+strings.Join(fields, " "))
		}
	}
	if len(groups) == 0 {
		return ""
	}
	cat := b.Category
	if cat == "" {
		cat = DefaultArxivCategory
	}
	return strings.Join(append(groups, "cat:"+cat), " AND ")
}

// arXiv has no date filter, so the range is applied to the feed.
func inRange(t time.Time, q Query) bool {
	if !q.DateFrom.IsZero() && t.Before(q.DateFrom) {
		return false
	}
	if !q.DateTo.IsZero() && t.After(q.DateTo.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

var arxivVersion = regexp.MustCompile(`v\d+$`)

// arxivID extracts the versionless identifier from an entry URL such as
// "http://arxiv.org/abs/2301.07041v2".
func arxivID(entryURL string) string {
	_, id, ok := strings.Cut(entryURL, "/abs/")
	if !ok {
		return ""
	}
	return arxivVersion.ReplaceAllString(id, "")
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type arxivEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
}
