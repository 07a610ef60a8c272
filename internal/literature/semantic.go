// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pdiddy/genocode/internal/httputil"
	"github.com/pdiddy/genocode/pkg/types"
)

// semanticBase is the Semantic Scholar paper search endpoint; tests point it
// at an httptest server.
var semanticBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,publicationDate,url"

// SemanticScholarBackend queries Semantic Scholar.
type SemanticScholarBackend struct {
	Client *http.Client
	APIKey string
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

// Search queries Semantic Scholar, which is rate limited without an API key.
func (b *SemanticScholarBackend) Search(ctx context.Context, query Query, cfg types.LiteratureConfig) ([]types.Article, error) {
	text := query.terms()
	if text == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{
		"query":  {text},
		"limit":  {strconv.Itoa(limitFor(cfg, 100))},
		"fields": {semanticFields},
	}
	if years := yearRange(query.DateFrom, query.DateTo); years != "" {
		params.Set("year", years)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar returned HTTP %d", resp.StatusCode)
	}

	var body struct {
		Data []semanticPaper `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding Semantic Scholar response: %w", err)
	}

	articles := make([]types.Article, 0, len(body.Data))
	for i, p := range body.Data {
		a := types.Article{
			Title:          p.Title,
			Abstract:       p.Abstract,
			Date:           parseDate(p.PublicationDate, p.Year),
			Source:         b.Name(),
			URL:            p.URL,
			RelevanceScore: positionScore(i, len(body.Data)),
		}
		for _, au := range p.Authors {
			a.Authors = append(a.Authors, au.Name)
		}
		switch {
		case p.ExternalIDs.DOI != "":
			a.Identifier = p.ExternalIDs.DOI
		case p.ExternalIDs.PubMed != "":
			a.Identifier = "pmid:" + p.ExternalIDs.PubMed
		case p.ExternalIDs.ArXiv != "":
			a.Identifier = p.ExternalIDs.ArXiv
		default:
			a.Identifier = p.PaperID
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// yearRange formats a Semantic Scholar year filter ("2019-2024", "2019-", "-2024").
func yearRange(from, to time.Time) string {
	if from.IsZero() && to.IsZero() {
		return ""
	}
	var s string
	if !from.IsZero() {
		s = strconv.Itoa(from.Year())
	}
	s += "-"
	if !to.IsZero() {
		s += strconv.Itoa(to.Year())
	}
	return s
}

type semanticPaper struct {
	PaperID         string `json:"paperId"`
	Title           string `json:"title"`
	Abstract        string `json:"abstract"`
	Year            int    `json:"year"`
	PublicationDate string `json:"publicationDate"`
	URL             string `json:"url"`
	Authors         []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ExternalIDs struct {
		DOI    string `json:"DOI"`
		ArXiv  string `json:"ArXiv"`
		PubMed string `json:"PubMed"`
	} `json:"externalIds"`
}
