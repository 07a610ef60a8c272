// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/genocode/internal/httputil"
	"github.com/pdiddy/genocode/pkg/types"
)

// openAlexBase is the OpenAlex works endpoint; tests point it at an httptest server.
var openAlexBase = "https://api.openalex.org/works"

// OpenAlexBackend queries OpenAlex.
type OpenAlexBackend struct {
	Client *http.Client

	// Email joins the OpenAlex polite pool when set.
	Email string
}

// Name returns the backend identifier.
func (b *OpenAlexBackend) Name() string { return "openalex" }

// Search queries OpenAlex works, relevance-sorted, with optional date filters.
func (b *OpenAlexBackend) Search(ctx context.Context, query Query, cfg types.LiteratureConfig) ([]types.Article, error) {
	text := query.terms()
	if text == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{
		"search":   {text},
		"per_page": {strconv.Itoa(limitFor(cfg, 200))},
	}
	var filters []string
	if !query.DateFrom.IsZero() {
		filters = append(filters, "from_publication_date:"+query.DateFrom.Format(time.DateOnly))
	}
	if !query.DateTo.IsZero() {
		filters = append(filters, "to_publication_date:"+query.DateTo.Format(time.DateOnly))
	}
	if len(filters) > 0 {
		params.Set("filter", strings.Join(filters, ","))
	}
	if b.Email != "" {
		params.Set("mailto", b.Email)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, openAlexBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("OpenAlex request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("OpenAlex returned HTTP %d", resp.StatusCode)
	}

	var body struct {
		Results []openAlexWork `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding OpenAlex response: %w", err)
	}

	articles := make([]types.Article, 0, len(body.Results))
	for i, w := range body.Results {
		a := types.Article{
			Title:          w.Title,
			Abstract:       invertAbstract(w.AbstractInvertedIndex),
			Date:           parseDate(w.PublicationDate, w.PublicationYear),
			Source:         b.Name(),
			URL:            w.DOI,
			RelevanceScore: positionScore(i, len(body.Results)),
		}
		for _, au := range w.Authorships {
			if au.Author.DisplayName != "" {
				a.Authors = append(a.Authors, au.Author.DisplayName)
			}
		}
		switch {
		case w.DOI != "":
			a.Identifier = strings.TrimPrefix(w.DOI, "https://doi.org/")
		default:
			a.Identifier = w.ID
			a.URL = w.ID
		}
		articles = append(articles, a)
	}
	return articles, nil
}

// invertAbstract rebuilds abstract text from OpenAlex's word-to-positions index.
func invertAbstract(index map[string][]int) string {
	if len(index) == 0 {
		return ""
	}
	type token struct {
		pos  int
		word string
	}
	var tokens []token
	for word, positions := range index {
		for _, p := range positions {
			tokens = append(tokens, token{p, word})
		}
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].pos < tokens[j].pos })

	words := make([]string, len(tokens))
	for i, t := range tokens {
		words[i] = t.word
	}
	return strings.Join(words, " ")
}

type openAlexWork struct {
	ID                    string           `json:"id"`
	Title                 string           `json:"title"`
	DOI                   string           `json:"doi"`
	PublicationDate       string           `json:"publication_date"`
	PublicationYear       int              `json:"publication_year"`
	AbstractInvertedIndex map[string][]int `json:"abstract_inverted_index"`
	Authorships           []struct {
		Author struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	} `json:"authorships"`
}
