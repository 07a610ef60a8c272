// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve points *base at a test server that records the request and
// answers with status and body.
func serve(t *testing.T, base *string, status int, body string) *url.Values {
	t.Helper()
	got := &url.Values{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = r.URL.Query()
		if key := r.Header.Get("x-api-key"); key != "" {
			got.Set("x-api-key", key)
		}
		got.Set("user-agent", r.Header.Get("User-Agent"))
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	old := *base
	*base = ts.URL
	t.Cleanup(func() {
		*base = old
		ts.Close()
	})
	return got
}

const openAlexBody = `{
  "meta": {"count": 2},
  "results": [
    {
      "id": "https://openalex.org/W2100000001",
      "title": "A common variant in the FTO gene is associated with body mass index",
      "doi": "https://doi.org/10.1126/science.1141634",
      "publication_date": "2007-05-11",
      "publication_year": 2007,
      "authorships": [{"author": {"display_name": "Timothy M. Frayling"}}, {"author": {"display_name": ""}}],
      "abstract_inverted_index": {"Obesity": [0], "is": [1], "heritable": [2]}
    },
    {
      "id": "https://openalex.org/W2100000002",
      "title": "FTO and obesity",
      "doi": null,
      "publication_date": "",
      "publication_year": 2019,
      "authorships": []
    }
  ]
}`

func TestOpenAlexSearch(t *testing.T) {
	got := serve(t, &openAlexBase, http.StatusOK, openAlexBody)
	b := &OpenAlexBackend{Client: http.DefaultClient, Email: "lab@example.org"}

	q := Query{FreeText: "rs9939609 FTO", Keywords: []string{"obesity"}, DateFrom: time.Date(2005, 1, 1, 0, 0, 0, 0, time.UTC)}
	arts, err := b.Search(context.Background(), q, testCfg())
	require.NoError(t, err)
	require.Len(t, arts, 2)

	assert.Equal(t, "rs9939609 FTO obesity", got.Get("search"))
	assert.Equal(t, "10", got.Get("per_page"))
	assert.Equal(t, "from_publication_date:2005-01-01", got.Get("filter"))
	assert.Equal(t, "lab@example.org", got.Get("mailto"))
	assert.Equal(t, "genocode-test", got.Get("user-agent"))

	first := arts[0]
	assert.Equal(t, "10.1126/science.1141634", first.Identifier)
	assert.Equal(t, "https://doi.org/10.1126/science.1141634", first.URL)
	assert.Equal(t, "Obesity is heritable", first.Abstract)
	assert.Equal(t, []string{"Timothy M. Frayling"}, first.Authors)
	assert.Equal(t, 2007, first.Date.Year())
	assert.Equal(t, 1.0, first.RelevanceScore)

	second := arts[1]
	assert.Equal(t, "https://openalex.org/W2100000002", second.Identifier)
	assert.Equal(t, time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), second.Date)
	assert.InDelta(t, 0.1, second.RelevanceScore, 1e-9)
}

func TestOpenAlexErrors(t *testing.T) {
	b := &OpenAlexBackend{Client: http.DefaultClient}

	_, err := b.Search(context.Background(), Query{}, testCfg())
	assert.ErrorIs(t, err, ErrEmptyQuery)

	serve(t, &openAlexBase, http.StatusBadGateway, "")
	_, err = b.Search(context.Background(), Query{FreeText: "FTO"}, testCfg())
	assert.ErrorContains(t, err, "HTTP 502")

	serve(t, &openAlexBase, http.StatusOK, "{not json")
	_, err = b.Search(context.Background(), Query{FreeText: "FTO"}, testCfg())
	assert.ErrorContains(t, err, "decoding OpenAlex")
}

const semanticBody = `{
  "total": 3,
  "data": [
    {"paperId": "p1", "title": "FTO variants", "abstract": "abc", "year": 2020, "publicationDate": "2020-03-04",
     "url": "https://www.semanticscholar.org/paper/p1", "authors": [{"name": "A. Author"}],
     "externalIds": {"DOI": "10.1000/fto"}},
    {"paperId": "p2", "title": "Preprint", "year": 2021, "authors": [],
     "externalIds": {"ArXiv": "2101.00001"}},
    {"paperId": "p3", "title": "PubMed only", "year": 0, "authors": [],
     "externalIds": {"PubMed": "123456"}}
  ]
}`

func TestSemanticScholarSearch(t *testing.T) {
	got := serve(t, &semanticBase, http.StatusOK, semanticBody)
	b := &SemanticScholarBackend{Client: http.DefaultClient, APIKey: "sk"}

	q := Query{FreeText: "FTO", DateFrom: time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), DateTo: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	arts, err := b.Search(context.Background(), q, testCfg())
	require.NoError(t, err)
	require.Len(t, arts, 3)

	assert.Equal(t, "FTO", got.Get("query"))
	assert.Equal(t, "2018-2024", got.Get("year"))
	assert.Equal(t, "sk", got.Get("x-api-key"))
	assert.Equal(t, semanticFields, got.Get("fields"))

	assert.Equal(t, "10.1000/fto", arts[0].Identifier)
	assert.Equal(t, time.Date(2020, 3, 4, 0, 0, 0, 0, time.UTC), arts[0].Date)
	assert.Equal(t, "2101.00001", arts[1].Identifier)
	assert.Equal(t, "pmid:123456", arts[2].Identifier)
	assert.True(t, arts[2].Date.IsZero())
	assert.InDelta(t, 0.55, arts[1].RelevanceScore, 1e-9)
}

func TestSemanticScholarRetriesThrottle(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data": []}`))
	}))
	defer ts.Close()
	old := semanticBase
	semanticBase = ts.URL
	defer func() { semanticBase = old }()

	b := &SemanticScholarBackend{Client: ts.Client()}
	arts, err := b.Search(context.Background(), Query{FreeText: "FTO"}, testCfg())
	require.NoError(t, err)
	assert.Empty(t, arts)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestYearRange(t *testing.T) {
	y := func(n int) time.Time { return time.Date(n, 1, 1, 0, 0, 0, 0, time.UTC) }
	assert.Equal(t, "", yearRange(time.Time{}, time.Time{}))
	assert.Equal(t, "2019-", yearRange(y(2019), time.Time{}))
	assert.Equal(t, "-2024", yearRange(time.Time{}, y(2024)))
	assert.Equal(t, "2019-2024", yearRange(y(2019), y(2024)))
}

const arxivBody = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.07041v2</id>
    <title>Polygenic
      scores for BMI</title>
    <summary>  We study FTO.  </summary>
    <published>2023-01-17T18:00:00Z</published>
    <author><name>Jane Doe</name></author>
    <author><name> John Roe </name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1901.00001v1</id>
    <title>Old preprint</title>
    <published>2019-01-01T00:00:00Z</published>
  </entry>
  <entry>
    <id>not-an-arxiv-url</id>
    <title>Broken</title>
    <published>2023-01-01T00:00:00Z</published>
  </entry>
</feed>`

func TestArxivSearch(t *testing.T) {
	got := serve(t, &arxivBase, http.StatusOK, arxivBody)
	b := &ArxivBackend{Client: http.DefaultClient}

	q := Query{FreeText: "FTO  obesity", Keywords: []string{"BMI"}, DateFrom: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
	arts, err := b.Search(context.Background(), q, testCfg())
	require.NoError(t, err)
	require.Len(t, arts, 1, "entries before DateFrom and without an arXiv id are dropped")

	assert.Equal(t, "all:FTO obesity AND all:BMI AND cat:q-bio.GN", got.Get("search_query"))
	assert.Equal(t, "relevance", got.Get("sortBy"))

	a := arts[0]
	assert.Equal(t, "2301.07041", a.Identifier)
	assert.Equal(t, "Polygenic scores for BMI", a.Title)
	assert.Equal(t, "We study FTO.", a.Abstract)
	assert.Equal(t, []string{"Jane Doe", "John Roe"}, a.Authors)
	assert.Equal(t, "https://arxiv.org/abs/2301.07041", a.URL)
}

func TestArxivCustomCategoryAndErrors(t *testing.T) {
	b := &ArxivBackend{Client: http.DefaultClient, Category: "q-bio.QM"}
	assert.True(t, strings.HasSuffix(b.searchQuery(Query{FreeText: "x"}), "cat:q-bio.QM"))
	assert.Equal(t, "", b.searchQuery(Query{Keywords: []string{"  "}}))

	serve(t, &arxivBase, http.StatusInternalServerError, "")
	_, err := b.Search(context.Background(), Query{FreeText: "x"}, testCfg())
	assert.ErrorContains(t, err, "HTTP 500")
}

func TestArxivID(t *testing.T) {
	tests := map[string]string{
		"http://arxiv.org/abs/2301.07041v1":    "2301.07041",
		"http://arxiv.org/abs/2301.07041":      "2301.07041",
		"http://arxiv.org/abs/q-bio/0401001v3": "q-bio/0401001",
		"https://example.org/2301.07041":       "",
	}
	for in, want := range tests {
		assert.Equal(t, want, arxivID(in), in)
	}
}
