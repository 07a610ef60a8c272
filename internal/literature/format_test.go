// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/genocode/pkg/types"
)

func sampleArticles() []types.Article {
	return []types.Article{
		{
			Identifier:     "10.1126/science.1141634",
			Title:          "A common variant in the FTO gene is associated with body mass index and predisposes to childhood and adult obesity",
			Authors:        []string{"Timothy M. Frayling", "Nicholas J. Timpson"},
			Date:           time.Date(2007, 5, 11, 0, 0, 0, 0, time.UTC),
			Source:         "openalex,semantic_scholar",
			URL:            "https://doi.org/10.1126/science.1141634",
			RelevanceScore: 0.95,
		},
		{
			Identifier: "2301.07041",
			Title:      "Polygenic scores",
			Authors:    []string{"Plato"},
			Source:     "arxiv",
		},
	}
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(&buf, sampleArticles(), 3)
	out := buf.String()

	assert.Contains(t, out, "Rank")
	assert.Contains(t, out, "Timothy M.... et al.")
	assert.Contains(t, out, "2007")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "2 articles (3 duplicates merged)")

	buf.Reset()
	FormatTable(&buf, nil, 0)
	assert.Equal(t, "No articles found.\n", buf.String())
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(&buf, sampleArticles()))

	var got []types.Article
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "10.1126/science.1141634", got[0].Identifier)
}

func TestFormatCSL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatCSL(&buf, sampleArticles()))

	var items []CSLItem
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 2)

	journal := items[0]
	assert.Equal(t, "article-journal", journal.Type)
	assert.Equal(t, "10.1126/science.1141634", journal.DOI)
	assert.Equal(t, CSLName{Given: "Timothy M.", Family: "Frayling"}, journal.Author[0])
	assert.Equal(t, [][]int{{2007, 5, 11}}, journal.Issued.DateParts)

	preprint := items[1]
	assert.Equal(t, "article", preprint.Type)
	assert.Empty(t, preprint.DOI)
	assert.Nil(t, preprint.Issued)
	assert.Equal(t, []CSLName{{Literal: "Plato"}}, preprint.Author)
	assert.True(t, strings.Contains(buf.String(), "date-parts"))
}

func TestQueryFileRoundTrip(t *testing.T) {
	q := Query{
		FreeText: "rs9939609 FTO BMI",
		Keywords: []string{"obesity"},
		DateFrom: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	cfg := testCfg()
	out := Output{Results: sampleArticles(), DupsRemoved: 1, BackendErrors: []string{"arxiv: down"}}

	path := filepath.Join(t.TempDir(), "fto.yaml")
	require.NoError(t, NewQueryFile("fto-bmi", q, cfg, true, out).Write(path))

	qf, err := ReadQueryFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fto-bmi", qf.StudyID)
	assert.True(t, qf.RecencyBias)
	assert.Equal(t, 10, qf.MaxResults)
	assert.Equal(t, 1, qf.DupsRemoved)
	assert.Len(t, qf.Results, 2)
	assert.Equal(t, "2000-01-01", qf.Query.DateFrom)

	back, err := qf.Query.Query()
	require.NoError(t, err)
	assert.Equal(t, q.FreeText, back.FreeText)
	assert.True(t, q.DateFrom.Equal(back.DateFrom))
	assert.True(t, back.DateTo.IsZero())
}

func TestSavedQueryInvalidDate(t *testing.T) {
	_, err := SavedQuery{FreeText: "x", DateTo: "yesterday"}.Query()
	assert.ErrorContains(t, err, "invalid date_to")
}

func TestReadQueryFileMissing(t *testing.T) {
	_, err := ReadQueryFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
