// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package plot

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/genocode/internal/catalog"
	"github.com/pdiddy/genocode/internal/report"
	"github.com/pdiddy/genocode/pkg/types"
)

func testReport(t *testing.T) *report.Report {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	s, err := c.ByID("fto-bmi")
	require.NoError(t, err)
	r, err := report.Build(context.Background(), s, "AT", types.ReportConfig{SampleSize: 200}, nil)
	require.NoError(t, err)
	return r
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"", KindPDF},
		{"hist", KindHist},
		{"PDF", KindPDF},
		{" box ", KindBox},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseKind("violin")
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNewEachKind(t *testing.T) {
	r := testReport(t)
	tests := []struct {
		kind  Kind
		title string
	}{
		{KindHist, "Histogram of BMI by Genotype"},
		{KindPDF, "Normal Distribution Curves of Each Genotype"},
		{KindBox, "Effect of Genotype on Phenotype"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			p, err := New(r, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.title, p.Title.Text)
		})
	}

	_, err := New(r, Kind("violin"))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestRenderSVGAndPNG(t *testing.T) {
	r := testReport(t)

	var svg bytes.Buffer
	require.NoError(t, Render(&svg, r, KindPDF, "svg"))
	assert.Contains(t, svg.String(), "<svg")

	var png bytes.Buffer
	require.NoError(t, Render(&png, r, KindBox, "png"))
	assert.True(t, bytes.HasPrefix(png.Bytes(), []byte("\x89PNG")))
}

func TestRenderRejectsEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, &report.Report{StudyID: "empty"}, KindHist, "svg")
	assert.ErrorContains(t, err, "no genotype groups")
}

func TestSave(t *testing.T) {
	r := testReport(t)
	path := filepath.Join(t.TempDir(), "charts", "fto.svg")

	require.NoError(t, Save(path, r, KindHist))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	err = Save(filepath.Join(t.TempDir(), "fto.gif"), r, KindHist)
	assert.ErrorContains(t, err, "unsupported image extension")
}

func TestFormatFor(t *testing.T) {
	for path, want := range map[string]string{
		"a.svg":  "svg",
		"a.PNG":  "png",
		"a.jpeg": "jpg",
		"a.pdf":  "pdf",
	} {
		got, err := FormatFor(path)
		require.NoError(t, err)
		assert.Equal(t, want, got, path)
	}
}
