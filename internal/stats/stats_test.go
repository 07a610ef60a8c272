// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stats

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pdiddy/genocode/pkg/types"
)

func ptr(v float64) *float64 { return &v }

// --- conversions ---

func TestSEToSD(t *testing.T) {
	assert.InDelta(t, 0.5*math.Sqrt(1000), SEToSD(0.5, 1000), 1e-12)
	assert.Equal(t, 0.0, SEToSD(0, 50))
}

func TestCIToSD(t *testing.T) {
	tests := []struct {
		name         string
		lower, upper float64
		level        float64
		n            int
		want         float64
		wantErr      bool
	}{
		{"95 percent", 0.2, 0.4, 95, 100, 10 * 0.2 / (2 * 1.960), false},
		{"99 percent", 23.0, 25.0, 99, 400, 20 * 2.0 / (2 * 2.576), false},
		{"80 percent", 1, 2, 80, 1, 1.0 / (2 * 1.282), false},
		{"unknown level", 1, 2, 97, 100, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CIToSD(tt.lower, tt.upper, tt.level, tt.n)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownCILevel)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		ss       types.SummaryStats
		wantMean float64
		wantSD   float64
		wantErr  error
	}{
		{
			name:     "mean and sd",
			ss:       types.SummaryStats{Mean: ptr(24.12), SD: ptr(3.87)},
			wantMean: 24.12, wantSD: 3.87,
		},
		{
			name:     "standard error scales by sqrt n",
			ss:       types.SummaryStats{Mean: ptr(25), SE: ptr(0.4), N: 100},
			wantMean: 25, wantSD: 4,
		},
		{
			name:     "standard error wins over sd",
			ss:       types.SummaryStats{Mean: ptr(25), SD: ptr(9), SE: ptr(0.4), N: 100},
			wantMean: 25, wantSD: 4,
		},
		{
			name:     "confidence interval without mean uses midpoint",
			ss:       types.SummaryStats{LowerCI: ptr(23.608), UpperCI: ptr(24.392), N: 100},
			wantMean: 24, wantSD: 2,
		},
		{
			name:     "confidence interval keeps explicit mean",
			ss:       types.SummaryStats{Mean: ptr(24.1), LowerCI: ptr(23.608), UpperCI: ptr(24.392), N: 100},
			wantMean: 24.1, wantSD: 2,
		},
		{
			name:    "missing mean",
			ss:      types.SummaryStats{SD: ptr(1)},
			wantErr: ErrMissingMean,
		},
		{
			name:    "zero sd",
			ss:      types.SummaryStats{Mean: ptr(1), SD: ptr(0)},
			wantErr: ErrNonPositiveSD,
		},
		{
			name:    "no spread given",
			ss:      types.SummaryStats{Mean: ptr(1)},
			wantErr: ErrNonPositiveSD,
		},
		{
			name:    "half a confidence interval",
			ss:      types.SummaryStats{Mean: ptr(1), UpperCI: ptr(2), SD: ptr(1)},
			wantErr: ErrIncompleteCI,
		},
		{
			name:    "inverted confidence interval",
			ss:      types.SummaryStats{LowerCI: ptr(3), UpperCI: ptr(2)},
			wantErr: ErrInvertedCI,
		},
		{
			name:    "unsupported level",
			ss:      types.SummaryStats{LowerCI: ptr(1), UpperCI: ptr(2), CILevel: 42},
			wantErr: ErrUnknownCILevel,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, sd, err := Resolve(tt.ss)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "error %v should wrap %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantMean, mean, 1e-9)
			assert.InDelta(t, tt.wantSD, sd, 1e-3)
		})
	}
}

func TestResolveReportsEveryProblem(t *testing.T) {
	_, _, err := Resolve(types.SummaryStats{UpperCI: ptr(2)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIncompleteCI)
	assert.ErrorIs(t, err, ErrMissingMean)
}

func TestParseParams(t *testing.T) {
	ss, err := ParseParams(map[string]any{
		"mean":     "24.12",
		"sd":       4,
		"se":       "  ",
		"lower_ci": nil,
		"ci_level": "90",
		"n":        "250",
	})
	require.NoError(t, err)
	require.NotNil(t, ss.Mean)
	require.NotNil(t, ss.SD)
	assert.Equal(t, 24.12, *ss.Mean)
	assert.Equal(t, 4.0, *ss.SD)
	assert.Nil(t, ss.SE)
	assert.Nil(t, ss.LowerCI)
	assert.Equal(t, 90.0, ss.CILevel)
	assert.Equal(t, 250, ss.N)
}

func TestParseParamsRejectsNonNumeric(t *testing.T) {
	_, err := ParseParams(map[string]any{"mean": "tall", "sd": "wide"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mean")
	assert.Contains(t, err.Error(), "sd")
}

// --- generation ---

func TestGenerateIsDeterministic(t *testing.T) {
	ss := types.SummaryStats{Mean: ptr(24.12), SD: ptr(3.87)}

	a, err := Generate(ss, 500, NewRand(7))
	require.NoError(t, err)
	b, err := Generate(ss, 500, NewRand(7))
	require.NoError(t, err)

	assert.Len(t, a.Samples, 500)
	assert.Equal(t, a.Samples, b.Samples)
}

func TestGenerateDrawsFromNormal(t *testing.T) {
	ss := types.SummaryStats{Mean: ptr(24.12), SD: ptr(3.87)}
	d, err := Generate(ss, 5, NewRand(3))
	require.NoError(t, err)

	want := distuv.Normal{Mu: 24.12, Sigma: 3.87, Src: NewRand(3)}
	for i, got := range d.Samples {
		assert.Equal(t, want.Rand(), got, "sample %d", i)
	}
}

func TestGenerateMatchesParameters(t *testing.T) {
	ss := types.SummaryStats{Mean: ptr(24.12), SD: ptr(3.87)}
	d, err := Generate(ss, 20000, NewRand(42))
	require.NoError(t, err)

	s := Summarize(d.Samples)
	assert.InDelta(t, 24.12, s.Mean, 0.15)
	assert.InDelta(t, 3.87, s.SD, 0.15)
}

func TestGenerateDefaultSize(t *testing.T) {
	d, err := Generate(types.SummaryStats{Mean: ptr(0), SD: ptr(1)}, 0, NewRand(1))
	require.NoError(t, err)
	assert.Len(t, d.Samples, DefaultSize)
}

func TestCompound(t *testing.T) {
	groups := []types.GenotypeGroup{
		{Genotype: "TT", Label: "Wild", SummaryStats: types.SummaryStats{Mean: ptr(24.12), SD: ptr(3.87)}},
		{Genotype: "AT", SummaryStats: types.SummaryStats{Mean: ptr(24.43), SD: ptr(3.94)}},
		{Genotype: "AA", SummaryStats: types.SummaryStats{Mean: ptr(24.82), SD: ptr(3.95)}},
	}
	datasets, err := Compound(groups, 1000, NewRand(3))
	require.NoError(t, err)
	require.Len(t, datasets, 3)
	assert.Equal(t, "Wild", datasets[0].Label)
	assert.Equal(t, "AT", datasets[1].Label)
	assert.Equal(t, "AA", datasets[2].Genotype)
	for _, d := range datasets {
		assert.Len(t, d.Samples, 1000)
	}
}

func TestCompoundReportsBadGroups(t *testing.T) {
	groups := []types.GenotypeGroup{
		{Genotype: "TT", SummaryStats: types.SummaryStats{Mean: ptr(1), SD: ptr(1)}},
		{Genotype: "AT"},
		{Genotype: "AA", SummaryStats: types.SummaryStats{SD: ptr(1)}},
	}
	_, err := Compound(groups, 10, NewRand(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "genotype AT")
	assert.Contains(t, err.Error(), "genotype AA")
}

func TestSeedForIsStable(t *testing.T) {
	assert.Equal(t, SeedFor("fto-bmi"), SeedFor("fto-bmi"))
	assert.NotEqual(t, SeedFor("fto-bmi"), SeedFor("mc4r-bmi"))
}

// --- histogram ---

func TestLinspace(t *testing.T) {
	got, err := Linspace(10, 40, 4)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{10, 20, 30, 40}, got, 1e-12)

	_, err = Linspace(0, 1, 1)
	assert.Error(t, err)
	_, err = Linspace(1, 1, 5)
	assert.Error(t, err)
}

func TestHistogram(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		edges   []float64
		want    []int
	}{
		{"half open bins", []float64{0, 0.5, 1, 1.5}, []float64{0, 1, 2}, []int{2, 2}},
		{"last edge is inclusive", []float64{2, 2, 1.999}, []float64{0, 1, 2}, []int{0, 3}},
		{"out of range dropped", []float64{-1, 3, math.NaN(), 0.5}, []float64{0, 1, 2}, []int{1, 0}},
		{"empty sample", nil, []float64{0, 1}, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Histogram(tt.samples, tt.edges)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHistogramRejectsBadEdges(t *testing.T) {
	for _, edges := range [][]float64{nil, {1}, {0, 0}, {2, 1}, {0, math.Inf(1)}} {
		_, err := Histogram([]float64{1}, edges)
		assert.ErrorIs(t, err, ErrBadEdges, "edges %v", edges)
	}
}

func TestBinCountsEverySampleInRange(t *testing.T) {
	d, err := Generate(types.SummaryStats{Mean: ptr(24.12), SD: ptr(3.87)}, 1000, NewRand(9))
	require.NoError(t, err)
	edges, err := Linspace(-100, 150, 30)
	require.NoError(t, err)

	counts, err := Bin([]Dataset{d}, edges)
	require.NoError(t, err)
	total := 0
	for _, c := range counts[0] {
		total += c
	}
	assert.Equal(t, 1000, total)
	assert.Len(t, counts[0], 29)
}

func TestEnvelope(t *testing.T) {
	lo, hi := Envelope([]Normal{{Mean: 10, SD: 1}, {Mean: 20, SD: 2}}, 4)
	assert.Equal(t, 6.0, lo)
	assert.Equal(t, 28.0, hi)
}

// --- densities and overlap ---

func TestPDF(t *testing.T) {
	ys, err := PDF(Normal{Mean: 0, SD: 1}, []float64{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 1/math.Sqrt(2*math.Pi), ys[0], 1e-12)
	assert.InDelta(t, math.Exp(-0.5)/math.Sqrt(2*math.Pi), ys[1], 1e-12)

	_, err = PDF(Normal{Mean: 0, SD: 0}, []float64{0})
	assert.ErrorIs(t, err, ErrZeroSigma)
}

func TestPDFs(t *testing.T) {
	xs, err := Linspace(10, 40, 30)
	require.NoError(t, err)
	curves, err := PDFs([]Normal{{24.12, 3.87}, {24.43, 3.94}, {24.82, 3.95}}, xs)
	require.NoError(t, err)
	require.Len(t, curves, 3)
	for _, c := range curves {
		assert.Len(t, c, 30)
	}
}

func TestOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b Normal
		want float64
	}{
		{"identical", Normal{0, 1}, Normal{0, 1}, 1},
		{"shifted equal variance", Normal{0, 1}, Normal{1, 1}, 0.6170750774519738},
		{"far apart", Normal{0, 1}, Normal{100, 1}, 0},
		{"different variance", Normal{2.4, 1.6}, Normal{3.2, 2.0}, 0.8035050657330205},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Overlap(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)

			rev, err := Overlap(tt.b, tt.a)
			require.NoError(t, err)
			assert.InDelta(t, got, rev, 1e-12, "overlap must be symmetric")
		})
	}
}

func TestOverlapZeroSigma(t *testing.T) {
	_, err := Overlap(Normal{0, 0}, Normal{0, 1})
	assert.ErrorIs(t, err, ErrZeroSigma)
}

func TestPercentOverlap(t *testing.T) {
	out, err := PercentOverlap([]Normal{{24.12, 3.87}, {24.43, 3.94}, {24.82, 3.95}})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, "The overlap between dataset 1 and dataset 1 is 100.00%", out[0].Message)
	assert.InDelta(t, 1, out[0].Overlap, 1e-12)
	assert.Less(t, out[2].Overlap, out[1].Overlap)
	assert.Contains(t, out[2].Message, "dataset 3 is")

	empty, err := PercentOverlap(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{5, 1, 4, 2, 3})
	assert.Equal(t, 5, s.N)
	assert.Equal(t, 3.0, s.Mean)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 3.0, s.Median)
	assert.InDelta(t, math.Sqrt(2.5), s.SD, 1e-12)

	assert.Equal(t, Summary{}, Summarize(nil))
}
