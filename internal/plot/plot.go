// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package plot renders report charts with gonum/plot: overlaid genotype
// histograms, normal density curves, and per-genotype box plots.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/pdiddy/genocode/internal/report"
)

// Kind selects a chart.
type Kind string

const (
	KindHist Kind = "hist"
	KindPDF  Kind = "pdf"
	KindBox  Kind = "box"
)

// Default canvas size.
var (
	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

// ErrUnknownKind is returned for a chart kind other than hist, pdf or box.
var ErrUnknownKind = errors.New("unknown plot kind")

// ParseKind validates a chart kind name. Empty selects KindPDF.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindPDF, nil
	case KindHist, KindPDF, KindBox:
		return k, nil
	default:
		return "", fmt.Errorf("%w %q: use hist, pdf or box", ErrUnknownKind, s)
	}
}

// New builds the chart of the given kind for r.
func New(r *report.Report, kind Kind) (*plot.Plot, error) {
	if len(r.Groups) == 0 {
		return nil, fmt.Errorf("report %s has no genotype groups", r.StudyID)
	}
	switch kind {
	case KindHist:
		return histogram(r)
	case KindPDF:
		return curves(r)
	case KindBox:
		return boxes(r)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownKind, kind)
	}
}

// Render writes the chart to w in format ("svg", "png", "pdf", ...).
func Render(w io.Writer, r *report.Report, kind Kind, format string) error {
	p, err := New(r, kind)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(Width, Height, format)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", format, err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// Save renders the chart to path; the format follows the file extension.
func Save(path string, r *report.Report, kind Kind) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Render(f, r, kind, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// FormatFor returns the image format for a file name.
func FormatFor(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "svg", "png", "pdf":
		return ext, nil
	case "jpg", "jpeg":
		return "jpg", nil
	default:
		return "", fmt.Errorf("unsupported image extension %q: use .svg, .png, .pdf or .jpg", filepath.Ext(path))
	}
}

func legendName(r *report.Report, g report.Group) string {
	name := g.Genotype
	if g.Label != "" && g.Label != g.Genotype {
		name += " " + g.Label
	}
	if r.Subject != nil && r.Subject.Genotype == g.Genotype {
		name += " (you)"
	}
	return name
}

func translucent(c color.Color, alpha uint8) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: alpha}
}

func histogram(r *report.Report) (*plot.Plot, error) {
	if len(r.Edges) < 2 {
		return nil, fmt.Errorf("report %s has no histogram edges", r.StudyID)
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Histogram of %s by Genotype", r.Phenotype)
	p.X.Label.Text = r.AxisLabel()
	p.Y.Label.Text = "Count"
	p.Legend.Top = true

	width := r.Edges[1] - r.Edges[0]
	for i, g := range r.Groups {
		bins := make([]plotter.HistogramBin, len(g.Counts))
		for j, n := range g.Counts {
			bins[j] = plotter.HistogramBin{Min: r.Edges[j], Max: r.Edges[j+1], Weight: float64(n)}
		}
		h := &plotter.Histogram{
			Bins:      bins,
			Width:     width,
			FillColor: translucent(plotutil.Color(i), 0x60),
			LineStyle: plotter.DefaultLineStyle,
		}
		h.LineStyle.Color = plotutil.Color(i)
		p.Add(h)
		p.Legend.Add(legendName(r, g), h)
	}
	return p, nil
}

func curves(r *report.Report) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Normal Distribution Curves of Each Genotype"
	p.X.Label.Text = r.AxisLabel()
	p.Y.Label.Text = "Probability Density"
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, g := range r.Groups {
		if len(g.Density) != len(r.X) {
			return nil, fmt.Errorf("genotype %s: %d densities for %d points", g.Genotype, len(g.Density), len(r.X))
		}
		xys := make(plotter.XYs, len(r.X))
		for j := range r.X {
			xys[j].X, xys[j].Y = r.X[j], g.Density[j]
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("genotype %s: %w", g.Genotype, err)
		}
		l.Color = plotutil.Color(i)
		l.Width = vg.Points(1.5)
		if r.Subject != nil && r.Subject.Genotype == g.Genotype {
			l.Width = vg.Points(3)
		}
		if g.Reference {
			l.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		}
		p.Add(l)
		p.Legend.Add(legendName(r, g), l)
	}
	return p, nil
}

func boxes(r *report.Report) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Effect of Genotype on Phenotype"
	p.Y.Label.Text = r.AxisLabel()
	p.X.Label.Text = "Genotype"

	names := make([]string, len(r.Groups))
	for i, g := range r.Groups {
		if len(g.Samples) == 0 {
			return nil, fmt.Errorf("genotype %s has no samples", g.Genotype)
		}
		b, err := plotter.NewBoxPlot(vg.Points(40), float64(i), plotter.Values(g.Samples))
		if err != nil {
			return nil, fmt.Errorf("genotype %s: %w", g.Genotype, err)
		}
		b.FillColor = translucent(plotutil.Color(i), 0x90)
		p.Add(b)
		names[i] = legendName(r, g)
	}
	p.NominalX(names...)
	return p, nil
}
