// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/genocode/pkg/types"
)

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteTable writes a plain-text table per report followed by the
// uncovered studies.
func WriteTable(w io.Writer, set *Set) error {
	if len(set.Reports) == 0 {
		fmt.Fprintln(w, "No catalog SNPs covered.")
	}
	for i, r := range set.Reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		writeReportTable(w, r)
	}

	if len(set.NotCovered) > 0 {
		fmt.Fprintf(w, "\nNot covered:\n")
		for _, u := range set.NotCovered {
			fmt.Fprintf(w, "  %-20s  %-12s  %s\n", u.StudyID, u.RSID, u.Reason)
		}
	}
	_, err := fmt.Fprintf(w, "\n%d report(s), %d not covered\n", len(set.Reports), len(set.NotCovered))
	return err
}

func writeReportTable(w io.Writer, r *Report) {
	header := r.RSID
	if r.Gene != "" {
		header += " (" + r.Gene + ")"
	}
	fmt.Fprintf(w, "%s  %s  %s\n", r.StudyID, header, r.AxisLabel())
	fmt.Fprintf(w, "%-8s  %-14s  %8s  %8s  %8s  %s\n",
		"Genotype", "Label", "Mean", "SD", "Median", "Overlap vs "+r.Reference)
	fmt.Fprintln(w, strings.Repeat("-", 72))

	for _, g := range r.Groups {
		mark := " "
		if r.Subject != nil && r.Subject.Genotype == g.Genotype {
			mark = "*"
		}
		label := g.Label
		if len(label) > 14 {
			label = label[:11] + "..."
		}
		fmt.Fprintf(w, "%-8s  %-14s  %8.2f  %8.2f  %8.2f  %6.2f%% %s\n",
			g.Genotype, label, g.Mean, g.SD, g.Sample.Median, g.Overlap*100, mark)
	}
	if r.Subject != nil {
		fmt.Fprintln(w, r.Subject.Message)
	}
}

// WriteMarkdown writes the set as a Markdown document. articles maps study
// IDs to linked literature, listed under each report.
func WriteMarkdown(w io.Writer, set *Set, articles map[string][]types.Article) error {
	fmt.Fprintln(w, "# Genotype report")
	fmt.Fprintln(w)

	for _, r := range set.Reports {
		fmt.Fprintf(w, "## %s: %s", r.RSID, r.Phenotype)
		if r.Gene != "" {
			fmt.Fprintf(w, " (%s)", r.Gene)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w)

		if r.Subject != nil {
			fmt.Fprintf(w, "%s.\n\n", r.Subject.Message)
		}

		fmt.Fprintf(w, "| Genotype | Label | Mean | SD | Overlap vs %s |\n", r.Reference)
		fmt.Fprintln(w, "|---|---|---:|---:|---:|")
		for _, g := range r.Groups {
			genotype := g.Genotype
			if r.Subject != nil && r.Subject.Genotype == g.Genotype {
				genotype = "**" + genotype + "**"
			}
			fmt.Fprintf(w, "| %s | %s | %.2f | %.2f | %.2f%% |\n", genotype, g.Label, g.Mean, g.SD, g.Overlap*100)
		}
		fmt.Fprintln(w)

		if r.Citation != "" {
			fmt.Fprintf(w, "Source: %s\n\n", link(r.Citation, doiURL(r.Citation)))
		}

		if arts := articles[r.StudyID]; len(arts) > 0 {
			fmt.Fprintln(w, "### Literature")
			fmt.Fprintln(w)
			for _, a := range arts {
				year := ""
				if !a.Date.IsZero() {
					year = fmt.Sprintf(" (%d)", a.Date.Year())
				}
				fmt.Fprintf(w, "- %s%s\n", link(a.Title, a.URL), year)
			}
			fmt.Fprintln(w)
		}
	}

	if len(set.NotCovered) > 0 {
		fmt.Fprintln(w, "## Not covered")
		fmt.Fprintln(w)
		for _, u := range set.NotCovered {
			fmt.Fprintf(w, "- %s (%s): %s\n", u.StudyID, u.RSID, u.Reason)
		}
	}
	return nil
}

func link(text, url string) string {
	if url == "" {
		return text
	}
	return "[" + text + "](" + url + ")"
}

func doiURL(citation string) string {
	if strings.HasPrefix(citation, "10.") {
		return "https://doi.org/" + citation
	}
	if strings.HasPrefix(citation, "http://") || strings.HasPrefix(citation, "https://") {
		return citation
	}
	return ""
}
