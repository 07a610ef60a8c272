// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package literature

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/genocode/pkg/types"
)

// FormatTable writes articles as a ranked text table.
func FormatTable(w io.Writer, articles []types.Article, dupsRemoved int) {
	if len(articles) == 0 {
		fmt.Fprintln(w, "No articles found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-58s  %-20s  %-4s  %-5s  %s\n", "Rank", "Title", "Authors", "Year", "Score", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 112))
	for i, a := range articles {
		year := ""
		if !a.Date.IsZero() {
			year = fmt.Sprint(a.Date.Year())
		}
		fmt.Fprintf(w, "%-4d  %-58s  %-20s  %-4s  %5.2f  %s\n",
			i+1, clip(a.Title, 58), authorLine(a.Authors), year, a.RelevanceScore, a.Source)
	}

	fmt.Fprintf(w, "\n%d articles", len(articles))
	if dupsRemoved > 0 {
		fmt.Fprintf(w, " (%d duplicates merged)", dupsRemoved)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes articles as indented JSON.
func FormatJSON(w io.Writer, articles []types.Article) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(articles)
}

func authorLine(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return clip(authors[0], 20)
	default:
		return clip(authors[0], 13) + " et al."
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// CSLItem is a CSL-YAML bibliography entry, readable by Pandoc and
// reference managers.
type CSLItem struct {
	ID       string    `yaml:"id"`
	Type     string    `yaml:"type"`
	Title    string    `yaml:"title"`
	Author   []CSLName `yaml:"author,omitempty"`
	Abstract string    `yaml:"abstract,omitempty"`
	Issued   *CSLDate  `yaml:"issued,omitempty"`
	DOI      string    `yaml:"DOI,omitempty"`
	URL      string    `yaml:"URL,omitempty"`
}

// CSLName is a CSL person name.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate is a CSL date as date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// FormatCSL writes articles as a CSL-YAML list.
func FormatCSL(w io.Writer, articles []types.Article) error {
	items := make([]CSLItem, len(articles))
	for i, a := range articles {
		items[i] = cslItem(a)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

func cslItem(a types.Article) CSLItem {
	item := CSLItem{
		ID:       a.Identifier,
		Type:     "article-journal",
		Title:    a.Title,
		Abstract: a.Abstract,
		URL:      a.URL,
	}
	if a.Source == "arxiv" {
		item.Type = "article"
	}
	if isDOI(a.Identifier) {
		item.DOI = a.Identifier
	}
	for _, name := range a.Authors {
		if n := cslName(name); n != (CSLName{}) {
			item.Author = append(item.Author, n)
		}
	}
	if !a.Date.IsZero() {
		item.Issued = &CSLDate{DateParts: [][]int{{a.Date.Year(), int(a.Date.Month()), a.Date.Day()}}}
	}
	return item
}

// cslName treats the last word of a name as the family name.
func cslName(name string) CSLName {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return CSLName{}
	case 1:
		return CSLName{Literal: fields[0]}
	default:
		return CSLName{
			Given:  strings.Join(fields[:len(fields)-1], " "),
			Family: fields[len(fields)-1],
		}
	}
}
