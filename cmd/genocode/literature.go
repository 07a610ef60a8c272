// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/genocode/internal/literature"
	"github.com/pdiddy/genocode/internal/store"
	"github.com/pdiddy/genocode/pkg/types"
)

var literatureCmd = &cobra.Command{
	Use:   "literature",
	Short: "Search, link, and list articles for catalog studies",
	Long: `Literature queries OpenAlex, Semantic Scholar and arXiv for articles
about a study's SNP, gene and phenotype, merges duplicates across sources,
ranks the results, and links them to the study in the local store.`,
}

// --- search subcommand ---

var literatureSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search academic APIs for articles",
	Long: `Search runs a free-text query (or the query derived from --study)
against every enabled backend. Use --save to keep the query and results in
a YAML file and --load to print a saved file without calling the APIs.`,
	RunE: runLiteratureSearch,
}

func runLiteratureSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Literature.MaxResults = n
	}
	studyID, _ := cmd.Flags().GetString("study")

	if loadPath, _ := cmd.Flags().GetString("load"); loadPath != "" {
		qf, err := literature.ReadQueryFile(loadPath)
		if err != nil {
			return err
		}
		return printArticles(cmd, qf.Results, qf.DupsRemoved)
	}

	q, err := queryFromFlags(cmd, args, cfg)
	if err != nil {
		return err
	}
	recency, _ := cmd.Flags().GetBool("recency-bias")

	ctx := context.Background()
	out, err := literature.Search(ctx, q, literature.Backends(cfg.Literature), cfg.Literature, recency, os.Stderr)
	if err != nil {
		return err
	}

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		if err := literature.NewQueryFile(studyID, q, cfg.Literature, recency, out).Write(savePath); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved query to %s\n", savePath)
	}
	if link, _ := cmd.Flags().GetBool("link"); link {
		if studyID == "" {
			return fmt.Errorf("--link requires --study")
		}
		st, err := store.Open(cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close()
		n, err := st.LinkArticles(ctx, studyID, out.Results)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Linked %d articles to %s\n", n, studyID)
	}
	return printArticles(cmd, out.Results, out.DupsRemoved)
}

// queryFromFlags builds the query from positional text, --keywords and
// the date flags, or from the study's own query when --study is given
// without text.
func queryFromFlags(cmd *cobra.Command, args []string, cfg types.Config) (literature.Query, error) {
	var q literature.Query
	if studyID, _ := cmd.Flags().GetString("study"); studyID != "" && len(args) == 0 {
		cat, err := loadCatalog(cfg)
		if err != nil {
			return q, err
		}
		study, err := cat.ByID(studyID)
		if err != nil {
			return q, err
		}
		q = literature.QueryForStudy(study)
	}
	if len(args) > 0 {
		q.FreeText = strings.Join(args, " ")
	}
	if kw, _ := cmd.Flags().GetString("keywords"); kw != "" {
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				q.Keywords = append(q.Keywords, k)
			}
		}
	}

	var err error
	if q.DateFrom, err = dateFlag(cmd, "from"); err != nil {
		return q, err
	}
	if q.DateTo, err = dateFlag(cmd, "to"); err != nil {
		return q, err
	}
	if q.IsEmpty() {
		return q, literature.ErrEmptyQuery
	}
	return q, nil
}

func dateFlag(cmd *cobra.Command, name string) (time.Time, error) {
	v, _ := cmd.Flags().GetString(name)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: want YYYY-MM-DD, got %q", name, v)
	}
	return t, nil
}

func printArticles(cmd *cobra.Command, articles []types.Article, dups int) error {
	if csl, _ := cmd.Flags().GetBool("csl"); csl {
		return literature.FormatCSL(os.Stdout, articles)
	}
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return literature.FormatJSON(os.Stdout, articles)
	}
	literature.FormatTable(os.Stdout, articles, dups)
	return nil
}

// --- link subcommand ---

var literatureLinkCmd = &cobra.Command{
	Use:   "link [study-id...]",
	Short: "Search and link articles for catalog studies",
	Long: `Link searches the backends for each named study (every catalog study
when none is named) and stores the ranked results as the study's linked
articles, replacing their earlier scores.`,
	RunE: runLiteratureLink,
}

func runLiteratureLink(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
		cfg.Literature.MaxResults = n
	}

	ctx := context.Background()
	svc, closeFn, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	cat := svc.Catalog.Get()
	studies := cat.Studies()
	if len(args) > 0 {
		studies = studies[:0:0]
		for _, id := range args {
			s, err := cat.ByID(id)
			if err != nil {
				return err
			}
			studies = append(studies, s)
		}
	}

	backends := literature.Backends(cfg.Literature)
	if len(backends) == 0 {
		return fmt.Errorf("no literature backends enabled")
	}
	n, err := svc.LinkLiterature(ctx, studies, backends, cfg.Literature, os.Stdout)
	fmt.Printf("%d article link(s) written for %d stud(ies)\n", n, len(studies))
	return err
}

// --- list subcommand ---

var literatureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored articles for a study or by full-text search",
	RunE:  runLiteratureList,
}

func runLiteratureList(cmd *cobra.Command, args []string) error {
	studyID, _ := cmd.Flags().GetString("study")
	query, _ := cmd.Flags().GetString("search")
	if (studyID == "") == (query == "") {
		return fmt.Errorf("give exactly one of --study or --search")
	}
	limit, _ := cmd.Flags().GetInt("max-results")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	var arts []types.Article
	if studyID != "" {
		arts, err = st.Articles(context.Background(), studyID, limit)
	} else {
		arts, err = st.SearchArticles(context.Background(), query, limit)
	}
	if err != nil {
		return err
	}
	return printArticles(cmd, arts, 0)
}

func init() {
	literatureSearchCmd.Flags().String("study", "", "derive the query from a catalog study")
	literatureSearchCmd.Flags().String("keywords", "", "additional keywords (comma-separated)")
	literatureSearchCmd.Flags().String("from", "", "publication date range start (YYYY-MM-DD)")
	literatureSearchCmd.Flags().String("to", "", "publication date range end (YYYY-MM-DD)")
	literatureSearchCmd.Flags().Bool("recency-bias", false, "boost recently published articles")
	literatureSearchCmd.Flags().Bool("link", false, "link the results to --study in the store")
	literatureSearchCmd.Flags().String("save", "", "save the query and results to a YAML file")
	literatureSearchCmd.Flags().String("load", "", "print a saved query file instead of searching")

	literatureListCmd.Flags().String("study", "", "catalog study ID")
	literatureListCmd.Flags().String("search", "", "full-text query over stored titles and abstracts")

	for _, c := range []*cobra.Command{literatureSearchCmd, literatureLinkCmd, literatureListCmd} {
		c.Flags().Int("max-results", 0, "maximum number of results (default from config)")
		literatureCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{literatureSearchCmd, literatureListCmd} {
		c.Flags().Bool("json", false, "output results as JSON")
		c.Flags().Bool("csl", false, "output results as CSL-JSON")
	}

	rootCmd.AddCommand(literatureCmd)
}
