// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/genocode/internal/report"
	"github.com/pdiddy/genocode/pkg/types"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Compare a subject's genotypes with the catalog's phenotype distributions",
	Long: `Report builds, for every catalog study the subject's stored calls cover,
synthetic phenotype distributions per genotype group and the overlap of each
group with the reference genotype, marking the subject's own group.

With --study instead of --subject, one study is reported on its own;
--genotype then places a hypothetical call.`,
	RunE: runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	if format != "table" && format != "json" && format != "markdown" {
		return fmt.Errorf("unsupported format %q: use table, json or markdown", format)
	}
	studyID, _ := cmd.Flags().GetString("study")
	genotype, _ := cmd.Flags().GetString("genotype")
	outPath, _ := cmd.Flags().GetString("out")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if n, _ := cmd.Flags().GetInt("sample-size"); n > 0 {
		cfg.Report.SampleSize = n
	}
	if seed, _ := cmd.Flags().GetUint64("seed"); seed > 0 {
		cfg.Report.Seed = seed
	}

	ctx := context.Background()
	svc, closeFn, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	var set *report.Set
	if studyID != "" {
		study, err := svc.Catalog.Get().ByID(studyID)
		if err != nil {
			return err
		}
		r, err := report.Build(ctx, study, genotype, cfg.Report, nil)
		if err != nil {
			return err
		}
		set = &report.Set{Reports: []*report.Report{r}}
	} else {
		subject, err := subjectFlag(cmd)
		if err != nil {
			return fmt.Errorf("--subject or --study is required")
		}
		set, err = svc.Report(ctx, subject, cfg.Report)
		if err != nil {
			return err
		}
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "json":
		err = report.WriteJSON(w, set)
	case "markdown":
		var articles map[string][]types.Article
		if withLit, _ := cmd.Flags().GetBool("literature"); withLit {
			ids := make([]string, 0, len(set.Reports))
			for _, r := range set.Reports {
				ids = append(ids, r.StudyID)
			}
			articles, err = svc.Store.ArticlesByStudy(ctx, ids, 5)
			if err != nil {
				return err
			}
		}
		err = report.WriteMarkdown(w, set, articles)
	default:
		err = report.WriteTable(w, set)
	}
	if err != nil {
		return err
	}
	if outPath != "" {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", outPath)
	}
	return nil
}

func init() {
	reportCmd.Flags().String("subject", "", "subject identifier (or GENOCODE_SUBJECT)")
	reportCmd.Flags().String("study", "", "report one catalog study instead of a subject")
	reportCmd.Flags().String("genotype", "", "genotype to place within --study")
	reportCmd.Flags().String("format", "table", "output format: table, json, markdown")
	reportCmd.Flags().Bool("literature", false, "include linked articles (markdown)")
	reportCmd.Flags().Int("sample-size", 0, "synthetic samples per genotype group (default from config)")
	reportCmd.Flags().Uint64("seed", 0, "random seed (default derived from the study)")
	reportCmd.Flags().StringP("out", "o", "", "write to file instead of stdout")

	rootCmd.AddCommand(reportCmd)
}
