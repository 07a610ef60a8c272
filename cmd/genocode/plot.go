// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/genocode/internal/plot"
	"github.com/pdiddy/genocode/internal/report"
	"github.com/pdiddy/genocode/internal/store"
	"github.com/pdiddy/genocode/pkg/types"
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot a study's phenotype distributions",
	Long: `Plot draws a catalog study's synthetic phenotype distributions as a
histogram (hist), normal density curves (pdf), or box plot (box). The
image format follows the --out extension: svg, png, pdf or jpg.

--genotype highlights a group; --subject highlights the subject's own call.`,
	RunE: runPlot,
}

func runPlot(cmd *cobra.Command, args []string) error {
	studyID, _ := cmd.Flags().GetString("study")
	if studyID == "" {
		return fmt.Errorf("--study is required")
	}
	kindFlag, _ := cmd.Flags().GetString("kind")
	kind, err := plot.ParseKind(kindFlag)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = fmt.Sprintf("%s-%s.svg", studyID, kind)
	}
	if _, err := plot.FormatFor(out); err != nil {
		return err
	}
	genotype, _ := cmd.Flags().GetString("genotype")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	study, err := cat.ByID(studyID)
	if err != nil {
		return err
	}

	if subject, _ := cmd.Flags().GetString("subject"); subject != "" && genotype == "" {
		genotype, err = subjectCall(cfg.Store, subject, study.RSID)
		if err != nil {
			return err
		}
	}

	r, err := report.Build(context.Background(), study, genotype, cfg.Report, nil)
	if err != nil {
		return err
	}
	if err := plot.Save(out, r, kind); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", out)
	return nil
}

// subjectCall returns the subject's stored call at rsid.
func subjectCall(cfg types.StoreConfig, subject, rsid string) (string, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return "", err
	}
	defer st.Close()

	ctx := context.Background()
	ok, err := st.HasConsent(ctx, subject)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", store.ErrConsentRequired
	}
	calls, err := st.Genotypes(ctx, subject)
	if err != nil {
		return "", err
	}
	c, found := calls[rsid]
	if !found {
		return "", fmt.Errorf("subject has no call at %s", rsid)
	}
	return c.Genotype, nil
}

func init() {
	plotCmd.Flags().String("study", "", "catalog study ID")
	plotCmd.Flags().String("kind", "pdf", "plot kind: hist, pdf, box")
	plotCmd.Flags().String("genotype", "", "genotype to highlight")
	plotCmd.Flags().String("subject", "", "highlight this subject's stored call")
	plotCmd.Flags().StringP("out", "o", "", "output image (default <study>-<kind>.svg)")

	rootCmd.AddCommand(plotCmd)
}
