// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/genocode/internal/catalog"
	"github.com/pdiddy/genocode/internal/stats"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and validate trait catalogs",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the catalog's studies",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cat, err := loadCatalog(cfg)
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cat.Studies())
		}

		fmt.Fprintf(os.Stdout, "%-16s  %-12s  %-8s  %-20s  %s\n", "ID", "RSID", "Gene", "Phenotype", "Genotypes")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
		for _, s := range cat.Studies() {
			var gs []string
			for _, g := range s.Groups {
				mean, sd, err := stats.Resolve(g.SummaryStats)
				if err != nil {
					gs = append(gs, g.Genotype+"=?")
					continue
				}
				name := g.Genotype
				if g.Genotype == s.ReferenceGenotype {
					name += "*"
				}
				gs = append(gs, fmt.Sprintf("%s %.2f±%.2f", name, mean, sd))
			}
			fmt.Fprintf(os.Stdout, "%-16s  %-12s  %-8s  %-20s  %s\n",
				s.ID, s.RSID, s.Gene, s.AxisLabel(), strings.Join(gs, ", "))
		}
		fmt.Fprintf(os.Stdout, "\n%d studies (* reference genotype)\n", cat.Len())
		return nil
	},
}

var catalogValidateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check a YAML or TOML catalog and report every problem",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d studies OK\n", args[0], cat.Len())
		return nil
	},
}

func init() {
	catalogListCmd.Flags().Bool("json", false, "output as JSON")
	catalogCmd.AddCommand(catalogListCmd, catalogValidateCmd)
	rootCmd.AddCommand(catalogCmd)
}
