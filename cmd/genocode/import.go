// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Import a raw genotype file for a consenting subject",
	Long: `Import reads a 23andMe or AncestryDNA raw data file ("-" reads stdin),
stores its calls for the subject, and lists the catalog studies the file
covers. Earlier calls for the subject are replaced. The subject must hold
consent to the current consent version.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	subject, err := subjectFlag(cmd)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	in := os.Stdin
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[0], err)
		}
		defer f.Close()
		in = f
	}

	ctx := context.Background()
	svc, closeFn, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := svc.Import(ctx, subject, in)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	fmt.Printf("Imported upload %s (%s)\n", res.Upload.ID, res.Upload.Format)
	fmt.Printf("  %d lines, %d calls stored, %d no-calls, %d malformed\n",
		res.Total, res.Upload.Calls, res.NoCalls, res.Malformed)
	if res.Upload.ArchiveKey != "" {
		fmt.Printf("  archived as %s\n", res.Upload.ArchiveKey)
	}
	fmt.Printf("  %d catalog studies covered", len(res.Covered))
	if len(res.Covered) > 0 {
		fmt.Printf(": %v", res.Covered)
	}
	fmt.Println()
	return nil
}

func init() {
	importCmd.Flags().String("subject", "", "subject identifier (or GENOCODE_SUBJECT)")
	importCmd.Flags().Bool("json", false, "output the import summary as JSON")

	rootCmd.AddCommand(importCmd)
}
