// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/genocode/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export everything stored for a subject to YAML or JSON",
	Long: `Export writes the subject's consent record, uploads and genotype calls
to <data-dir>/index/export-<pseudonym>.<format>, or to stdout with --stdout.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	subject, err := subjectFlag(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	if format != "yaml" && format != "json" {
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if toStdout, _ := cmd.Flags().GetBool("stdout"); toStdout {
		return st.WriteExport(ctx, subject, format, os.Stdout)
	}
	path, err := st.ExportFile(ctx, subject, format)
	if err != nil {
		return err
	}
	fmt.Printf("Exported to %s\n", path)
	return nil
}

func init() {
	exportCmd.Flags().String("subject", "", "subject identifier (or GENOCODE_SUBJECT)")
	exportCmd.Flags().String("format", "yaml", "output format: yaml or json")
	exportCmd.Flags().Bool("stdout", false, "write to stdout instead of a file")

	rootCmd.AddCommand(exportCmd)
}
