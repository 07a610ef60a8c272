// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/pdiddy/genocode/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Work with published summary statistics directly",
	Long: `Stats exposes the statistics behind reports: converting a standard
error or confidence interval to a standard deviation, drawing synthetic
normal samples, and computing distribution overlap.`,
}

// statParams lists the summary-statistic flags shared by stats subcommands.
var statParams = []struct{ flag, key, usage string }{
	{"mean", "mean", "group mean"},
	{"sd", "sd", "standard deviation"},
	{"se", "se", "standard error of the mean"},
	{"lower-ci", "lower_ci", "confidence interval lower bound"},
	{"upper-ci", "upper_ci", "confidence interval upper bound"},
	{"ci-level", "ci_level", "confidence level in percent (default 95)"},
	{"n", "n", "sample size behind the statistics (default 100)"},
}

// paramValues collects the summary-statistic flags that were set.
func paramValues(cmd *cobra.Command) map[string]any {
	values := map[string]any{}
	for _, p := range statParams {
		if f := cmd.Flags().Lookup(p.flag); f != nil && f.Changed {
			values[p.key] = f.Value.String()
		}
	}
	return values
}

func addParamFlags(cmd *cobra.Command) {
	for _, p := range statParams {
		cmd.Flags().String(p.flag, "", p.usage)
	}
}

// --- convert subcommand ---

var statsConvertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Resolve mean and SD from SD, SE, or a confidence interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		ss, err := stats.ParseParams(paramValues(cmd))
		if err != nil {
			return err
		}
		mean, sd, err := stats.Resolve(ss)
		if err != nil {
			return err
		}
		fmt.Printf("mean %.4f  sd %.4f\n", mean, sd)
		return nil
	},
}

// --- generate subcommand ---

var statsGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Draw synthetic normal samples from summary statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ss, err := stats.ParseParams(paramValues(cmd))
		if err != nil {
			return err
		}
		size, _ := cmd.Flags().GetInt("size")
		seed, _ := cmd.Flags().GetUint64("seed")

		d, err := stats.Generate(ss, size, stats.NewRand(seed))
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(d)
		}
		sum := stats.Summarize(d.Samples)
		fmt.Printf("Drew %d samples from N(%.4f, %.4f), seed %d\n", sum.N, d.Mean, d.SD, seed)
		fmt.Printf("  sample mean %.4f  sd %.4f\n", sum.Mean, sum.SD)
		fmt.Printf("  min %.4f  q1 %.4f  median %.4f  q3 %.4f  max %.4f\n",
			sum.Min, sum.Q1, sum.Median, sum.Q3, sum.Max)
		return nil
	},
}

// --- overlap subcommand ---

var statsOverlapCmd = &cobra.Command{
	Use:   "overlap MEAN,SD MEAN,SD [MEAN,SD...]",
	Short: "Overlap of the first normal distribution with each of the others",
	Long: `Overlap computes the overlapping coefficient of the first distribution
with every distribution given, the first included, as a percentage.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dists := make([]stats.Normal, len(args))
		for i, a := range args {
			d, err := parseNormal(a)
			if err != nil {
				return fmt.Errorf("distribution %d: %w", i+1, err)
			}
			dists[i] = d
		}
		out, err := stats.PercentOverlap(dists)
		if err != nil {
			return err
		}
		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}
		for _, o := range out {
			fmt.Println(o.Message)
		}
		return nil
	},
}

func parseNormal(s string) (stats.Normal, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return stats.Normal{}, fmt.Errorf("want MEAN,SD, got %q", s)
	}
	mean, err := cast.ToFloat64E(strings.TrimSpace(parts[0]))
	if err != nil {
		return stats.Normal{}, fmt.Errorf("mean: %w", err)
	}
	sd, err := cast.ToFloat64E(strings.TrimSpace(parts[1]))
	if err != nil {
		return stats.Normal{}, fmt.Errorf("sd: %w", err)
	}
	return stats.Normal{Mean: mean, SD: sd}, nil
}

func init() {
	addParamFlags(statsConvertCmd)
	addParamFlags(statsGenerateCmd)
	statsGenerateCmd.Flags().Int("size", stats.DefaultSize, "number of samples")
	statsGenerateCmd.Flags().Uint64("seed", 1, "random seed")
	statsGenerateCmd.Flags().Bool("json", false, "output the samples as JSON")
	statsOverlapCmd.Flags().Bool("json", false, "output as JSON")

	statsCmd.AddCommand(statsConvertCmd, statsGenerateCmd, statsOverlapCmd)
	rootCmd.AddCommand(statsCmd)
}
