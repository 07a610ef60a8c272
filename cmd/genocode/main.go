// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the genocode CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/genocode/internal/archive"
	"github.com/pdiddy/genocode/internal/catalog"
	"github.com/pdiddy/genocode/internal/events"
	"github.com/pdiddy/genocode/internal/intake"
	"github.com/pdiddy/genocode/internal/secrets"
	"github.com/pdiddy/genocode/internal/store"
	"github.com/pdiddy/genocode/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds values loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the genocode CLI.
var rootCmd = &cobra.Command{
	Use:   "genocode",
	Short: "Genotype import, phenotype distributions, and linked literature",
	Long: `genocode imports direct-to-consumer raw genotype files for consenting
subjects and compares each catalog SNP the subject carries against published
per-genotype phenotype statistics: synthetic distributions, histograms,
density curves, and overlap with the reference genotype. Linked articles
come from OpenAlex, Semantic Scholar and arXiv.

Subject data is stored under a salted pseudonym and only while the subject
holds consent. Run "genocode serve" for the HTTP API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./genocode.yaml or ~/.config/genocode/genocode.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", secrets.DefaultDir, "directory of secret files")
	rootCmd.PersistentFlags().String("data-dir", "", "data directory (default from config: data)")
	rootCmd.PersistentFlags().String("catalog", "", "trait catalog file, YAML or TOML (default: built-in)")

	viper.BindPFlag("store.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	viper.BindPFlag("catalog", rootCmd.PersistentFlags().Lookup("catalog"))
	setDefaults()
}

func setDefaults() {
	viper.SetDefault("catalog", "")

	viper.SetDefault("literature.timeout", "30s")
	viper.SetDefault("literature.user_agent", "genocode/"+version)
	viper.SetDefault("literature.max_results", 20)
	viper.SetDefault("literature.enable_openalex", true)
	viper.SetDefault("literature.enable_semantic_scholar", true)
	viper.SetDefault("literature.enable_arxiv", true)
	viper.SetDefault("literature.semantic_scholar_api_key", "")
	viper.SetDefault("literature.openalex_email", "")
	viper.SetDefault("literature.inter_backend_delay", "1s")
	viper.SetDefault("literature.recency_bias_window", "43800h")

	viper.SetDefault("store.data_dir", "data")
	viper.SetDefault("store.pseudonym_salt", "")
	viper.SetDefault("store.consent_version", store.DefaultConsentVersion)
	viper.SetDefault("store.max_results", 20)

	viper.SetDefault("import.max_bytes", 64<<20)

	viper.SetDefault("report.sample_size", 1000)
	viper.SetDefault("report.bins", 30)
	viper.SetDefault("report.seed", 0)

	viper.SetDefault("archive.backend", string(types.ArchiveNone))
	viper.SetDefault("archive.dir", filepath.Join("data", "archive"))
	viper.SetDefault("archive.bucket", "")
	viper.SetDefault("archive.region", "")
	viper.SetDefault("archive.endpoint", "")

	viper.SetDefault("events.backend", string(types.EventsNone))
	viper.SetDefault("events.brokers", []string{})
	viper.SetDefault("events.topic", events.DefaultTopic)
	viper.SetDefault("events.queue_name", "")
	viper.SetDefault("events.region", "")
	viper.SetDefault("events.endpoint", "")
	viper.SetDefault("events.source", events.DefaultSource)

	viper.SetDefault("server.addr", ":8050")
	viper.SetDefault("server.refresh_schedule", "")
	viper.SetDefault("server.watch_catalog", false)
	viper.SetDefault("server.shutdown_timeout", "10s")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("genocode")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "genocode"))
		}
	}

	viper.SetEnvPrefix("GENOCODE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged configuration and fills unset keys from
// secrets.
func loadConfig() (types.Config, error) {
	var cfg types.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	if used := secrets.Apply(&cfg, loadedSecrets); len(used) > 0 {
		fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", used)
	}
	return cfg, nil
}

func loadCatalog(cfg types.Config) (*catalog.Catalog, error) {
	if cfg.CatalogPath == "" {
		return catalog.Default()
	}
	return catalog.Load(cfg.CatalogPath)
}

// openService opens the store and builds the archive and event publisher
// named by cfg. The returned func releases them.
func openService(ctx context.Context, cfg types.Config) (*intake.Service, func(), error) {
	cat, err := loadCatalog(cfg)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	arc, err := archive.New(ctx, cfg.Archive)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	pub, err := events.NewPublisher(ctx, cfg.Events)
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	svc := &intake.Service{
		Store:    st,
		Archive:  arc,
		Events:   pub,
		Catalog:  catalog.NewLive(cat),
		MaxBytes: cfg.Import.MaxBytes,
		Source:   cfg.Events.Source,
	}
	closeFn := func() {
		if err := pub.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing event publisher: %v\n", err)
		}
		st.Close()
	}
	return svc, closeFn, nil
}

// subjectFlag returns the --subject value, falling back to GENOCODE_SUBJECT.
func subjectFlag(cmd *cobra.Command) (string, error) {
	subject, _ := cmd.Flags().GetString("subject")
	if subject == "" {
		subject = os.Getenv("GENOCODE_SUBJECT")
	}
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("--subject is required")
	}
	return subject, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
