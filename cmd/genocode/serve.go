// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdiddy/genocode/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes consent, upload, statistic, report and literature
endpoints over HTTP. With server.refresh_schedule set (a five-field cron
expression) linked literature is refreshed on that schedule; with
server.watch_catalog the catalog file is reloaded when it changes.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	var log *zap.Logger
	if dev, _ := cmd.Flags().GetBool("dev"); dev {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeFn, err := openService(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()
	svc.Log = log

	log.Info("starting genocode",
		zap.String("version", version),
		zap.Int("studies", svc.Catalog.Get().Len()),
		zap.String("archive", string(cfg.Archive.Backend)),
		zap.String("events", string(cfg.Events.Backend)))
	return server.New(svc, cfg, log).Run(ctx)
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config: :8050)")
	serveCmd.Flags().Bool("dev", false, "human-readable development logging")

	rootCmd.AddCommand(serveCmd)
}
