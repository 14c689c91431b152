// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/shoprank/internal/export"
	"github.com/pdiddy/shoprank/internal/history"
	"github.com/pdiddy/shoprank/internal/rank"
	"github.com/pdiddy/shoprank/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rank checks, history, and export over HTTP",
	Long: `Serve starts a JSON API:

  GET    /api/health  liveness check
  POST   /api/search  run a rank check and save it to history
  GET    /api/results list saved checks (?query=, ?targetMallName=, ?limit=)
  DELETE /api/results delete a saved check (?id=)
  POST   /api/export  download an .xlsx of every listing for a query
  GET    /metrics     Prometheus metrics for the search client`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: server.addr or :8080)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	client, metrics, err := newSearchClient(cfg.Shopping)
	if err != nil {
		return err
	}
	defer writeMetrics(cmd, metrics)

	store, err := history.NewStore(cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	if verbose, _ := cmd.Flags().GetBool("verbose"); !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &server.Server{
		Finder: &rank.Finder{
			Searcher: client,
			PageSize: client.PageSize(),
			Sort:     cfg.Shopping.Sort,
			Logger:   logger,
		},
		Exporter: &export.Exporter{
			Searcher: client,
			PageSize: client.PageSize(),
			Sort:     cfg.Shopping.Sort,
			Logger:   logger,
		},
		History:  store,
		Gatherer: metrics.Registry,
		Config:   cfg.Server,
		Logger:   logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx)
}
