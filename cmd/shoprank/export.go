// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/shoprank/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export [query]",
	Short: "Export every listing for a query to an .xlsx spreadsheet",
	Long: `Export walks the search result pages for a query and writes one
spreadsheet row per listing, with its overall rank, page, and position.
Only the --mall filter applies; every listing from a matching mall is kept.

The file is named {query}_{mall}_{timestamp}.xlsx unless --output is set.`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("query", "", "search query (or pass it as arguments)")
	exportCmd.Flags().String("mall", "", "keep only listings whose mall name contains this")
	exportCmd.Flags().Int("max-pages", defaultMaxPages, "maximum result pages to scan")
	exportCmd.Flags().StringP("output", "o", "", "output filename (default: generated)")
	exportCmd.Flags().String("dir", "", "output directory (default: export.dir or .)")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	query := queryFromFlags(cmd, args)
	if query == "" {
		return fmt.Errorf("provide a search query")
	}
	maxPages, err := maxPagesFlag(cmd)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, metrics, err := newSearchClient(cfg.Shopping)
	if err != nil {
		return err
	}
	defer writeMetrics(cmd, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mall, _ := cmd.Flags().GetString("mall")
	filename, _ := cmd.Flags().GetString("output")
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = cfg.Export.Dir
	}

	exporter := &export.Exporter{
		Searcher: client,
		PageSize: client.PageSize(),
		Sort:     cfg.Shopping.Sort,
		Logger:   logger,
	}
	path, err := exporter.Export(ctx, export.Options{
		Query:    query,
		MallName: mall,
		MaxPages: maxPages,
		Filename: filename,
		Dir:      dir,
	})
	if errors.Is(err, export.ErrNoRows) {
		fmt.Fprintln(os.Stdout, "No listings matched; nothing was written.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Exported to %s\n", path)
	return nil
}
