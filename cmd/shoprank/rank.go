// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/shoprank/internal/history"
	"github.com/pdiddy/shoprank/internal/rank"
	"github.com/pdiddy/shoprank/pkg/types"
)

var rankCmd = &cobra.Command{
	Use:   "rank [query]",
	Short: "Find where a product ranks for a search query",
	Long: `Rank walks the search result pages for a query and reports the first
listing that matches every supplied filter: --product matches the title,
--mall the mall name, and --brand the brand or maker. Matching is a
case-insensitive substring test. With no filters the first listing matches.

Pages that fail to load are skipped. Use --all to list every matching
listing instead of the first.`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().String("query", "", "search query (or pass it as arguments)")
	rankCmd.Flags().String("product", "", "product name substring")
	rankCmd.Flags().String("mall", "", "mall name substring")
	rankCmd.Flags().String("brand", "", "brand or maker substring")
	rankCmd.Flags().Int("max-pages", defaultMaxPages, "maximum result pages to scan")
	rankCmd.Flags().Bool("all", false, "list every matching listing")
	rankCmd.Flags().Bool("json", false, "output results as JSON")
	rankCmd.Flags().Bool("yaml", false, "output results as YAML")
	rankCmd.Flags().Bool("save", false, "save the result to the history database")

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, args []string) error {
	query := queryFromFlags(cmd, args)
	if query == "" {
		return fmt.Errorf("provide a search query")
	}
	maxPages, err := maxPagesFlag(cmd)
	if err != nil {
		return err
	}
	jsonOutput, _ := cmd.Flags().GetBool("json")
	yamlOutput, _ := cmd.Flags().GetBool("yaml")
	if jsonOutput && yamlOutput {
		return fmt.Errorf("--json and --yaml are mutually exclusive")
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

	finder := &rank.Finder{
		Searcher: client,
		PageSize: client.PageSize(),
		Sort:     cfg.Shopping.Sort,
		Logger:   logger,
	}
	target := targetFromFlags(cmd)

	if all, _ := cmd.Flags().GetBool("all"); all {
		matches, err := finder.FindAll(ctx, query, target, maxPages)
		if err != nil {
			return err
		}
		switch {
		case jsonOutput:
			return rank.FormatJSON(os.Stdout, matches)
		case yamlOutput:
			return rank.FormatYAML(os.Stdout, matches)
		}
		rank.FormatTable(os.Stdout, matches)
		return nil
	}

	result, err := finder.FindRank(ctx, query, target, maxPages)
	if err != nil {
		return err
	}

	if save, _ := cmd.Flags().GetBool("save"); save {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.Save(ctx, result)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved as history record %d\n", id)
	}

	switch {
	case jsonOutput:
		return rank.FormatJSON(os.Stdout, result)
	case yamlOutput:
		return rank.FormatYAML(os.Stdout, result)
	}
	rank.FormatReport(os.Stdout, result)
	return nil
}

// --- shared helpers ---

func queryFromFlags(cmd *cobra.Command, args []string) string {
	query, _ := cmd.Flags().GetString("query")
	if query == "" && len(args) > 0 {
		query = strings.Join(args, " ")
	}
	return strings.TrimSpace(query)
}

func targetFromFlags(cmd *cobra.Command) types.Target {
	product, _ := cmd.Flags().GetString("product")
	mall, _ := cmd.Flags().GetString("mall")
	brand, _ := cmd.Flags().GetString("brand")
	return types.Target{ProductName: product, MallName: mall, Brand: brand}
}
