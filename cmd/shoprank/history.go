// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/shoprank/internal/history"
	"github.com/pdiddy/shoprank/internal/rank"
	"github.com/pdiddy/shoprank/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and prune saved rank checks",
	Long: `History manages the local SQLite database of saved rank checks.
A saved check replaces any earlier check for the same query and filters.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved rank checks, most recent first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	query, _ := cmd.Flags().GetString("query")
	mall, _ := cmd.Flags().GetString("mall")
	limit, _ := cmd.Flags().GetInt("limit")
	records, err := store.List(context.Background(), history.Filter{Query: query, MallName: mall, Limit: limit})
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if records == nil {
			records = []history.Record{}
		}
		return rank.FormatJSON(os.Stdout, records)
	}

	if len(records) == 0 {
		fmt.Println("No saved checks.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-20s  %-24s  %-6s  %-10s  %s\n",
		"ID", "Query", "Target", "Rank", "Page/Pos", "Checked")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 90))
	for _, r := range records {
		rankCol, pos := "-", fmt.Sprintf("0/%d", r.SearchedPages)
		if r.Found {
			rankCol = strconv.Itoa(r.TotalRank)
			pos = fmt.Sprintf("%d/%d", r.Page, r.RankInPage)
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-20s  %-24s  %-6s  %-10s  %s\n",
			r.ID, clip(r.Query, 20), clip(targetLabel(r.Target), 24), rankCol, pos,
			r.CheckedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(os.Stdout, "\n%d checks\n", len(records))
	return nil
}

// --- delete subcommand ---

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete saved rank checks by id",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistoryDelete,
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	ids := make([]int64, len(args))
	for i, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid id %q: %w", a, err)
		}
		ids[i] = id
	}

	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, id := range ids {
		if err := store.Delete(context.Background(), id); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Deleted %d\n", id)
	}
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write saved rank checks to a YAML or JSON file",
	Long: `Export dumps saved rank checks to a file. A .json extension writes JSON;
any other extension writes YAML. Use --query to export a single query.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	query, _ := cmd.Flags().GetString("query")
	n, err := store.Dump(context.Background(), args[0], history.Filter{Query: query})
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Exported %d checks to %s\n", n, args[0])
	return nil
}

// --- shared helpers ---

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	dir, _ := cmd.Flags().GetString("data-dir")
	if dir == "" {
		dir = viper.GetString("history.data_dir")
	}
	return history.NewStore(types.HistoryConfig{
		DataDir:    dir,
		MaxResults: viper.GetInt("history.max_results"),
	})
}

func targetLabel(t types.Target) string {
	var parts []string
	if t.ProductName != "" {
		parts = append(parts, "name="+t.ProductName)
	}
	if t.MallName != "" {
		parts = append(parts, "mall="+t.MallName)
	}
	if t.Brand != "" {
		parts = append(parts, "brand="+t.Brand)
	}
	if len(parts) == 0 {
		return "(any)"
	}
	return strings.Join(parts, " ")
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

func init() {
	historyCmd.PersistentFlags().String("data-dir", "", "directory containing shoprank.db (default: history.data_dir or data)")

	historyListCmd.Flags().String("query", "", "only checks for this exact query")
	historyListCmd.Flags().String("mall", "", "only checks whose mall filter is exactly this")
	historyListCmd.Flags().Int("limit", 0, "maximum rows (0 = use default)")
	historyListCmd.Flags().Bool("json", false, "output as JSON")

	historyExportCmd.Flags().String("query", "", "only checks for this exact query")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyExportCmd)

	rootCmd.AddCommand(historyCmd)
}
