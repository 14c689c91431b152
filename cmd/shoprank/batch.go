// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/shoprank/internal/batch"
	"github.com/pdiddy/shoprank/internal/history"
	"github.com/pdiddy/shoprank/internal/rank"
)

var batchCmd = &cobra.Command{
	Use:   "batch <job-file>",
	Short: "Run rank checks listed in a YAML job file",
	Long: `Batch reads a YAML job file and runs each check in order, one at a time.

  defaults:
    max_pages: 5
  checks:
    - name: tumbler on CoolMall
      query: tumbler
      mall_name: CoolMall
    - query: stainless mug
      brand: Stanley
      max_pages: 3

Results are saved to the history database unless --no-save is set, and can
be written to a YAML results file with --output.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringP("output", "o", "", "write outcomes to this YAML file")
	batchCmd.Flags().Bool("no-save", false, "do not record results in the history database")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	jf, err := batch.ReadJobFile(args[0])
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

	runner := &batch.Runner{
		Finder: &rank.Finder{
			Searcher: client,
			PageSize: client.PageSize(),
			Sort:     cfg.Shopping.Sort,
			Logger:   logger,
		},
		Out:    os.Stdout,
		Logger: logger,
	}
	if noSave, _ := cmd.Flags().GetBool("no-save"); !noSave {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			return err
		}
		defer store.Close()
		runner.Recorder = store
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rf, runErr := runner.Run(ctx, jf)
	if output, _ := cmd.Flags().GetString("output"); output != "" && rf != nil {
		if err := batch.WriteResultsFile(output, rf); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Results written to %s\n", output)
	}
	if runErr != nil {
		return runErr
	}

	s := rf.Summary
	fmt.Fprintf(os.Stdout, "\n%d checks: %d found, %d not found, %d failed\n",
		s.Total(), s.Found, s.NotFound, s.Failed)
	if s.Failed > 0 {
		return fmt.Errorf("%d check(s) failed", s.Failed)
	}
	return nil
}
