// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the shoprank CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/shoprank/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from the secrets directory at startup.
var loadedSecrets map[string]string

// logger is built from --verbose before any subcommand runs.
var logger = slog.New(slog.DiscardHandler)

// rootCmd is the base command for the shoprank CLI.
var rootCmd = &cobra.Command{
	Use:   "shoprank",
	Short: "Check product rankings in Naver Shopping search results",
	Long: `shoprank queries the Naver Shopping search API, walks the result pages,
and reports where a product ranks for a search query. Products are matched
by name, mall, or brand substrings.

Subcommands run a single rank check, export every listing for a query to an
.xlsx spreadsheet, run a batch of checks from a YAML job file, browse the
local check history, or serve the same operations over HTTP.

Credentials come from NAVER_CLIENT_ID and NAVER_CLIENT_SECRET, the config
file (naver.client_id, naver.client_secret), or files in .secrets/.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger = newLogger(verbose)

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, logger)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug("loaded secrets", slog.Any("keys", keys))
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./shoprank.yaml or ~/.config/shoprank/shoprank.yaml)")
	pf.BoolP("verbose", "v", false, "enable debug logging")
	pf.String("secrets-dir", ".secrets/", "directory holding naver-client-id and naver-client-secret files")
	pf.Duration("delay", defaultDelay, "wait after every API request")
	pf.String("sort", "sim", "result ordering: sim, date, asc, or dsc")
	pf.Int("retries", 0, "retries on HTTP 429 (0 = never retry)")
	pf.String("metrics-file", "", "write a Prometheus textfile snapshot of API metrics on exit")

	_ = viper.BindPFlag("shopping.request_delay", pf.Lookup("delay"))
	_ = viper.BindPFlag("shopping.sort", pf.Lookup("sort"))
	_ = viper.BindPFlag("shopping.max_retries", pf.Lookup("retries"))
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("shoprank")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "shoprank"))
		}
	}

	viper.SetEnvPrefix("SHOPRANK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// newLogger writes text logs to a terminal and JSON otherwise. Logs go to
// stderr so stdout stays clean for reports and JSON output.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isTerminal(os.Stderr) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
