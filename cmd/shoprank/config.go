package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/shoprank/internal/secrets"
	"github.com/pdiddy/shoprank/internal/shopping"
	"github.com/pdiddy/shoprank/pkg/types"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultDelay     = 1 * time.Second
	defaultUserAgent = "shoprank/0.1"
	defaultMaxPages  = 10
)

func setDefaults() {
	viper.SetDefault("shopping.timeout", defaultTimeout)
	viper.SetDefault("shopping.user_agent", defaultUserAgent)
	viper.SetDefault("shopping.page_size", shopping.MaxDisplay)
	viper.SetDefault("shopping.cache_size", 64)
	viper.SetDefault("export.dir", ".")
	viper.SetDefault("history.data_dir", "data")
	viper.SetDefault("history.max_results", 20)
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.default_max_pages", defaultMaxPages)
}

// loadConfig assembles the typed configuration from viper (flags, env,
// config file, defaults) and resolves the API credentials.
func loadConfig() (types.Config, error) {
	sortMode, err := types.ParseSortMode(viper.GetString("shopping.sort"))
	if err != nil {
		return types.Config{}, err
	}

	cfg := types.Config{
		Shopping: types.ShoppingConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("shopping.timeout"),
				UserAgent: viper.GetString("shopping.user_agent"),
			},
			PageSize:     viper.GetInt("shopping.page_size"),
			Sort:         sortMode,
			RequestDelay: viper.GetDuration("shopping.request_delay"),
			MaxRetries:   viper.GetInt("shopping.max_retries"),
			CacheSize:    viper.GetInt("shopping.cache_size"),
		},
		Export: types.ExportConfig{
			Dir: viper.GetString("export.dir"),
		},
		History: types.HistoryConfig{
			DataDir:    viper.GetString("history.data_dir"),
			MaxResults: viper.GetInt("history.max_results"),
		},
		Server: types.ServerConfig{
			Addr:            viper.GetString("server.addr"),
			AllowOrigins:    viper.GetStringSlice("server.allow_origins"),
			DefaultMaxPages: viper.GetInt("server.default_max_pages"),
		},
	}

	configured := types.Credentials{
		ClientID:     viper.GetString("naver.client_id"),
		ClientSecret: viper.GetString("naver.client_secret"),
	}
	creds, err := secrets.Resolve(os.Getenv, configured, loadedSecrets)
	if err != nil {
		return cfg, err
	}
	cfg.Shopping.Credentials = creds
	return cfg, nil
}

// newSearchClient builds the API client and its metrics from cfg.
func newSearchClient(cfg types.ShoppingConfig) (*shopping.Client, *shopping.Metrics, error) {
	metrics := shopping.NewMetrics()
	client, err := shopping.NewClient(nil, cfg, logger, metrics)
	if err != nil {
		return nil, nil, fmt.Errorf("creating search client: %w", err)
	}
	return client, metrics, nil
}

// writeMetrics saves a textfile snapshot when --metrics-file is set.
func writeMetrics(cmd *cobra.Command, metrics *shopping.Metrics) {
	path, _ := cmd.Flags().GetString("metrics-file")
	if path == "" {
		return
	}
	if err := metrics.WriteTextfile(path); err != nil {
		logger.Warn("writing metrics file", slog.String("path", path), slog.Any("error", err))
		return
	}
	logger.Debug("metrics written", slog.String("path", path))
}

// maxPagesFlag reads --max-pages and rejects non-positive values.
func maxPagesFlag(cmd *cobra.Command) (int, error) {
	n, _ := cmd.Flags().GetInt("max-pages")
	if n < 1 {
		return 0, fmt.Errorf("--max-pages must be at least 1, got %d", n)
	}
	return n, nil
}
