package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "shoprank/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// Credentials are the two opaque tokens issued by the Naver developer center.
type Credentials struct {
	ClientID     string `json:"client_id" yaml:"client_id"`
	ClientSecret string `json:"-" yaml:"-"`
}

// IsComplete reports whether both tokens are present.
func (c Credentials) IsComplete() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// ShoppingConfig holds settings for the shopping search client.
type ShoppingConfig struct {
	HTTPConfig `yaml:",inline"`

	// Credentials authenticate every request.
	Credentials Credentials `json:"-" yaml:"-"`

	// PageSize is the display parameter sent per request (default and max 100).
	PageSize int `json:"page_size" yaml:"page_size"`

	// Sort is the result ordering (default sim).
	Sort SortMode `json:"sort" yaml:"sort"`

	// RequestDelay is the fixed wait after every API call (default 1s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// MaxRetries is the number of retries on HTTP 429. Zero disables retries.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// CacheSize is the number of pages kept in the in-memory page cache.
	// Zero disables caching.
	CacheSize int `json:"cache_size" yaml:"cache_size"`
}

// ExportConfig holds settings for the spreadsheet exporter.
type ExportConfig struct {
	// Dir is the directory generated spreadsheets are written to (default ".").
	Dir string `json:"dir" yaml:"dir"`
}

// HistoryConfig holds settings for the rank check history database.
type HistoryConfig struct {
	// DataDir is the directory that contains shoprank.db.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// MaxResults is the default number of rows returned by List (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// AllowOrigins lists CORS origins. Empty allows all.
	AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`

	// DefaultMaxPages applies when a request omits maxPages (default 10).
	DefaultMaxPages int `json:"default_max_pages" yaml:"default_max_pages"`
}

// Config groups all component configurations.
type Config struct {
	Shopping ShoppingConfig `json:"shopping" yaml:"shopping"`
	Export   ExportConfig   `json:"export" yaml:"export"`
	History  HistoryConfig  `json:"history" yaml:"history"`
	Server   ServerConfig   `json:"server" yaml:"server"`
}
