// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package shopping queries the Naver Shopping search API one page at a time
// and normalizes the returned listings.
package shopping

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/shoprank/internal/httputil"
	"github.com/pdiddy/shoprank/pkg/types"
)

// shopAPIBase is the shopping search endpoint. Declared as a var so tests
// can substitute an httptest server.
var shopAPIBase = "https://openapi.naver.com/v1/search/shop.json"

const (
	// MaxDisplay is the largest page size the API accepts.
	MaxDisplay = 100

	// MaxStart is the largest start offset the API accepts.
	MaxStart = 1000

	headerClientID     = "X-Naver-Client-Id"
	headerClientSecret = "X-Naver-Client-Secret"

	maxErrorBody = 4 << 10
)

// Request holds the parameters of one page fetch.
type Request struct {
	Query   string
	Display int
	Start   int
	Sort    types.SortMode
}

// Response is one page of normalized listings.
type Response struct {
	LastBuildDate string
	Total         int
	Start         int
	Display       int
	Items         []types.Product
}

// Searcher fetches one page of search results. The rank finder and the
// exporter depend on this interface rather than on Client.
type Searcher interface {
	Search(ctx context.Context, req Request) (*Response, error)
}

// Client calls the shopping search API. After every network call it waits
// Config.RequestDelay to stay within the vendor's rate limit.
type Client struct {
	HTTP    *http.Client
	Config  types.ShoppingConfig
	Logger  *slog.Logger
	Metrics *Metrics
	Cache   *PageCache
}

// NewClient builds a Client and its page cache from cfg.
func NewClient(httpClient *http.Client, cfg types.ShoppingConfig, logger *slog.Logger, metrics *Metrics) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	cache, err := NewPageCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Client{
		HTTP:    httpClient,
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Cache:   cache,
	}, nil
}

// PageSize returns the effective display value used for full pages.
func (c *Client) PageSize() int {
	return EffectivePageSize(c.Config.PageSize)
}

// EffectivePageSize maps a configured page size onto [1, MaxDisplay];
// zero or out-of-range values become MaxDisplay.
func EffectivePageSize(n int) int {
	if n <= 0 || n > MaxDisplay {
		return MaxDisplay
	}
	return n
}

// Normalize fills defaults from cfg and validates the request.
func (r Request) Normalize(cfg types.ShoppingConfig) (Request, error) {
	r.Query = strings.TrimSpace(r.Query)
	if r.Query == "" {
		return r, ErrEmptyQuery
	}

	if r.Display <= 0 {
		r.Display = cfg.PageSize
	}
	r.Display = EffectivePageSize(r.Display)

	if r.Start == 0 {
		r.Start = 1
	}
	if r.Start < 1 || r.Start > MaxStart {
		return r, fmt.Errorf("%w: got %d", ErrStartOutOfRange, r.Start)
	}

	if r.Sort == "" {
		r.Sort = cfg.Sort
	}
	sort, err := types.ParseSortMode(string(r.Sort))
	if err != nil {
		return r, fmt.Errorf("%w: %v", ErrInvalidSort, err)
	}
	r.Sort = sort
	return r, nil
}

// Search fetches one page. Invalid requests fail without a network call.
// Cached pages are returned without a network call or delay.
func (c *Client) Search(ctx context.Context, req Request) (*Response, error) {
	req, err := req.Normalize(c.Config)
	if err != nil {
		return nil, err
	}
	logger := c.logger().With(slog.String("query", req.Query), slog.Int("start", req.Start))

	if resp, ok := c.Cache.Get(req); ok {
		c.Metrics.IncCacheHit()
		logger.Debug("page served from cache", slog.Int("items", len(resp.Items)))
		return resp, nil
	}

	began := time.Now()
	resp, err := c.fetch(ctx, req, logger)
	elapsed := time.Since(began)
	c.pause(ctx)

	if err != nil {
		c.Metrics.ObserveRequest("error", elapsed)
		c.Metrics.IncError(errorTypeLabel(err))
		logger.Error("shopping API request failed", slog.Any("error", err))
		return nil, err
	}

	c.Metrics.ObserveRequest("ok", elapsed)
	c.Metrics.AddItems(len(resp.Items))
	c.Cache.Add(req, resp)
	logger.Debug("page fetched", slog.Int("items", len(resp.Items)), slog.Int("total", resp.Total))
	return resp, nil
}

func (c *Client) fetch(ctx context.Context, req Request, logger *slog.Logger) (*Response, error) {
	params := url.Values{
		"query":   {req.Query},
		"display": {strconv.Itoa(req.Display)},
		"start":   {strconv.Itoa(req.Start)},
		"sort":    {string(req.Sort)},
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, shopAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set(headerClientID, c.Config.Credentials.ClientID)
	httpReq.Header.Set(headerClientSecret, c.Config.Credentials.ClientSecret)
	httpReq.Header.Set("Accept", "application/json")
	if c.Config.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.Config.UserAgent)
	}

	httpResp, err := httputil.DoWithRetry(ctx, c.httpClient(), httpReq, c.Config.MaxRetries, logger,
		func(int, time.Duration) { c.Metrics.IncRetries() })
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, newStatusError(httpResp)
	}

	var raw apiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingItems
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw.Items == nil {
		return nil, ErrMissingItems
	}

	resp := &Response{
		LastBuildDate: raw.LastBuildDate,
		Total:         raw.Total,
		Start:         raw.Start,
		Display:       raw.Display,
		Items:         make([]types.Product, 0, len(*raw.Items)),
	}
	for _, it := range *raw.Items {
		resp.Items = append(resp.Items, it.Normalize())
	}
	return resp, nil
}

func newStatusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	se := &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	var ae apiError
	if json.Unmarshal(body, &ae) == nil {
		se.Code = ae.ErrorCode
		se.Message = ae.ErrorMessage
	}
	return se
}

// pause waits the configured delay, returning early if ctx is done.
func (c *Client) pause(ctx context.Context) {
	if c.Config.RequestDelay <= 0 {
		return
	}
	t := time.NewTimer(c.Config.RequestDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}
