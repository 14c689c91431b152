// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes rank checks, history and spreadsheet export over
// a JSON HTTP API.
package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdiddy/shoprank/internal/export"
	"github.com/pdiddy/shoprank/internal/history"
	"github.com/pdiddy/shoprank/internal/shopping"
	"github.com/pdiddy/shoprank/pkg/types"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RankFinder runs a single rank check.
type RankFinder interface {
	FindRank(ctx context.Context, query string, target types.Target, maxPages int) (types.RankResult, error)
}

// RowCollector gathers export rows for a query and mall filter.
type RowCollector interface {
	Collect(ctx context.Context, query, mallName string, maxPages int) ([]types.ExportRow, error)
}

// HistoryStore persists, lists and deletes rank checks.
type HistoryStore interface {
	Save(ctx context.Context, r types.RankResult) (int64, error)
	List(ctx context.Context, f history.Filter) ([]history.Record, error)
	Delete(ctx context.Context, id int64) error
}

// Server wires the API handlers to their dependencies.
type Server struct {
	Finder   RankFinder
	Exporter RowCollector

	// History is optional; without it searches are not saved and
	// /api/results answers 503.
	History HistoryStore

	// Gatherer backs /metrics; nil omits the route.
	Gatherer prometheus.Gatherer

	Config types.ServerConfig
	Logger *slog.Logger
	Now    func() time.Time
}

type searchRequest struct {
	SearchQuery       string `json:"searchQuery"`
	TargetProductName string `json:"targetProductName"`
	TargetMallName    string `json:"targetMallName"`
	TargetBrand       string `json:"targetBrand"`
	MaxPages          int    `json:"maxPages"`
}

type searchResponse struct {
	Success bool             `json:"success"`
	Data    types.RankResult `json:"data"`
	SavedID int64            `json:"savedId,omitempty"`
	Message string           `json:"message,omitempty"`
}

// Handler builds the gin engine.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger()))
	r.Use(cors.New(s.corsConfig()))

	api := r.Group("/api")
	api.GET("/health", s.health)
	api.POST("/search", s.search)
	api.GET("/results", s.results)
	api.DELETE("/results", s.deleteResult)
	api.POST("/export", s.export)

	if s.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := s.Config.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger().Info("api server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger().Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	}
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	if len(s.Config.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.Config.AllowOrigins
	}
	cfg.ExposeHeaders = []string{"Content-Disposition"}
	return cfg
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SearchQuery = strings.TrimSpace(req.SearchQuery)
	if req.SearchQuery == "" {
		abort(c, http.StatusBadRequest, "searchQuery is required")
		return
	}
	maxPages, ok := s.maxPages(c, req.MaxPages)
	if !ok {
		return
	}

	target := types.Target{
		ProductName: req.TargetProductName,
		MallName:    req.TargetMallName,
		Brand:       req.TargetBrand,
	}
	result, err := s.Finder.FindRank(c.Request.Context(), req.SearchQuery, target, maxPages)
	if err != nil {
		s.fail(c, "rank check failed", err)
		return
	}

	resp := searchResponse{Success: true, Data: result}
	if !result.Found {
		resp.Message = "product not found in search results"
	}
	if s.History != nil {
		id, err := s.History.Save(c.Request.Context(), result)
		if err != nil {
			s.logger().Error("saving rank check", slog.String("query", result.Query), slog.Any("error", err))
			abort(c, http.StatusInternalServerError, "could not save result")
			return
		}
		resp.SavedID = id
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) results(c *gin.Context) {
	if s.History == nil {
		abort(c, http.StatusServiceUnavailable, "history is not configured")
		return
	}

	query := c.Query("query")
	if query == "" {
		query = c.Query("searchQuery")
	}
	f := history.Filter{
		Query:    strings.TrimSpace(query),
		MallName: strings.TrimSpace(c.Query("targetMallName")),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			abort(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		f.Limit = n
	}

	records, err := s.History.List(c.Request.Context(), f)
	if err != nil {
		s.fail(c, "listing history", err)
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": records})
}

func (s *Server) deleteResult(c *gin.Context) {
	if s.History == nil {
		abort(c, http.StatusServiceUnavailable, "history is not configured")
		return
	}

	raw := c.Query("id")
	if raw == "" {
		abort(c, http.StatusBadRequest, "id is required")
		return
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		abort(c, http.StatusBadRequest, "id must be an integer")
		return
	}

	if err := s.History.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, history.ErrNotFound) {
			abort(c, http.StatusNotFound, err.Error())
			return
		}
		s.fail(c, "deleting history record", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "record deleted"})
}

func (s *Server) export(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SearchQuery = strings.TrimSpace(req.SearchQuery)
	if req.SearchQuery == "" {
		abort(c, http.StatusBadRequest, "searchQuery is required")
		return
	}
	maxPages, ok := s.maxPages(c, req.MaxPages)
	if !ok {
		return
	}

	rows, err := s.Exporter.Collect(c.Request.Context(), req.SearchQuery, req.TargetMallName, maxPages)
	if err != nil {
		s.fail(c, "collecting export rows", err)
		return
	}
	if len(rows) == 0 {
		abort(c, http.StatusNotFound, "no matching products to export")
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, rows); err != nil {
		s.fail(c, "writing spreadsheet", err)
		return
	}

	name := export.DefaultFilename(req.SearchQuery, req.TargetMallName, s.now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="export.xlsx"; filename*=UTF-8''%s`, url.PathEscape(name)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// maxPages applies the configured default and rejects negative values.
func (s *Server) maxPages(c *gin.Context, n int) (int, bool) {
	switch {
	case n < 0:
		abort(c, http.StatusBadRequest, "maxPages must be positive")
		return 0, false
	case n == 0:
		if s.Config.DefaultMaxPages > 0 {
			return s.Config.DefaultMaxPages, true
		}
		return 10, true
	default:
		return n, true
	}
}

func (s *Server) fail(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, shopping.ErrEmptyQuery), errors.Is(err, shopping.ErrInvalidMaxPages),
		errors.Is(err, shopping.ErrInvalidSort):
		status = http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		status = 499
	}
	s.logger().Error(msg, slog.Int("status", status), slog.Any("error", err))
	abort(c, status, fmt.Sprintf("%s: %v", msg, err))
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "error": msg})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Server) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}
