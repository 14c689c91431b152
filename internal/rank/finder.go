// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank locates a target listing within the paginated results of a
// shopping search and reports its page and overall position.
package rank

import (
	"context"
	"log/slog"
	"time"

	"github.com/pdiddy/shoprank/internal/shopping"
	"github.com/pdiddy/shoprank/pkg/types"
)

// Finder runs rank checks against a Searcher.
type Finder struct {
	Searcher shopping.Searcher
	PageSize int
	Sort     types.SortMode
	Logger   *slog.Logger

	// Now stamps results; nil uses time.Now.
	Now func() time.Time
}

// AllMatches is the outcome of FindAll.
type AllMatches struct {
	Query         string        `json:"search_query" yaml:"search_query"`
	Target        types.Target  `json:"target" yaml:"target"`
	Matches       []types.Match `json:"matches" yaml:"matches"`
	SearchedPages int           `json:"searched_pages" yaml:"searched_pages"`
	Scanned       int           `json:"scanned" yaml:"scanned"`
}

// FindRank returns the first listing that matches target, scanning pages
// 1..maxPages in order. Pages that fail to fetch are skipped. When nothing
// matches, the result has Found=false and SearchedPages set to the number
// of pages attempted.
func (f *Finder) FindRank(ctx context.Context, query string, target types.Target, maxPages int) (types.RankResult, error) {
	logger := f.logger().With(slog.String("query", query))
	logger.Info("rank check started",
		slog.String("product_name", target.ProductName),
		slog.String("mall_name", target.MallName),
		slog.String("brand", target.Brand),
		slog.Int("max_pages", maxPages),
	)

	result := types.RankResult{Query: query, Target: target}
	attempted, err := f.pager(logger).Walk(ctx, query, maxPages, func(pg shopping.Page) bool {
		for i, p := range pg.Items {
			if !Matches(target, p) {
				continue
			}
			m := pg.Match(i)
			result.Found = true
			result.Page = m.Page
			result.RankInPage = m.RankInPage
			result.TotalRank = m.TotalRank
			result.Product = &m.Product
			return false
		}
		return true
	})
	result.SearchedPages = attempted
	result.CheckedAt = f.now()
	if err != nil {
		return result, err
	}

	if result.Found {
		logger.Info("product found",
			slog.Int("page", result.Page),
			slog.Int("rank_in_page", result.RankInPage),
			slog.Int("total_rank", result.TotalRank),
		)
	} else {
		logger.Info("product not found", slog.Int("searched_pages", attempted))
	}
	return result, nil
}

// FindAll returns every listing that matches target across pages
// 1..maxPages, in rank order.
func (f *Finder) FindAll(ctx context.Context, query string, target types.Target, maxPages int) (AllMatches, error) {
	logger := f.logger().With(slog.String("query", query))
	out := AllMatches{Query: query, Target: target}

	attempted, err := f.pager(logger).Walk(ctx, query, maxPages, func(pg shopping.Page) bool {
		out.Scanned += len(pg.Items)
		for i, p := range pg.Items {
			if Matches(target, p) {
				out.Matches = append(out.Matches, pg.Match(i))
			}
		}
		return true
	})
	out.SearchedPages = attempted
	if err != nil {
		return out, err
	}

	logger.Info("match scan finished",
		slog.Int("scanned", out.Scanned),
		slog.Int("matches", len(out.Matches)),
	)
	return out, nil
}

func (f *Finder) pager(logger *slog.Logger) *shopping.Pager {
	return &shopping.Pager{
		Searcher: f.Searcher,
		PageSize: f.PageSize,
		Sort:     f.Sort,
		Logger:   logger,
	}
}

func (f *Finder) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *Finder) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.New(slog.DiscardHandler)
}
