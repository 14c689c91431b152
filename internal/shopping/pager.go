// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package shopping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pdiddy/shoprank/pkg/types"
)

// ErrInvalidMaxPages is returned when a walk is asked for fewer than one page.
var ErrInvalidMaxPages = errors.New("max pages must be at least 1")

// Page is one successfully fetched page of results.
type Page struct {
	Number   int
	Start    int
	PageSize int
	Items    []types.Product
}

// Match returns the position of the item at index within the full result
// sequence.
func (p Page) Match(index int) types.Match {
	return types.Match{
		Page:       p.Number,
		RankInPage: index + 1,
		TotalRank:  types.TotalRank(p.Number, p.PageSize, index),
		Product:    p.Items[index],
	}
}

// Pager walks the pages of a query in order, one request at a time.
type Pager struct {
	Searcher Searcher
	PageSize int
	Sort     types.SortMode
	Logger   *slog.Logger
}

// Walk fetches pages 1..maxPages and calls fn for each page that was
// fetched. A page that fails is logged and skipped; the walk continues
// with the next page. Walk stops when fn returns false, when the next
// start offset would exceed MaxStart, or when ctx is done.
//
// It returns the number of pages attempted, including failed ones.
// Errors are returned only for invalid arguments and cancellation.
func (p *Pager) Walk(ctx context.Context, query string, maxPages int, fn func(Page) bool) (int, error) {
	if strings.TrimSpace(query) == "" {
		return 0, ErrEmptyQuery
	}
	if maxPages < 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidMaxPages, maxPages)
	}
	sort, err := types.ParseSortMode(string(p.Sort))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSort, err)
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pageSize := EffectivePageSize(p.PageSize)

	attempted := 0
	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return attempted, err
		}

		start := (page-1)*pageSize + 1
		if start > MaxStart {
			logger.Info("start offset limit reached",
				slog.Int("page", page), slog.Int("start", start), slog.Int("max_start", MaxStart))
			break
		}

		attempted++
		logger.Info("searching page", slog.Int("page", page), slog.Int("start", start))

		resp, err := p.Searcher.Search(ctx, Request{Query: query, Display: pageSize, Start: start, Sort: sort})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return attempted, ctxErr
			}
			logger.Warn("could not fetch page, skipping",
				slog.Int("page", page), slog.Any("error", err))
			continue
		}

		logger.Info("page fetched", slog.Int("page", page), slog.Int("items", len(resp.Items)))
		if !fn(Page{Number: page, Start: start, PageSize: pageSize, Items: resp.Items}) {
			break
		}
	}
	return attempted, nil
}
