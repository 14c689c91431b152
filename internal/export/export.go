// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export collects every listing for a query, optionally narrowed to
// one mall, and writes them to an .xlsx spreadsheet.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tealeg/xlsx"

	"github.com/pdiddy/shoprank/internal/rank"
	"github.com/pdiddy/shoprank/internal/shopping"
	"github.com/pdiddy/shoprank/pkg/types"
)

// ErrNoRows is returned when no listing passed the filter, so no file is written.
var ErrNoRows = errors.New("no listings to export")

const (
	sheetName       = "검색결과"
	allMallsLabel   = "전체"
	timestampFmt    = "2006-01-02 15:04:05"
	filenameTimeFmt = "20060102_150405"
)

// Headers are the localized column titles, in column order.
var Headers = []string{
	"순위", "페이지", "페이지내_순위", "상품명", "쇼핑몰", "브랜드", "가격",
	"카테고리1", "카테고리2", "카테고리3", "상품ID", "상품링크", "검색어", "검색일시",
}

// Options describes one export run.
type Options struct {
	Query    string
	MallName string
	MaxPages int

	// Filename overrides the generated name. Relative names are joined to Dir.
	Filename string

	// Dir is where generated files go (default ".").
	Dir string
}

// Exporter fetches result pages and turns them into spreadsheet rows.
type Exporter struct {
	Searcher shopping.Searcher
	PageSize int
	Sort     types.SortMode
	Logger   *slog.Logger

	// Now stamps rows and generated filenames; nil uses time.Now.
	Now func() time.Time
}

// Collect fetches pages 1..maxPages and keeps every listing whose mall name
// contains mallName. No other filter applies. Failed pages are skipped.
func (e *Exporter) Collect(ctx context.Context, query, mallName string, maxPages int) ([]types.ExportRow, error) {
	logger := e.logger().With(slog.String("query", query))
	logger.Info("collecting listings for export",
		slog.String("mall_name", mallName), slog.Int("max_pages", maxPages))

	pager := &shopping.Pager{Searcher: e.Searcher, PageSize: e.PageSize, Sort: e.Sort, Logger: logger}

	var rows []types.ExportRow
	_, err := pager.Walk(ctx, query, maxPages, func(pg shopping.Page) bool {
		for i, p := range pg.Items {
			if !rank.MatchesMall(mallName, p) {
				continue
			}
			m := pg.Match(i)
			rows = append(rows, types.NewExportRow(query, m, e.now()))
			logger.Debug("listing kept",
				slog.Int("count", len(rows)),
				slog.Int("page", m.Page),
				slog.Int("rank_in_page", m.RankInPage),
				slog.String("title", m.Product.Title),
			)
		}
		return true
	})
	if err != nil {
		return rows, err
	}
	return rows, nil
}

// Export collects listings and writes them to a spreadsheet, returning the
// absolute path of the file. It returns ErrNoRows, without writing, when
// nothing was kept.
func (e *Exporter) Export(ctx context.Context, opts Options) (string, error) {
	logger := e.logger().With(slog.String("query", opts.Query))

	rows, err := e.Collect(ctx, opts.Query, opts.MallName, opts.MaxPages)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		logger.Warn("no listings to export")
		return "", ErrNoRows
	}

	name := opts.Filename
	if name == "" {
		name = DefaultFilename(opts.Query, opts.MallName, e.now())
	}
	path := name
	if !filepath.IsAbs(path) {
		dir := opts.Dir
		if dir == "" {
			dir = "."
		}
		path = filepath.Join(dir, name)
	}

	if err := WriteFile(path, rows); err != nil {
		logger.Error("writing spreadsheet failed", slog.String("path", path), slog.Any("error", err))
		return "", err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	logger.Info("spreadsheet written", slog.String("path", abs), slog.Int("rows", len(rows)))
	return abs, nil
}

// DefaultFilename builds "{query}_{mall}_{YYYYMMDD_HHMMSS}.xlsx", using
// "전체" when no mall filter is set. Characters that are unsafe in file
// names are replaced with underscores.
func DefaultFilename(query, mallName string, at time.Time) string {
	if strings.TrimSpace(mallName) == "" {
		mallName = allMallsLabel
	}
	return fmt.Sprintf("%s_%s_%s.xlsx", sanitize(query), sanitize(mallName), at.Format(filenameTimeFmt))
}

var unsafeFilenameChars = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_", `"`, "_", "<", "_", ">", "_", "|", "_",
)

func sanitize(s string) string {
	return unsafeFilenameChars.Replace(strings.TrimSpace(s))
}

// Build renders rows into a workbook with a single sheet.
func Build(rows []types.ExportRow) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("adding sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range Headers {
		header.AddCell().SetString(h)
	}

	for _, r := range rows {
		row := sheet.AddRow()
		row.AddCell().SetInt(r.Rank)
		row.AddCell().SetInt(r.Page)
		row.AddCell().SetInt(r.RankInPage)
		for _, s := range []string{
			r.Title, r.MallName, r.Brand, r.Price,
			r.Category1, r.Category2, r.Category3,
			r.ProductID, r.Link, r.Query,
			r.GeneratedAt.Format(timestampFmt),
		} {
			row.AddCell().SetString(s)
		}
	}
	return file, nil
}

// Write renders rows as an .xlsx document to w.
func Write(w io.Writer, rows []types.ExportRow) error {
	file, err := Build(rows)
	if err != nil {
		return err
	}
	if err := file.Write(w); err != nil {
		return fmt.Errorf("writing spreadsheet: %w", err)
	}
	return nil
}

// WriteFile renders rows to path, creating parent directories. The file is
// written to a temporary name first and renamed on success.
func WriteFile(path string, rows []types.ExportRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}
	if err := Write(f, rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming to %s: %w", path, err)
	}
	return nil
}

func (e *Exporter) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.DiscardHandler)
}
