// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists rank check results in a local SQLite database
// so rank movements can be reviewed over time.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/shoprank/pkg/types"
)

const (
	dbFile = "shoprank.db"

	// Fixed-width UTC timestamps sort lexically in checked_at order.
	timeFmt = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNotFound is returned when a record id does not exist.
var ErrNotFound = errors.New("history record not found")

// Record is a stored rank check.
type Record struct {
	ID int64 `json:"id" yaml:"id"`
	types.RankResult `yaml:",inline"`
}

// Filter narrows List results.
type Filter struct {
	// Query restricts results to one search query (exact match).
	Query string

	// MallName restricts results to one target mall filter (exact match).
	MallName string

	// Limit caps the number of rows. Zero uses the store default.
	Limit int
}

// Store manages the history SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the database at cfg.DataDir/shoprank.db and
// creates the schema if it does not exist.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	dir := cfg.DataDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, dbFile)+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS rank_checks (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			search_query TEXT NOT NULL,
			target_product_name TEXT NOT NULL DEFAULT '',
			target_mall_name TEXT NOT NULL DEFAULT '',
			target_brand TEXT NOT NULL DEFAULT '',
			found INTEGER NOT NULL,
			page INTEGER,
			rank_in_page INTEGER,
			total_rank INTEGER,
			searched_pages INTEGER NOT NULL,
			product_title TEXT,
			mall_name TEXT,
			brand TEXT,
			maker TEXT,
			price TEXT,
			product_link TEXT,
			product_id TEXT,
			category1 TEXT,
			category2 TEXT,
			category3 TEXT,
			checked_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rank_checks_query ON rank_checks(search_query)`,
		`CREATE INDEX IF NOT EXISTS idx_rank_checks_checked_at ON rank_checks(checked_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Save stores r, replacing any earlier result for the same query and
// target filters. It returns the new record id.
func (s *Store) Save(ctx context.Context, r types.RankResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM rank_checks
		 WHERE search_query = ? AND target_product_name = ? AND target_mall_name = ? AND target_brand = ?`,
		r.Query, r.Target.ProductName, r.Target.MallName, r.Target.Brand,
	); err != nil {
		return 0, fmt.Errorf("deleting previous results: %w", err)
	}

	checkedAt := r.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now()
	}

	var p types.Product
	if r.Product != nil {
		p = *r.Product
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO rank_checks (
			search_query, target_product_name, target_mall_name, target_brand,
			found, page, rank_in_page, total_rank, searched_pages,
			product_title, mall_name, brand, maker, price, product_link, product_id,
			category1, category2, category3, checked_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Query, r.Target.ProductName, r.Target.MallName, r.Target.Brand,
		r.Found, r.Page, r.RankInPage, r.TotalRank, r.SearchedPages,
		p.Title, p.MallName, p.Brand, p.Maker, p.LowPrice, p.Link, p.ProductID,
		p.Category1, p.Category2, p.Category3, checkedAt.UTC().Format(timeFmt),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting result: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading record id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing result: %w", err)
	}
	return id, nil
}

const selectColumns = `id, search_query, target_product_name, target_mall_name, target_brand,
	found, page, rank_in_page, total_rank, searched_pages,
	product_title, mall_name, brand, maker, price, product_link, product_id,
	category1, category2, category3, checked_at`

// List returns stored results, most recent first.
func (s *Store) List(ctx context.Context, f Filter) ([]Record, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = s.maxResults
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(`SELECT ` + selectColumns + ` FROM rank_checks WHERE 1=1`)
	if f.Query != "" {
		qb.WriteString(` AND search_query = ?`)
		args = append(args, f.Query)
	}
	if f.MallName != "" {
		qb.WriteString(` AND target_mall_name = ?`)
		args = append(args, f.MallName)
	}
	qb.WriteString(` ORDER BY checked_at DESC, id DESC LIMIT ?`)
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Get returns one record by id.
func (s *Store) Get(ctx context.Context, id int64) (Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM rank_checks WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return rec, err
}

// Delete removes one record by id.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rank_checks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting record %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting record %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (Record, error) {
	var (
		rec                       Record
		page, rankInPage, total   sql.NullInt64
		title, mall, brand, maker sql.NullString
		price, link, productID    sql.NullString
		cat1, cat2, cat3          sql.NullString
		checkedAt                 string
	)
	err := sc.Scan(
		&rec.ID, &rec.Query, &rec.Target.ProductName, &rec.Target.MallName, &rec.Target.Brand,
		&rec.Found, &page, &rankInPage, &total, &rec.SearchedPages,
		&title, &mall, &brand, &maker, &price, &link, &productID,
		&cat1, &cat2, &cat3, &checkedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("scanning record: %w", err)
	}

	if t, parseErr := time.Parse(timeFmt, checkedAt); parseErr == nil {
		rec.CheckedAt = t
	}
	if rec.Found {
		rec.Page = int(page.Int64)
		rec.RankInPage = int(rankInPage.Int64)
		rec.TotalRank = int(total.Int64)
		rec.Product = &types.Product{
			Title:     title.String,
			MallName:  mall.String,
			Brand:     brand.String,
			Maker:     maker.String,
			LowPrice:  price.String,
			Link:      link.String,
			ProductID: productID.String,
			Category1: cat1.String,
			Category2: cat2.String,
			Category3: cat3.String,
		}
	}
	return rec, nil
}
