// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for shoprank: normalized
// shopping listings, rank check results, export rows, and configuration.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Product is a normalized shopping listing returned by the search API.
// Title has HTML markup removed and entities decoded.
type Product struct {
	Title       string `json:"title" yaml:"title"`
	Link        string `json:"link" yaml:"link"`
	Image       string `json:"image" yaml:"image"`
	LowPrice    string `json:"lprice" yaml:"lprice"`
	HighPrice   string `json:"hprice" yaml:"hprice"`
	MallName    string `json:"mall_name" yaml:"mall_name"`
	ProductID   string `json:"product_id" yaml:"product_id"`
	ProductType string `json:"product_type" yaml:"product_type"`
	Brand       string `json:"brand" yaml:"brand"`
	Maker       string `json:"maker" yaml:"maker"`
	Category1   string `json:"category1" yaml:"category1"`
	Category2   string `json:"category2" yaml:"category2"`
	Category3   string `json:"category3" yaml:"category3"`
	Category4   string `json:"category4" yaml:"category4"`
}

// DisplayBrand returns the brand, falling back to the maker when the
// listing has no brand.
func (p Product) DisplayBrand() string {
	if p.Brand != "" {
		return p.Brand
	}
	return p.Maker
}

// SortMode selects the ordering of search results.
type SortMode string

const (
	SortSimilarity SortMode = "sim"
	SortDate       SortMode = "date"
	SortPriceAsc   SortMode = "asc"
	SortPriceDesc  SortMode = "dsc"
)

// ParseSortMode validates s. An empty string yields SortSimilarity.
func ParseSortMode(s string) (SortMode, error) {
	switch m := SortMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return SortSimilarity, nil
	case SortSimilarity, SortDate, SortPriceAsc, SortPriceDesc:
		return m, nil
	default:
		return "", fmt.Errorf("unsupported sort mode %q: use sim, date, asc, or dsc", s)
	}
}

// Target holds the optional filters that identify the listing being ranked.
// Empty fields are ignored.
type Target struct {
	ProductName string `json:"product_name,omitempty" yaml:"product_name,omitempty"`
	MallName    string `json:"mall_name,omitempty" yaml:"mall_name,omitempty"`
	Brand       string `json:"brand,omitempty" yaml:"brand,omitempty"`
}

// IsEmpty reports whether no filter is set.
func (t Target) IsEmpty() bool {
	return t.ProductName == "" && t.MallName == "" && t.Brand == ""
}

// Match locates a listing within the page-concatenated result sequence.
type Match struct {
	Page       int     `json:"page" yaml:"page"`
	RankInPage int     `json:"rank_in_page" yaml:"rank_in_page"`
	TotalRank  int     `json:"total_rank" yaml:"total_rank"`
	Product    Product `json:"product" yaml:"product"`
}

// RankResult is the outcome of a rank check. When Found is false, Page,
// RankInPage, TotalRank and Product are zero and SearchedPages reports how
// many pages were attempted.
type RankResult struct {
	Found         bool      `json:"found" yaml:"found"`
	Query         string    `json:"search_query" yaml:"search_query"`
	Target        Target    `json:"target" yaml:"target"`
	Page          int       `json:"page,omitempty" yaml:"page,omitempty"`
	RankInPage    int       `json:"rank_in_page,omitempty" yaml:"rank_in_page,omitempty"`
	TotalRank     int       `json:"total_rank,omitempty" yaml:"total_rank,omitempty"`
	Product       *Product  `json:"product_info,omitempty" yaml:"product_info,omitempty"`
	SearchedPages int       `json:"searched_pages" yaml:"searched_pages"`
	CheckedAt     time.Time `json:"checked_at" yaml:"checked_at"`
}

// TotalRank computes the 1-based position of the item at index within
// page, for pages of pageSize items.
func TotalRank(page, pageSize, index int) int {
	return (page-1)*pageSize + index + 1
}

// ExportRow is one spreadsheet row: a flattened listing plus its rank.
type ExportRow struct {
	Rank        int       `json:"rank" yaml:"rank"`
	Page        int       `json:"page" yaml:"page"`
	RankInPage  int       `json:"rank_in_page" yaml:"rank_in_page"`
	Title       string    `json:"title" yaml:"title"`
	MallName    string    `json:"mall_name" yaml:"mall_name"`
	Brand       string    `json:"brand" yaml:"brand"`
	Price       string    `json:"price" yaml:"price"`
	Category1   string    `json:"category1" yaml:"category1"`
	Category2   string    `json:"category2" yaml:"category2"`
	Category3   string    `json:"category3" yaml:"category3"`
	ProductID   string    `json:"product_id" yaml:"product_id"`
	Link        string    `json:"link" yaml:"link"`
	Query       string    `json:"search_query" yaml:"search_query"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}

// NewExportRow flattens a match into a row stamped with generatedAt.
func NewExportRow(query string, m Match, generatedAt time.Time) ExportRow {
	return ExportRow{
		Rank:        m.TotalRank,
		Page:        m.Page,
		RankInPage:  m.RankInPage,
		Title:       m.Product.Title,
		MallName:    m.Product.MallName,
		Brand:       m.Product.DisplayBrand(),
		Price:       m.Product.LowPrice,
		Category1:   m.Product.Category1,
		Category2:   m.Product.Category2,
		Category3:   m.Product.Category3,
		ProductID:   m.Product.ProductID,
		Link:        m.Product.Link,
		Query:       query,
		GeneratedAt: generatedAt,
	}
}
