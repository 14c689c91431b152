// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/shoprank/internal/shopping"
	"github.com/pdiddy/shoprank/internal/shopping/shoppingtest"
	"github.com/pdiddy/shoprank/pkg/types"
)

var fixedNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func newFinder(s shopping.Searcher) *Finder {
	return &Finder{Searcher: s, PageSize: 100, Now: func() time.Time { return fixedNow }}
}

// --- Matching ---

func TestMatches(t *testing.T) {
	p := types.Product{
		Title:    "Stanley Quencher Tumbler 887ml",
		MallName: "CoolMall Official",
		Brand:    "",
		Maker:    "Stanley",
	}
	tests := []struct {
		name   string
		target types.Target
		want   bool
	}{
		{"no filters", types.Target{}, true},
		{"whitespace filters are ignored", types.Target{MallName: "  "}, true},
		{"name substring case-insensitive", types.Target{ProductName: "quencher tumbler"}, true},
		{"name mismatch", types.Target{ProductName: "mug"}, false},
		{"mall substring", types.Target{MallName: "coolmall"}, true},
		{"mall mismatch", types.Target{MallName: "HotMall"}, false},
		{"brand falls back to maker", types.Target{Brand: "STANLEY"}, true},
		{"brand mismatch", types.Target{Brand: "Yeti"}, false},
		{"all filters must match", types.Target{ProductName: "tumbler", MallName: "CoolMall", Brand: "Yeti"}, false},
		{"all filters match", types.Target{ProductName: "tumbler", MallName: "CoolMall", Brand: "stanley"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.target, p))
		})
	}
}

func TestMatchesWhitespaceFilterIsUnset(t *testing.T) {
	p := types.Product{Title: "Tumbler", MallName: "CoolMall", Maker: "Stanley"}
	assert.True(t, Matches(types.Target{ProductName: " "}, p))
	assert.True(t, Matches(types.Target{ProductName: "\t", Brand: " "}, p))
	assert.False(t, Matches(types.Target{ProductName: " ", MallName: "HotMall"}, p))
}

func TestMatchesKorean(t *testing.T) {
	p := types.Product{Title: "스탠리 퀜처 텀블러", MallName: "쿨몰 공식스토어"}
	assert.True(t, Matches(types.Target{ProductName: "텀블러", MallName: "쿨몰"}, p))
	assert.False(t, MatchesMall("핫몰", p))
	assert.True(t, MatchesMall("", p))
}

// --- FindRank ---

func TestFindRankFoundOnFirstPage(t *testing.T) {
	fake := &shoppingtest.Fake{Pages: map[int][]types.Product{
		1: shoppingtest.Products(1, 100, func(i int) string {
			if i == 41 {
				return "CoolMall Official"
			}
			return "Other Mall"
		}),
	}}

	got, err := newFinder(fake).FindRank(context.Background(), "tumbler", types.Target{MallName: "CoolMall"}, 3)
	require.NoError(t, err)

	assert.True(t, got.Found)
	assert.Equal(t, 1, got.Page)
	assert.Equal(t, 42, got.RankInPage)
	assert.Equal(t, 42, got.TotalRank)
	require.NotNil(t, got.Product)
	assert.Equal(t, "CoolMall Official", got.Product.MallName)
	assert.Equal(t, "tumbler", got.Query)
	assert.Equal(t, fixedNow, got.CheckedAt)
	// Search stops at the first match.
	assert.Equal(t, []int{1}, fake.Starts())
}

func TestFindRankOverallRankOnLaterPage(t *testing.T) {
	fake := &shoppingtest.Fake{Pages: map[int][]types.Product{
		1:   shoppingtest.Products(1, 100, nil),
		101: shoppingtest.Products(101, 100, nil),
		201: shoppingtest.Products(201, 100, func(i int) string {
			if i >= 7 {
				return "Target Store"
			}
			return "Other"
		}),
	}}

	got, err := newFinder(fake).FindRank(context.Background(), "tumbler", types.Target{MallName: "target store"}, 5)
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, 3, got.Page)
	assert.Equal(t, 8, got.RankInPage)
	assert.Equal(t, (3-1)*100+8, got.TotalRank)
	assert.Equal(t, 3, got.SearchedPages)
}

func TestFindRankNotFound(t *testing.T) {
	fake := &shoppingtest.Fake{Pages: map[int][]types.Product{
		1:   shoppingtest.Products(1, 100, nil),
		101: shoppingtest.Products(101, 100, nil),
		201: shoppingtest.Products(201, 100, nil),
	}}

	got, err := newFinder(fake).FindRank(context.Background(), "tumbler", types.Target{MallName: "CoolMall"}, 3)
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.Equal(t, 3, got.SearchedPages)
	assert.Nil(t, got.Product)
	assert.Zero(t, got.TotalRank)
	assert.Equal(t, []int{1, 101, 201}, fake.Starts())
}

func TestFindRankNoFiltersMatchesFirstItem(t *testing.T) {
	fake := &shoppingtest.Fake{Pages: map[int][]types.Product{1: shoppingtest.Products(1, 10, nil)}}

	got, err := newFinder(fake).FindRank(context.Background(), "tumbler", types.Target{}, 3)
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, 1, got.TotalRank)
}

func TestFindRankSkipsFailedPage(t *testing.T) {
	fake := &shoppingtest.Fake{
		Pages: map[int][]types.Product{
			101: shoppingtest.Products(101, 100, func(i int) string {
				if i == 0 {
					return "CoolMall"
				}
				return "Other"
			}),
		},
		Errors: map[int]error{1: &shopping.TransportError{Err: errors.New("dial tcp: timeout")}},
	}

	got, err := newFinder(fake).FindRank(context.Background(), "tumbler", types.Target{MallName: "CoolMall"}, 3)
	require.NoError(t, err)
	assert.True(t, got.Found)
	assert.Equal(t, 2, got.Page)
	assert.Equal(t, 1, got.RankInPage)
	assert.Equal(t, 101, got.TotalRank)
	assert.Equal(t, []int{1, 101}, fake.Starts())
}

func TestFindRankAllPagesFail(t *testing.T) {
	boom := errors.New("boom")
	fake := &shoppingtest.Fake{Errors: map[int]error{1: boom, 101: boom}}

	got, err := newFinder(fake).FindRank(context.Background(), "tumbler", types.Target{}, 2)
	require.NoError(t, err)
	assert.False(t, got.Found)
	assert.Equal(t, 2, got.SearchedPages)
}

func TestFindRankInvalidInput(t *testing.T) {
	f := newFinder(&shoppingtest.Fake{})

	_, err := f.FindRank(context.Background(), "", types.Target{}, 3)
	assert.ErrorIs(t, err, shopping.ErrEmptyQuery)

	_, err = f.FindRank(context.Background(), "q", types.Target{}, 0)
	assert.ErrorIs(t, err, shopping.ErrInvalidMaxPages)
}

// --- FindAll ---

func TestFindAllCollectsEveryMatch(t *testing.T) {
	everyTenth := func(i int) string {
		if i%10 == 0 {
			return "CoolMall"
		}
		return "Other"
	}
	fake := &shoppingtest.Fake{Pages: map[int][]types.Product{
		1:   shoppingtest.Products(1, 100, everyTenth),
		101: shoppingtest.Products(101, 40, everyTenth),
	}}

	got, err := newFinder(fake).FindAll(context.Background(), "tumbler", types.Target{MallName: "coolmall"}, 2)
	require.NoError(t, err)
	assert.Equal(t, 140, got.Scanned)
	assert.Equal(t, 2, got.SearchedPages)
	require.Len(t, got.Matches, 14)
	assert.Equal(t, 1, got.Matches[0].TotalRank)
	assert.Equal(t, 11, got.Matches[1].TotalRank)
	last := got.Matches[len(got.Matches)-1]
	assert.Equal(t, 2, last.Page)
	assert.Equal(t, 31, last.RankInPage)
	assert.Equal(t, 131, last.TotalRank)
}

// --- Output ---

func TestFormatReportFound(t *testing.T) {
	var buf bytes.Buffer
	FormatReport(&buf, types.RankResult{
		Found: true, Query: "tumbler", Target: types.Target{MallName: "CoolMall"},
		Page: 1, RankInPage: 42, TotalRank: 42,
		Product: &types.Product{Title: "Cool Tumbler", MallName: "CoolMall Official", Maker: "Stanley", LowPrice: "29000", Link: "https://shop.test/1"},
	})
	out := buf.String()
	assert.Contains(t, out, "Query:   tumbler")
	assert.Contains(t, out, "mall~CoolMall")
	assert.Contains(t, out, "Brand:   Stanley")
	assert.Contains(t, out, "- overall rank: 42")
	assert.Contains(t, out, "Link: https://shop.test/1")
}

func TestFormatReportNotFound(t *testing.T) {
	var buf bytes.Buffer
	FormatReport(&buf, types.RankResult{Query: "tumbler", SearchedPages: 3})
	assert.Contains(t, buf.String(), "Pages searched: 3")
	assert.Contains(t, buf.String(), "product not found")
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(&buf, AllMatches{
		Matches: []types.Match{{Page: 1, RankInPage: 3, TotalRank: 3, Product: types.Product{
			Title: strings.Repeat("텀블러", 30), MallName: "CoolMall", LowPrice: "1000",
		}}},
		Scanned: 100, SearchedPages: 1,
	})
	out := buf.String()
	assert.Contains(t, out, "CoolMall")
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "1 matches in 100 listings (1 pages)")

	buf.Reset()
	FormatTable(&buf, AllMatches{Scanned: 40, SearchedPages: 1})
	assert.Equal(t, "No matches in 40 listings (1 pages).\n", buf.String())
}

func TestFormatYAMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	in := types.RankResult{Found: true, Query: "q", Page: 2, RankInPage: 5, TotalRank: 105, SearchedPages: 2, CheckedAt: fixedNow}
	require.NoError(t, FormatYAML(&buf, in))

	var out types.RankResult
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &out))
	assert.True(t, in.CheckedAt.Equal(out.CheckedAt))
	out.CheckedAt = in.CheckedAt
	assert.Equal(t, in, out)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "스탠...", truncate("스탠리텀블러", 5))
}
