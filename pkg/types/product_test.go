// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSortMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SortMode
		wantErr bool
	}{
		{"", SortSimilarity, false},
		{"sim", SortSimilarity, false},
		{" DATE ", SortDate, false},
		{"asc", SortPriceAsc, false},
		{"dsc", SortPriceDesc, false},
		{"desc", "", true},
		{"price", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortMode(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDisplayBrand(t *testing.T) {
	assert.Equal(t, "Stanley", Product{Brand: "Stanley", Maker: "PMI"}.DisplayBrand())
	assert.Equal(t, "PMI", Product{Maker: "PMI"}.DisplayBrand())
	assert.Empty(t, Product{}.DisplayBrand())
}

func TestTotalRank(t *testing.T) {
	assert.Equal(t, 1, TotalRank(1, 100, 0))
	assert.Equal(t, 42, TotalRank(1, 100, 41))
	assert.Equal(t, 101, TotalRank(2, 100, 0))
	assert.Equal(t, 140, TotalRank(2, 100, 39))
	assert.Equal(t, 26, TotalRank(3, 10, 5))
}

func TestTargetIsEmpty(t *testing.T) {
	assert.True(t, Target{}.IsEmpty())
	assert.False(t, Target{Brand: "x"}.IsEmpty())
}

func TestNewExportRow(t *testing.T) {
	at := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	m := Match{
		Page: 2, RankInPage: 3, TotalRank: 103,
		Product: Product{
			Title: "Tumbler", MallName: "CoolMall", Maker: "PMI", LowPrice: "12900",
			Category1: "Kitchen", Category2: "Cups", Category3: "Tumblers",
			ProductID: "123", Link: "https://example.com/123",
		},
	}
	row := NewExportRow("tumbler", m, at)
	assert.Equal(t, ExportRow{
		Rank: 103, Page: 2, RankInPage: 3,
		Title: "Tumbler", MallName: "CoolMall", Brand: "PMI", Price: "12900",
		Category1: "Kitchen", Category2: "Cups", Category3: "Tumblers",
		ProductID: "123", Link: "https://example.com/123",
		Query: "tumbler", GeneratedAt: at,
	}, row)
}

func TestCredentialsIsComplete(t *testing.T) {
	assert.True(t, Credentials{ClientID: "id", ClientSecret: "secret"}.IsComplete())
	assert.False(t, Credentials{ClientID: "id"}.IsComplete())
}
