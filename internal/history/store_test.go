// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/shoprank/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(types.HistoryConfig{DataDir: t.TempDir(), MaxResults: 20})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func foundResult(query string, rank int, at time.Time) types.RankResult {
	return types.RankResult{
		Found:      true,
		Query:      query,
		Target:     types.Target{MallName: "CoolMall"},
		Page:       1,
		RankInPage: rank,
		TotalRank:  rank,
		Product: &types.Product{
			Title:     "Steel Tumbler 500ml",
			MallName:  "CoolMall Official",
			Brand:     "Cool",
			LowPrice:  "15900",
			Link:      "https://example.com/p/1",
			ProductID: "12345",
			Category1: "Kitchen",
		},
		SearchedPages: 1,
		CheckedAt:     at,
	}
}

func TestNewStoreCreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	store, err := NewStore(types.HistoryConfig{DataDir: dir})
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(filepath.Join(dir, dbFile))
	assert.NoError(t, err)
	assert.Equal(t, 20, store.maxResults)
}

func TestSaveAndGet(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	id, err := store.Save(ctx, foundResult("tumbler", 42, at))
	require.NoError(t, err)
	assert.Positive(t, id)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.True(t, rec.Found)
	assert.Equal(t, "tumbler", rec.Query)
	assert.Equal(t, "CoolMall", rec.Target.MallName)
	assert.Equal(t, 42, rec.TotalRank)
	assert.True(t, at.Equal(rec.CheckedAt))
	require.NotNil(t, rec.Product)
	assert.Equal(t, "Steel Tumbler 500ml", rec.Product.Title)
	assert.Equal(t, "15900", rec.Product.LowPrice)
}

func TestSaveNotFound(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, types.RankResult{
		Query:         "tumbler",
		Target:        types.Target{ProductName: "Nonexistent"},
		SearchedPages: 3,
	})
	require.NoError(t, err)

	rec, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, rec.Found)
	assert.Equal(t, 3, rec.SearchedPages)
	assert.Nil(t, rec.Product)
	assert.Zero(t, rec.TotalRank)
	assert.False(t, rec.CheckedAt.IsZero())
}

func TestSaveReplacesSameQueryAndTarget(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := store.Save(ctx, foundResult("tumbler", 42, base))
	require.NoError(t, err)
	second, err := store.Save(ctx, foundResult("tumbler", 17, base.Add(time.Hour)))
	require.NoError(t, err)

	// Different target keeps its own row.
	other := foundResult("tumbler", 5, base.Add(2*time.Hour))
	other.Target = types.Target{Brand: "Cool"}
	_, err = store.Save(ctx, other)
	require.NoError(t, err)

	_, err = store.Get(ctx, first)
	assert.ErrorIs(t, err, ErrNotFound)

	records, err := store.List(ctx, Filter{Query: "tumbler"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 5, records[0].TotalRank)
	assert.Equal(t, second, records[1].ID)
	assert.Equal(t, 17, records[1].TotalRank)
}

func TestListOrderFilterAndLimit(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	queries := []string{"tumbler", "mug", "bottle", "tumbler"}
	for i, q := range queries {
		r := foundResult(q, i+1, base.Add(time.Duration(i)*time.Minute))
		r.Target = types.Target{ProductName: q + string(rune('a'+i))}
		_, err := store.Save(ctx, r)
		require.NoError(t, err)
	}

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, 4, all[0].TotalRank)
	assert.Equal(t, 1, all[3].TotalRank)

	tumblers, err := store.List(ctx, Filter{Query: "tumbler"})
	require.NoError(t, err)
	assert.Len(t, tumblers, 2)

	limited, err := store.List(ctx, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "tumbler", limited[0].Query)

	none, err := store.List(ctx, Filter{Query: "kettle"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDelete(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	id, err := store.Save(ctx, foundResult("tumbler", 1, time.Now()))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, id))
	assert.ErrorIs(t, store.Delete(ctx, id), ErrNotFound)

	records, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(types.HistoryConfig{DataDir: dir})
	require.NoError(t, err)
	_, err = store.Save(ctx, foundResult("tumbler", 3, time.Now()))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewStore(types.HistoryConfig{DataDir: dir})
	require.NoError(t, err)
	defer reopened.Close()

	records, err := reopened.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].TotalRank)
}

func TestDump(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := store.Save(ctx, foundResult("tumbler", 42, base))
	require.NoError(t, err)
	_, err = store.Save(ctx, foundResult("mug", 7, base.Add(time.Minute)))
	require.NoError(t, err)

	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "history.yaml")
	n, err := store.Dump(ctx, yamlPath, Filter{Query: "tumbler"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var fromYAML []Record
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, "tumbler", fromYAML[0].Query)
	assert.Equal(t, 42, fromYAML[0].TotalRank)

	jsonPath := filepath.Join(dir, "history.json")
	n, err = store.Dump(ctx, jsonPath, Filter{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var fromJSON []map[string]any
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	require.Len(t, fromJSON, 2)
	assert.Equal(t, "mug", fromJSON[0]["search_query"])
	assert.NotNil(t, fromJSON[0]["id"])
}

func TestListFilterByMall(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, mall := range []string{"CoolMall", "HotMall", "CoolMall Official"} {
		r := foundResult("tumbler", i+1, base.Add(time.Duration(i)*time.Minute))
		r.Target = types.Target{MallName: mall}
		_, err := store.Save(ctx, r)
		require.NoError(t, err)
	}
	other := foundResult("mug", 9, base.Add(time.Hour))
	_, err := store.Save(ctx, other)
	require.NoError(t, err)

	// Exact match on the stored target, not a substring test.
	cool, err := store.List(ctx, Filter{MallName: "CoolMall"})
	require.NoError(t, err)
	require.Len(t, cool, 2)
	assert.Equal(t, "mug", cool[0].Query)
	assert.Equal(t, 1, cool[1].TotalRank)

	both, err := store.List(ctx, Filter{Query: "tumbler", MallName: "CoolMall"})
	require.NoError(t, err)
	require.Len(t, both, 1)
	assert.Equal(t, 1, both[0].TotalRank)

	none, err := store.List(ctx, Filter{MallName: "Cool"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveCommitFailureReturnsNoID(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	// A deferred foreign key violation passes the insert and fails at commit.
	store.db.SetMaxOpenConns(1)
	for _, stmt := range []string{
		`PRAGMA foreign_keys = ON`,
		`CREATE TABLE parents (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE children (parent_id INTEGER REFERENCES parents(id) DEFERRABLE INITIALLY DEFERRED)`,
		`CREATE TRIGGER orphan_child AFTER INSERT ON rank_checks BEGIN
			INSERT INTO children (parent_id) VALUES (999);
		END`,
	} {
		_, err := store.db.Exec(stmt)
		require.NoError(t, err)
	}

	id, err := store.Save(ctx, foundResult("tumbler", 1, time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "committing result")
	assert.Zero(t, id)

	records, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	assert.Empty(t, records)
}
