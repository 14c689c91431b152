// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package shoppingtest provides an in-memory shopping.Searcher for tests.
package shoppingtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/pdiddy/shoprank/internal/shopping"
	"github.com/pdiddy/shoprank/pkg/types"
)

// Fake serves pages keyed by start offset. Starts with an entry in Errors
// fail with that error; starts with no page return an empty page.
type Fake struct {
	Pages  map[int][]types.Product
	Errors map[int]error

	mu       sync.Mutex
	requests []shopping.Request
}

// Search records req and returns the configured page or error.
func (f *Fake) Search(_ context.Context, req shopping.Request) (*shopping.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if err, ok := f.Errors[req.Start]; ok {
		return nil, err
	}
	items := f.Pages[req.Start]
	return &shopping.Response{Start: req.Start, Display: len(items), Total: 1000, Items: items}, nil
}

// Requests returns a copy of every request received, in order.
func (f *Fake) Requests() []shopping.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]shopping.Request(nil), f.requests...)
}

// Starts returns the start offset of every request received, in order.
func (f *Fake) Starts() []int {
	reqs := f.Requests()
	starts := make([]int, len(reqs))
	for i, r := range reqs {
		starts[i] = r.Start
	}
	return starts
}

// Products builds n listings for the page beginning at start. mall picks
// the mall name for the item at index i; nil uses "Generic Mall".
func Products(start, n int, mall func(i int) string) []types.Product {
	items := make([]types.Product, n)
	for i := range items {
		m := "Generic Mall"
		if mall != nil {
			m = mall(i)
		}
		items[i] = types.Product{
			Title:     fmt.Sprintf("Product %d", start+i),
			Link:      fmt.Sprintf("https://shop.test/products/%d", start+i),
			LowPrice:  fmt.Sprintf("%d", 10000+i),
			MallName:  m,
			ProductID: fmt.Sprintf("%d", 80000+start+i),
			Brand:     "",
			Maker:     "Generic Maker",
			Category1: "Kitchen",
			Category2: "Drinkware",
			Category3: "Tumblers",
		}
	}
	return items
}
