// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package shopping

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// PageCache keeps recently fetched pages in memory so repeated checks for
// the same query do not spend API quota. Cached responses are shared and
// must be treated as read-only. A nil *PageCache is a valid, empty cache.
type PageCache struct {
	pages *lru.Cache[string, *Response]
}

// NewPageCache returns a cache holding up to size pages. A size of zero
// or less returns nil, which disables caching.
func NewPageCache(size int) (*PageCache, error) {
	if size <= 0 {
		return nil, nil
	}
	pages, err := lru.New[string, *Response](size)
	if err != nil {
		return nil, fmt.Errorf("creating page cache: %w", err)
	}
	return &PageCache{pages: pages}, nil
}

func cacheKey(r Request) string {
	return fmt.Sprintf("%s\x00%d\x00%d\x00%s", r.Query, r.Display, r.Start, r.Sort)
}

// Get returns the cached response for a normalized request.
func (c *PageCache) Get(r Request) (*Response, bool) {
	if c == nil {
		return nil, false
	}
	return c.pages.Get(cacheKey(r))
}

// Add stores resp for a normalized request.
func (c *PageCache) Add(r Request, resp *Response) {
	if c == nil {
		return
	}
	c.pages.Add(cacheKey(r), resp)
}

// Len returns the number of cached pages.
func (c *PageCache) Len() int {
	if c == nil {
		return 0
	}
	return c.pages.Len()
}

// Purge empties the cache.
func (c *PageCache) Purge() {
	if c == nil {
		return
	}
	c.pages.Purge()
}
