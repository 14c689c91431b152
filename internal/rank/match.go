// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"strings"

	"github.com/pdiddy/shoprank/pkg/types"
)

// Matches reports whether p satisfies every non-empty filter in t. The
// product name is tested against the title, the mall against the mall
// name, and the brand against either the brand or the maker. Each test is
// a case-insensitive substring check. A target with no filters matches
// every product.
//
// Filters are trimmed first, so a filter made only of whitespace counts as
// unset and matches everything; it is not a literal " " substring test.
func Matches(t types.Target, p types.Product) bool {
	if name := strings.TrimSpace(t.ProductName); name != "" && !containsFold(p.Title, name) {
		return false
	}
	if mall := strings.TrimSpace(t.MallName); mall != "" && !containsFold(p.MallName, mall) {
		return false
	}
	if brand := strings.TrimSpace(t.Brand); brand != "" && !containsFold(p.Brand, brand) && !containsFold(p.Maker, brand) {
		return false
	}
	return true
}

// MatchesMall applies only the mall filter. An empty mall matches everything.
func MatchesMall(mall string, p types.Product) bool {
	return Matches(types.Target{MallName: mall}, p)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
