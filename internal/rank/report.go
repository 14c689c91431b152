// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rank

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/shoprank/pkg/types"
)

// FormatReport writes a human-readable summary of a rank check to w.
func FormatReport(w io.Writer, r types.RankResult) {
	fmt.Fprintln(w, "=== Shopping rank check ===")
	fmt.Fprintf(w, "Query:   %s\n", r.Query)
	if !r.Target.IsEmpty() {
		fmt.Fprintf(w, "Target:  %s\n", describeTarget(r.Target))
	}

	if !r.Found || r.Product == nil {
		fmt.Fprintf(w, "Pages searched: %d\n\n", r.SearchedPages)
		fmt.Fprintln(w, "Result: product not found.")
		fmt.Fprintln(w, "Check the filters or search more pages.")
		return
	}

	p := r.Product
	fmt.Fprintf(w, "Product: %s\n", p.Title)
	fmt.Fprintf(w, "Mall:    %s\n", p.MallName)
	fmt.Fprintf(w, "Brand:   %s\n", p.DisplayBrand())
	fmt.Fprintf(w, "Price:   %s KRW\n\n", p.LowPrice)
	fmt.Fprintln(w, "Rank:")
	fmt.Fprintf(w, "- page:         %d\n", r.Page)
	fmt.Fprintf(w, "- rank in page: %d\n", r.RankInPage)
	fmt.Fprintf(w, "- overall rank: %d\n\n", r.TotalRank)
	fmt.Fprintf(w, "Link: %s\n", p.Link)
}

func describeTarget(t types.Target) string {
	var parts []string
	if t.ProductName != "" {
		parts = append(parts, "name~"+t.ProductName)
	}
	if t.MallName != "" {
		parts = append(parts, "mall~"+t.MallName)
	}
	if t.Brand != "" {
		parts = append(parts, "brand~"+t.Brand)
	}
	return strings.Join(parts, ", ")
}

// FormatTable writes all matches as a table to w.
func FormatTable(w io.Writer, all AllMatches) {
	if len(all.Matches) == 0 {
		fmt.Fprintf(w, "No matches in %d listings (%d pages).\n", all.Scanned, all.SearchedPages)
		return
	}

	fmt.Fprintf(w, "%-5s  %-4s  %-4s  %-50s  %-20s  %s\n",
		"Rank", "Page", "Pos", "Title", "Mall", "Price")
	fmt.Fprintln(w, strings.Repeat("-", 100))

	for _, m := range all.Matches {
		fmt.Fprintf(w, "%-5d  %-4d  %-4d  %-50s  %-20s  %s\n",
			m.TotalRank, m.Page, m.RankInPage,
			truncate(m.Product.Title, 50), truncate(m.Product.MallName, 20), m.Product.LowPrice)
	}

	fmt.Fprintf(w, "\n%d matches in %d listings (%d pages)\n", len(all.Matches), all.Scanned, all.SearchedPages)
}

// FormatJSON writes v as indented JSON to w.
func FormatJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatYAML writes v as YAML to w.
func FormatYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// truncate shortens s to at most max runes. Titles are often Korean, so
// byte slicing would split characters.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max-3]) + "..."
}
