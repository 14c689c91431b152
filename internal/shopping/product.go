// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package shopping

import (
	"bytes"
	"encoding/json"
	"html"
	"strings"

	"github.com/pdiddy/shoprank/pkg/types"
)

// Shopping API JSON structures.
type apiResponse struct {
	LastBuildDate string     `json:"lastBuildDate"`
	Total         int        `json:"total"`
	Start         int        `json:"start"`
	Display       int        `json:"display"`
	Items         *[]apiItem `json:"items"`
}

type apiItem struct {
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Image       string     `json:"image"`
	LowPrice    flexString `json:"lprice"`
	HighPrice   flexString `json:"hprice"`
	MallName    string     `json:"mallName"`
	ProductID   flexString `json:"productId"`
	ProductType flexString `json:"productType"`
	Brand       string     `json:"brand"`
	Maker       string     `json:"maker"`
	Category1   string     `json:"category1"`
	Category2   string     `json:"category2"`
	Category3   string     `json:"category3"`
	Category4   string     `json:"category4"`
}

type apiError struct {
	ErrorMessage string `json:"errorMessage"`
	ErrorCode    string `json:"errorCode"`
}

// flexString accepts a JSON string or number. The API documents prices and
// ids as strings but numbers have been observed.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// Normalize converts a raw API item into a Product.
func (it apiItem) Normalize() types.Product {
	return types.Product{
		Title:       CleanTitle(it.Title),
		Link:        it.Link,
		Image:       it.Image,
		LowPrice:    string(it.LowPrice),
		HighPrice:   string(it.HighPrice),
		MallName:    it.MallName,
		ProductID:   string(it.ProductID),
		ProductType: string(it.ProductType),
		Brand:       it.Brand,
		Maker:       it.Maker,
		Category1:   it.Category1,
		Category2:   it.Category2,
		Category3:   it.Category3,
		Category4:   it.Category4,
	}
}

var emphasisReplacer = strings.NewReplacer("<b>", "", "</b>", "")

// CleanTitle strips the <b> emphasis markup the API wraps around query
// terms and decodes HTML entities. Any other text, including text that
// looks like a tag, is kept as-is.
func CleanTitle(raw string) string {
	return strings.TrimSpace(html.UnescapeString(emphasisReplacer.Replace(raw)))
}
