// Package stock shapes the catalog into the stock screen: products grouped by
// category with low-stock items surfaced first.
package stock

import (
	"sort"
	"strings"

	"kasa-pos/internal/model"

	"github.com/shopspring/decimal"
)

type Item struct {
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	Qty       int             `json:"qty"`
	Threshold int             `json:"threshold"`
	Low       bool            `json:"low"`
}

type Group struct {
	Category string `json:"category"`
	LowCount int    `json:"low_count"`
	Items    []Item `json:"items"`
}

// Threshold resolves the effective threshold for p: its own value, then the
// category fallback, then zero.
func Threshold(p model.Product, byCategory map[string]int) int {
	if p.Threshold != nil {
		return *p.Threshold
	}
	if t, ok := byCategory[p.Category]; ok {
		return t
	}
	return 0
}

// Matches applies the free-text filter: case-insensitive substring of name or barcode.
func Matches(p model.Product, filter string) bool {
	f := strings.TrimSpace(filter)
	if f == "" {
		return true
	}
	f = strings.ToLower(f)
	return strings.Contains(strings.ToLower(p.Name), f) ||
		strings.Contains(strings.ToLower(p.Barcode), f)
}

// Aggregate is a pure function of its inputs.
func Aggregate(products []model.Product, byCategory map[string]int, filter string) []Group {
	index := make(map[string]int)
	var groups []Group

	for _, p := range products {
		if !Matches(p, filter) {
			continue
		}
		th := Threshold(p, byCategory)
		it := Item{
			Barcode:   p.Barcode,
			Name:      p.Name,
			Category:  p.Category,
			Price:     p.Price,
			Qty:       p.Qty,
			Threshold: th,
			Low:       p.Qty <= th,
		}
		gi, ok := index[p.Category]
		if !ok {
			gi = len(groups)
			index[p.Category] = gi
			groups = append(groups, Group{Category: p.Category})
		}
		groups[gi].Items = append(groups[gi].Items, it)
		if it.Low {
			groups[gi].LowCount++
		}
	}

	for i := range groups {
		items := groups[i].Items
		sort.SliceStable(items, func(a, b int) bool {
			if items[a].Low != items[b].Low {
				return items[a].Low
			}
			if items[a].Qty != items[b].Qty {
				return items[a].Qty < items[b].Qty
			}
			return items[a].Name < items[b].Name
		})
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Category < groups[b].Category
	})
	return groups
}

// LowStock lists every low item across groups, lowest quantity first.
func LowStock(groups []Group) []Item {
	var out []Item
	for _, g := range groups {
		for _, it := range g.Items {
			if it.Low {
				out = append(out, it)
			}
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Qty < out[b].Qty })
	return out
}
