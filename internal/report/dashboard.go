// Package report turns the sales log into dashboard figures. Everything is
// recomputed from the sales slice on each call.
package report

import (
	"sort"
	"time"

	"kasa-pos/internal/model"

	"github.com/shopspring/decimal"
)

const DefaultTopN = 10

type Options struct {
	TopN     int
	Category string // restricts category/product breakdowns when set
	Location *time.Location
}

type Summary struct {
	TotalSalesWithoutFamily decimal.Decimal `json:"total_sales_without_family"`
	CashSales               decimal.Decimal `json:"cash_sales"`
	CardSales               decimal.Decimal `json:"card_sales"`
	FamilySales             decimal.Decimal `json:"family_sales"`
	AverageSale             decimal.Decimal `json:"average_sale"`
	SaleCount               int             `json:"sale_count"`
	FamilySaleCount         int             `json:"family_sale_count"`
	ItemsSold               int             `json:"items_sold"`
}

type CategoryRevenue struct {
	Category string          `json:"category"`
	Units    int             `json:"units"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type ProductStat struct {
	Barcode  string          `json:"barcode"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Units    int             `json:"units"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type HourBucket struct {
	Hour    int             `json:"hour"`
	Count   int             `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

type Dashboard struct {
	Range       Range             `json:"range"`
	Category    string            `json:"category,omitempty"`
	Summary     Summary           `json:"summary"`
	Categories  []CategoryRevenue `json:"categories"`
	TopProducts []ProductStat     `json:"top_products"`
	Hourly      []HourBucket      `json:"hourly"`
}

// Filter keeps the sales whose timestamp falls inside r.
func Filter(sales []model.Sale, r Range) []model.Sale {
	out := make([]model.Sale, 0, len(sales))
	for _, s := range sales {
		if r.Contains(s.CreatedAt) {
			out = append(out, s)
		}
	}
	return out
}

// Summarize computes headline totals. Family sales are tracked on their own
// and left out of the headline total and the average.
func Summarize(sales []model.Sale) Summary {
	sum := Summary{
		TotalSalesWithoutFamily: decimal.Zero,
		CashSales:               decimal.Zero,
		CardSales:               decimal.Zero,
		FamilySales:             decimal.Zero,
		AverageSale:             decimal.Zero,
	}
	for _, s := range sales {
		sum.SaleCount++
		sum.ItemsSold += s.ItemCount()
		switch s.PaymentMethod {
		case model.PaymentCash:
			sum.CashSales = sum.CashSales.Add(s.Total)
		case model.PaymentCard:
			sum.CardSales = sum.CardSales.Add(s.Total)
		case model.PaymentFamily:
			sum.FamilySales = sum.FamilySales.Add(s.Total)
			sum.FamilySaleCount++
		}
	}
	sum.TotalSalesWithoutFamily = sum.CashSales.Add(sum.CardSales)
	if n := sum.SaleCount - sum.FamilySaleCount; n > 0 {
		sum.AverageSale = sum.TotalSalesWithoutFamily.DivRound(decimal.NewFromInt(int64(n)), 2)
	}
	return sum
}

func lineCategory(it model.SaleItem) string {
	if it.Category == "" {
		return model.FallbackCategory
	}
	return it.Category
}

// ByCategory sums price×qty of every line, grouped by line category,
// highest revenue first.
func ByCategory(sales []model.Sale, only string) []CategoryRevenue {
	idx := make(map[string]int)
	out := []CategoryRevenue{}
	for _, s := range sales {
		for _, it := range s.Items {
			cat := lineCategory(it)
			if only != "" && cat != only {
				continue
			}
			i, ok := idx[cat]
			if !ok {
				i = len(out)
				idx[cat] = i
				out = append(out, CategoryRevenue{Category: cat, Revenue: decimal.Zero})
			}
			out[i].Units += it.Qty
			out[i].Revenue = out[i].Revenue.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Qty))))
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if c := out[a].Revenue.Cmp(out[b].Revenue); c != 0 {
			return c > 0
		}
		return out[a].Category < out[b].Category
	})
	return out
}

// TopProducts ranks products by units sold and keeps the first n.
func TopProducts(sales []model.Sale, only string, n int) []ProductStat {
	idx := make(map[string]int)
	out := []ProductStat{}
	for _, s := range sales {
		for _, it := range s.Items {
			cat := lineCategory(it)
			if only != "" && cat != only {
				continue
			}
			key := it.Barcode
			if key == "" {
				key = it.Name
			}
			i, ok := idx[key]
			if !ok {
				i = len(out)
				idx[key] = i
				out = append(out, ProductStat{Barcode: it.Barcode, Name: it.Name, Category: cat, Revenue: decimal.Zero})
			}
			out[i].Units += it.Qty
			out[i].Revenue = out[i].Revenue.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Qty))))
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Units != out[b].Units {
			return out[a].Units > out[b].Units
		}
		if c := out[a].Revenue.Cmp(out[b].Revenue); c != 0 {
			return c > 0
		}
		return out[a].Name < out[b].Name
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Hourly buckets sale totals by hour of day in loc. Always 24 entries.
func Hourly(sales []model.Sale, loc *time.Location) []HourBucket {
	if loc == nil {
		loc = time.UTC
	}
	buckets := make([]HourBucket, 24)
	for h := range buckets {
		buckets[h] = HourBucket{Hour: h, Revenue: decimal.Zero}
	}
	for _, s := range sales {
		h := s.CreatedAt.In(loc).Hour()
		buckets[h].Count++
		buckets[h].Revenue = buckets[h].Revenue.Add(s.Total)
	}
	return buckets
}

// Build filters sales to r and computes every dashboard figure.
func Build(sales []model.Sale, r Range, opts Options) Dashboard {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}
	loc := opts.Location
	if loc == nil {
		loc = r.From.Location()
	}

	inRange := Filter(sales, r)
	return Dashboard{
		Range:       r,
		Category:    opts.Category,
		Summary:     Summarize(inRange),
		Categories:  ByCategory(inRange, opts.Category),
		TopProducts: TopProducts(inRange, opts.Category, topN),
		Hourly:      Hourly(inRange, loc),
	}
}
