package report

import (
	"errors"
	"testing"
	"time"

	"kasa-pos/internal/model"

	"github.com/shopspring/decimal"
)

var istanbul = time.FixedZone("TRT", 3*60*60)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sale(at time.Time, method model.PaymentMethod, items ...model.SaleItem) model.Sale {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Qty))))
	}
	s := model.Sale{Total: total, PaymentMethod: method, Items: items}
	s.CreatedAt = at
	return s
}

func item(barcode, name, category, price string, qty int) model.SaleItem {
	return model.SaleItem{Barcode: barcode, Name: name, Category: category, Price: d(price), Qty: qty}
}

func TestSummarizeExcludesFamily(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, istanbul)
	sales := []model.Sale{
		{Total: d("100"), PaymentMethod: model.PaymentCash},
		{Total: d("50"), PaymentMethod: model.PaymentFamily},
	}
	for i := range sales {
		sales[i].CreatedAt = now
	}

	s := Summarize(sales)
	if !s.CashSales.Equal(d("100")) {
		t.Errorf("cash = %s, want 100", s.CashSales)
	}
	if !s.FamilySales.Equal(d("50")) {
		t.Errorf("family = %s, want 50", s.FamilySales)
	}
	if !s.TotalSalesWithoutFamily.Equal(d("100")) {
		t.Errorf("total without family = %s, want 100", s.TotalSalesWithoutFamily)
	}
	if !s.AverageSale.Equal(d("100")) {
		t.Errorf("average = %s, want 100", s.AverageSale)
	}
	if s.SaleCount != 2 || s.FamilySaleCount != 1 {
		t.Errorf("counts = %d/%d", s.SaleCount, s.FamilySaleCount)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if !s.AverageSale.IsZero() || !s.TotalSalesWithoutFamily.IsZero() || s.SaleCount != 0 {
		t.Fatalf("unexpected summary for no sales: %+v", s)
	}
}

func TestAverageRoundsToCents(t *testing.T) {
	sales := []model.Sale{
		{Total: d("10"), PaymentMethod: model.PaymentCash},
		{Total: d("10"), PaymentMethod: model.PaymentCard},
		{Total: d("0.01"), PaymentMethod: model.PaymentCard},
	}
	if got := Summarize(sales).AverageSale; !got.Equal(d("6.67")) {
		t.Fatalf("average = %s, want 6.67", got)
	}
}

func TestResolveRange(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 30, 0, 0, istanbul)

	cases := []struct {
		kind, from, to string
		wantFrom       time.Time
		wantTo         time.Time
	}{
		{"daily", "", "", time.Date(2025, 3, 10, 0, 0, 0, 0, istanbul), now},
		{"", "", "", time.Date(2025, 3, 10, 0, 0, 0, 0, istanbul), now},
		{"weekly", "", "", time.Date(2025, 3, 4, 0, 0, 0, 0, istanbul), now},
		{"monthly", "", "", time.Date(2025, 3, 1, 0, 0, 0, 0, istanbul), now},
		{"custom", "2025-02-01", "2025-02-03", time.Date(2025, 2, 1, 0, 0, 0, 0, istanbul),
			time.Date(2025, 2, 4, 0, 0, 0, 0, istanbul).Add(-time.Nanosecond)},
	}
	for _, tc := range cases {
		r, err := ResolveRange(tc.kind, tc.from, tc.to, now, istanbul)
		if err != nil {
			t.Fatalf("%s: %v", tc.kind, err)
		}
		if !r.From.Equal(tc.wantFrom) || !r.To.Equal(tc.wantTo) {
			t.Errorf("%s: got [%s, %s], want [%s, %s]", tc.kind, r.From, r.To, tc.wantFrom, tc.wantTo)
		}
	}
}

func TestResolveRangeErrors(t *testing.T) {
	now := time.Now()
	bad := [][3]string{
		{"yearly", "", ""},
		{"custom", "2025-13-01", "2025-01-02"},
		{"custom", "2025-01-05", "2025-01-02"},
		{"custom", "2025-01-05", ""},
	}
	for _, b := range bad {
		if _, err := ResolveRange(b[0], b[1], b[2], now, istanbul); !errors.Is(err, ErrInvalidRange) {
			t.Errorf("%v: want ErrInvalidRange, got %v", b, err)
		}
	}
}

func TestBuild(t *testing.T) {
	day := func(h, m int) time.Time { return time.Date(2025, 3, 10, h, m, 0, 0, istanbul) }
	sales := []model.Sale{
		sale(day(9, 15), model.PaymentCash,
			item("A", "Efes", "Bira", "60", 2),
			item("B", "Cips", "Yiyecek", "25", 1)),
		sale(day(9, 45), model.PaymentCard,
			item("A", "Efes", "Bira", "60", 1)),
		sale(day(21, 5), model.PaymentFamily,
			item("C", "Su", "", "10", 5)),
		// outside the range
		sale(time.Date(2025, 3, 9, 23, 59, 0, 0, istanbul), model.PaymentCash,
			item("A", "Efes", "Bira", "60", 10)),
	}
	r := Range{Kind: RangeDaily, From: day(0, 0), To: day(23, 59)}

	dash := Build(sales, r, Options{Location: istanbul})

	if dash.Summary.SaleCount != 3 {
		t.Fatalf("sale count = %d, want 3", dash.Summary.SaleCount)
	}
	if !dash.Summary.TotalSalesWithoutFamily.Equal(d("205")) {
		t.Errorf("headline = %s, want 205", dash.Summary.TotalSalesWithoutFamily)
	}
	if !dash.Summary.FamilySales.Equal(d("50")) {
		t.Errorf("family = %s, want 50", dash.Summary.FamilySales)
	}
	if dash.Summary.ItemsSold != 9 {
		t.Errorf("items sold = %d, want 9", dash.Summary.ItemsSold)
	}

	if len(dash.Categories) != 3 {
		t.Fatalf("categories = %+v", dash.Categories)
	}
	if dash.Categories[0].Category != "Bira" || !dash.Categories[0].Revenue.Equal(d("180")) {
		t.Errorf("top category = %+v", dash.Categories[0])
	}
	// blank category falls back
	found := false
	for _, c := range dash.Categories {
		if c.Category == model.FallbackCategory && c.Revenue.Equal(d("50")) {
			found = true
		}
	}
	if !found {
		t.Errorf("fallback category missing: %+v", dash.Categories)
	}

	if dash.TopProducts[0].Barcode != "C" || dash.TopProducts[0].Units != 5 {
		t.Errorf("top product = %+v", dash.TopProducts[0])
	}
	if dash.TopProducts[1].Barcode != "A" || dash.TopProducts[1].Units != 3 {
		t.Errorf("second product = %+v", dash.TopProducts[1])
	}

	if len(dash.Hourly) != 24 {
		t.Fatalf("want 24 buckets, got %d", len(dash.Hourly))
	}
	if dash.Hourly[9].Count != 2 || !dash.Hourly[9].Revenue.Equal(d("205")) {
		t.Errorf("09:00 bucket = %+v", dash.Hourly[9])
	}
	if dash.Hourly[21].Count != 1 || !dash.Hourly[21].Revenue.Equal(d("50")) {
		t.Errorf("21:00 bucket = %+v", dash.Hourly[21])
	}
}

func TestBuildCategoryFilterAndTopN(t *testing.T) {
	at := time.Date(2025, 3, 10, 12, 0, 0, 0, istanbul)
	sales := []model.Sale{
		sale(at, model.PaymentCash,
			item("A", "Efes", "Bira", "60", 2),
			item("T", "Tuborg", "Bira", "65", 1),
			item("B", "Cips", "Yiyecek", "25", 7)),
	}
	r := Range{From: at.Add(-time.Hour), To: at.Add(time.Hour)}

	dash := Build(sales, r, Options{Category: "Bira", TopN: 1, Location: istanbul})
	if len(dash.Categories) != 1 || dash.Categories[0].Category != "Bira" {
		t.Fatalf("category filter failed: %+v", dash.Categories)
	}
	if len(dash.TopProducts) != 1 || dash.TopProducts[0].Barcode != "A" {
		t.Fatalf("top N failed: %+v", dash.TopProducts)
	}
	// headline figures ignore the category filter
	if !dash.Summary.CashSales.Equal(d("360")) {
		t.Fatalf("cash = %s", dash.Summary.CashSales)
	}
}

func TestHourlyUsesStoreTimeZone(t *testing.T) {
	utcNoon := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := sale(utcNoon, model.PaymentCash, item("A", "x", "y", "1", 1))
	b := Hourly([]model.Sale{s}, istanbul)
	if b[15].Count != 1 {
		t.Fatalf("12:00 UTC should land in the 15:00 Istanbul bucket: %+v", b[15])
	}
}
