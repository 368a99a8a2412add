package service

import (
	"context"
	"testing"

	"kasa-pos/internal/cart"
	"kasa-pos/internal/event"
	"kasa-pos/internal/model"
	"kasa-pos/internal/repository"
	"kasa-pos/internal/session"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db         *gorm.DB
	products   repository.ProductRepository
	sales      repository.SaleRepository
	thresholds repository.ThresholdRepository
	users      repository.UserRepository
	events     *event.Recorder
	carts      cart.Store
	log        *zap.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every connection to :memory: is a fresh database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(model.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return &fixture{
		db:         db,
		products:   repository.NewProductRepo(db),
		sales:      repository.NewSaleRepo(db),
		thresholds: repository.NewThresholdRepo(db),
		users:      repository.NewUserRepo(db),
		events:     &event.Recorder{},
		carts:      cart.NewMemoryStore(),
		log:        zap.NewNop(),
	}
}

func (f *fixture) salesService() *salesService {
	return NewSalesService(f.products, f.sales, f.carts, f.db, f.events, nil, f.log).(*salesService)
}

func (f *fixture) seed(t *testing.T, barcode, name, category, price string, qty int) *model.Product {
	t.Helper()
	p := &model.Product{
		Barcode:  barcode,
		Name:     name,
		Category: category,
		Price:    decimal.RequireFromString(price),
		Qty:      qty,
	}
	if err := f.products.Create(context.Background(), p); err != nil {
		t.Fatalf("seed %s: %v", barcode, err)
	}
	return p
}

func (f *fixture) qty(t *testing.T, barcode string) int {
	t.Helper()
	p, err := f.products.FindByBarcode(context.Background(), barcode)
	if err != nil {
		t.Fatalf("find %s: %v", barcode, err)
	}
	return p.Qty
}

func (f *fixture) saleCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&model.Sale{}).Count(&n).Error; err != nil {
		t.Fatalf("count sales: %v", err)
	}
	return n
}

var (
	cashier = session.Session{UserID: uuid.New(), Username: "kasiyer", Role: model.RoleCashier}
	admin   = session.Session{UserID: uuid.New(), Username: "admin", Role: model.RoleAdmin}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
