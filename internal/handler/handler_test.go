package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"kasa-pos/internal/cart"
	"kasa-pos/internal/chat"
	"kasa-pos/internal/event"
	"kasa-pos/internal/middleware"
	"kasa-pos/internal/model"
	"kasa-pos/internal/repository"
	"kasa-pos/internal/service"
	"kasa-pos/pkg/jwt"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testApp struct {
	app      *fiber.App
	products repository.ProductRepository
	admin    string
	cashier  string
}

func newTestApp(t *testing.T, chatURL string) *testApp {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.AutoMigrate(model.Tables...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := zap.NewNop()
	events := &event.Recorder{}
	productRepo := repository.NewProductRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	thresholdRepo := repository.NewThresholdRepo(db)
	userRepo := repository.NewUserRepo(db)

	authSvc := service.NewAuthService(userRepo, jwt.NewSigner("test", time.Hour), log)
	dashSvc := service.NewDashboardService(saleRepo, time.UTC, 10)
	h := &Handlers{
		Auth:      NewAuthHandler(authSvc),
		Products:  NewProductHandler(service.NewCatalogService(productRepo, db, events, log)),
		Threshold: NewThresholdHandler(service.NewThresholdService(thresholdRepo, events, log)),
		Sales:     NewSalesHandler(service.NewSalesService(productRepo, saleRepo, cart.NewMemoryStore(), db, events, nil, log), dashSvc),
		Stock:     NewStockHandler(service.NewStockService(productRepo, thresholdRepo)),
		Dashboard: NewDashboardHandler(dashSvc),
		Assistant: NewAssistantHandler(service.NewAssistantService(chat.NewClient(chatURL, "", time.Second, time.UTC), nil, log)),
		Users:     NewUserHandler(service.NewUserService(userRepo, log)),
	}

	app := fiber.New()
	RegisterRoutes(app, h, middleware.RequireAuth(authSvc))

	ctx := context.Background()
	authSvc.EnsureAdmin(ctx, "admin", "123456")
	cashier := &model.User{Username: "kasa1", Role: model.RoleCashier, IsActive: true}
	cashier.SetPassword("kasa123")
	if err := userRepo.Create(ctx, cashier); err != nil {
		t.Fatalf("create cashier: %v", err)
	}

	ta := &testApp{app: app, products: productRepo}
	ta.admin = ta.login(t, "admin", "123456")
	ta.cashier = ta.login(t, "kasa1", "kasa123")
	return ta
}

func (ta *testApp) do(t *testing.T, method, path, token string, body interface{}) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ta.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func (ta *testApp) login(t *testing.T, username, password string) string {
	t.Helper()
	status, body := ta.do(t, "POST", "/api/v1/auth/login", "", LoginRequest{Username: username, Password: password})
	if status != 200 {
		t.Fatalf("login %s: %d %s", username, status, body)
	}
	var resp service.LoginResponse
	json.Unmarshal(body, &resp)
	return resp.Token
}

func (ta *testApp) seed(t *testing.T, barcode, name, category, price string, qty int) {
	t.Helper()
	p := &model.Product{Barcode: barcode, Name: name, Category: category, Price: decimal.RequireFromString(price), Qty: qty}
	if err := ta.products.Create(context.Background(), p); err != nil {
		t.Fatal(err)
	}
}

func TestLoginAndAuthErrors(t *testing.T) {
	ta := newTestApp(t, "http://127.0.0.1:1")

	if status, _ := ta.do(t, "POST", "/api/v1/auth/login", "", LoginRequest{Username: "admin", Password: "nope"}); status != 401 {
		t.Fatalf("bad password: %d", status)
	}
	if status, _ := ta.do(t, "GET", "/api/v1/products", "", nil); status != 401 {
		t.Fatalf("no token: %d", status)
	}
	if status, _ := ta.do(t, "GET", "/api/v1/products", "garbage", nil); status != 401 {
		t.Fatalf("bad token: %d", status)
	}

	status, body := ta.do(t, "GET", "/api/v1/auth/me", ta.cashier, nil)
	if status != 200 {
		t.Fatalf("me: %d %s", status, body)
	}

	if status, _ := ta.do(t, "POST", "/api/v1/auth/logout", ta.cashier, nil); status != 200 {
		t.Fatalf("logout: %d", status)
	}
	if status, _ := ta.do(t, "GET", "/api/v1/auth/me", ta.cashier, nil); status != 401 {
		t.Fatalf("token should be dead after logout: %d", status)
	}
}

func TestProductWritesNeedAdmin(t *testing.T) {
	ta := newTestApp(t, "http://127.0.0.1:1")
	p := map[string]interface{}{"barcode": "869", "name": "Efes", "category": "Bira", "price": "60", "qty": 24}

	if status, _ := ta.do(t, "POST", "/api/v1/products", ta.cashier, p); status != 403 {
		t.Fatalf("cashier create: %d", status)
	}
	if status, body := ta.do(t, "POST", "/api/v1/products", ta.admin, p); status != 201 {
		t.Fatalf("admin create: %d %s", status, body)
	}
	if status, _ := ta.do(t, "POST", "/api/v1/products", ta.admin, p); status != 400 {
		t.Fatalf("duplicate: %d", status)
	}
	bad := map[string]interface{}{"barcode": "870", "name": "Bedava", "category": "Bira", "price": "0"}
	if status, _ := ta.do(t, "POST", "/api/v1/products", ta.admin, bad); status != 400 {
		t.Fatalf("zero price: %d", status)
	}
	if status, _ := ta.do(t, "GET", "/api/v1/products/nope", ta.cashier, nil); status != 404 {
		t.Fatalf("missing product: %d", status)
	}
}

func TestScanCheckoutAndDelete(t *testing.T) {
	ta := newTestApp(t, "http://127.0.0.1:1")
	ta.seed(t, "A", "Simit", "Yiyecek", "10", 5)
	ta.seed(t, "B", "Ayran", "İçecek", "5", 3)

	if status, _ := ta.do(t, "POST", "/api/v1/checkout", ta.cashier, CheckoutRequest{PaymentMethod: "cash"}); status != 400 {
		t.Fatalf("empty cart checkout: %d", status)
	}

	status, body := ta.do(t, "POST", "/api/v1/cart/scan", ta.cashier, ScanRequest{Barcode: "unknown"})
	if status != 200 {
		t.Fatalf("unknown scan: %d", status)
	}
	var scan service.ScanResult
	json.Unmarshal(body, &scan)
	if scan.Found {
		t.Fatal("unknown barcode reported as found")
	}

	ta.do(t, "POST", "/api/v1/cart/scan", ta.cashier, ScanRequest{Barcode: "A", Qty: 2})
	ta.do(t, "POST", "/api/v1/cart/items/B", ta.cashier, nil)

	if status, _ := ta.do(t, "POST", "/api/v1/checkout", ta.cashier, CheckoutRequest{PaymentMethod: "bitcoin"}); status != 400 {
		t.Fatalf("bad payment method: %d", status)
	}

	status, body = ta.do(t, "POST", "/api/v1/checkout", ta.cashier, CheckoutRequest{PaymentMethod: "cash"})
	if status != 201 {
		t.Fatalf("checkout: %d %s", status, body)
	}
	var created struct {
		Data model.Sale `json:"data"`
	}
	json.Unmarshal(body, &created)
	if !created.Data.Total.Equal(decimal.NewFromInt(25)) {
		t.Fatalf("total = %s", created.Data.Total)
	}

	path := "/api/v1/sales/" + created.Data.ID.String()
	if status, _ := ta.do(t, "DELETE", path, ta.cashier, nil); status != 403 {
		t.Fatalf("cashier delete: %d", status)
	}
	if status, body := ta.do(t, "DELETE", path, ta.admin, nil); status != 200 {
		t.Fatalf("admin delete: %d %s", status, body)
	}
	p, _ := ta.products.FindByBarcode(context.Background(), "A")
	if p.Qty != 5 {
		t.Fatalf("A qty after delete = %d", p.Qty)
	}
	if status, _ := ta.do(t, "DELETE", path, ta.admin, nil); status != 404 {
		t.Fatalf("second delete: %d", status)
	}
}

func TestThresholdWithEscapedCategory(t *testing.T) {
	ta := newTestApp(t, "http://127.0.0.1:1")
	ta.seed(t, "B", "Ayran", "İçecek", "5", 3)

	path := "/api/v1/thresholds/" + url.PathEscape("İçecek")
	if status, body := ta.do(t, "PUT", path, ta.admin, map[string]int{"threshold": 5}); status != 200 {
		t.Fatalf("set threshold: %d %s", status, body)
	}

	status, body := ta.do(t, "GET", "/api/v1/stock/low", ta.cashier, nil)
	if status != 200 {
		t.Fatalf("low stock: %d", status)
	}
	var low []map[string]interface{}
	json.Unmarshal(body, &low)
	if len(low) != 1 || low[0]["barcode"] != "B" {
		t.Fatalf("low = %s", body)
	}
}

func TestDashboardRangeValidation(t *testing.T) {
	ta := newTestApp(t, "http://127.0.0.1:1")

	if status, body := ta.do(t, "GET", "/api/v1/dashboard?range=weekly", ta.cashier, nil); status != 200 {
		t.Fatalf("weekly: %d %s", status, body)
	}
	if status, _ := ta.do(t, "GET", "/api/v1/dashboard?range=yearly", ta.cashier, nil); status != 400 {
		t.Fatalf("unknown range: %d", status)
	}
}

func TestAssistantFailureIsAMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"output":[{"text":"guess me"}]}`))
	}))
	defer srv.Close()
	ta := newTestApp(t, srv.URL)

	status, body := ta.do(t, "POST", "/api/v1/assistant", ta.cashier, AskRequest{Question: "bugün ne sattık?"})
	if status != 200 {
		t.Fatalf("status = %d", status)
	}
	var msg Message
	json.Unmarshal(body, &msg)
	if !msg.Error || msg.Sender != "assistant" || msg.Content == "" {
		t.Fatalf("message = %+v", msg)
	}

	if status, _ := ta.do(t, "POST", "/api/v1/assistant", ta.cashier, AskRequest{Question: "  "}); status != 400 {
		t.Fatalf("empty question: %d", status)
	}
}

func TestAdminManagesCashierAccounts(t *testing.T) {
	ta := newTestApp(t, "http://127.0.0.1:1")
	req := service.CreateUserRequest{Username: "kasa2", Password: "kasa456", FullName: "Mehmet"}

	if status, _ := ta.do(t, "POST", "/api/v1/users", ta.cashier, req); status != 403 {
		t.Fatalf("cashier create: %d", status)
	}
	status, body := ta.do(t, "POST", "/api/v1/users", ta.admin, req)
	if status != 201 {
		t.Fatalf("admin create: %d %s", status, body)
	}
	var created struct {
		Data model.UserResponse `json:"data"`
	}
	json.Unmarshal(body, &created)
	if created.Data.Role != model.RoleCashier {
		t.Fatalf("role = %q", created.Data.Role)
	}

	token := ta.login(t, "kasa2", "kasa456")
	if status, _ := ta.do(t, "GET", "/api/v1/cart", token, nil); status != 200 {
		t.Fatalf("new cashier cart: %d", status)
	}

	bad := map[string]string{"role": "owner"}
	if status, _ := ta.do(t, "PUT", "/api/v1/users/"+created.Data.ID.String(), ta.admin, bad); status != 400 {
		t.Fatalf("unknown role: %d", status)
	}
	if status, _ := ta.do(t, "DELETE", "/api/v1/users/"+created.Data.ID.String(), ta.admin, nil); status != 200 {
		t.Fatalf("deactivate: %d", status)
	}
	if status, _ := ta.do(t, "GET", "/api/v1/cart", token, nil); status != 401 {
		t.Fatalf("deactivated token: %d", status)
	}
	if status, _ := ta.do(t, "GET", "/api/v1/users/not-a-uuid", ta.admin, nil); status != 400 {
		t.Fatalf("bad id: %d", status)
	}

	status, body = ta.do(t, "GET", "/api/v1/users", ta.admin, nil)
	if status != 200 {
		t.Fatalf("list: %d", status)
	}
	var list []model.UserResponse
	json.Unmarshal(body, &list)
	if len(list) != 3 {
		t.Fatalf("users = %d, want 3", len(list))
	}
}
