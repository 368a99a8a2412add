package handler

import (
	"kasa-pos/internal/middleware"
	"kasa-pos/internal/model"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles every HTTP handler of the API.
type Handlers struct {
	Auth      *AuthHandler
	Products  *ProductHandler
	Threshold *ThresholdHandler
	Sales     *SalesHandler
	Stock     *StockHandler
	Dashboard *DashboardHandler
	Assistant *AssistantHandler
	Users     *UserHandler
}

// RegisterRoutes mounts the /api/v1 routes. requireAuth guards everything but login.
func RegisterRoutes(app *fiber.App, h *Handlers, requireAuth fiber.Handler) {
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/login", h.Auth.Login)
	auth.Post("/logout", requireAuth, h.Auth.Logout)
	auth.Get("/me", requireAuth, h.Auth.Me)
	auth.Post("/change-password", requireAuth, h.Auth.ChangePassword)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)
	can := middleware.RequirePrivilege

	// Catalog
	protected.Get("/products", can(model.PrivProductView), h.Products.GetProducts)
	protected.Get("/products/:barcode", can(model.PrivProductView), h.Products.GetProduct)
	protected.Post("/products", can(model.PrivProductManage), h.Products.CreateProduct)
	protected.Put("/products/:barcode", can(model.PrivProductManage), h.Products.UpdateProduct)
	protected.Delete("/products/:barcode", can(model.PrivProductManage), h.Products.DeleteProduct)
	protected.Get("/categories", can(model.PrivProductView), h.Products.GetCategories)
	protected.Get("/categories/:category/products", can(model.PrivProductView), h.Products.GetGrid)

	// Thresholds
	protected.Get("/thresholds", can(model.PrivProductView), h.Threshold.GetThresholds)
	protected.Put("/thresholds/:category", can(model.PrivThresholdManage), h.Threshold.SetThreshold)
	protected.Delete("/thresholds/:category", can(model.PrivThresholdManage), h.Threshold.DeleteThreshold)

	// Stock view
	protected.Get("/stock", can(model.PrivProductView), h.Stock.GetStock)
	protected.Get("/stock/low", can(model.PrivProductView), h.Stock.GetLowStock)

	// Cart and checkout
	cart := protected.Group("/cart", can(model.PrivSaleCreate))
	cart.Get("", h.Sales.GetCart)
	cart.Delete("", h.Sales.ClearCart)
	cart.Post("/scan", h.Sales.Scan)
	cart.Post("/items/:barcode", h.Sales.AddItem)
	cart.Put("/items/:barcode", h.Sales.SetQty)
	cart.Delete("/items/:barcode", h.Sales.RemoveItem)
	cart.Post("/items/:barcode/increment", h.Sales.Increment)
	cart.Post("/items/:barcode/decrement", h.Sales.Decrement)
	protected.Post("/checkout", can(model.PrivSaleCreate), h.Sales.Checkout)

	// Sales log
	protected.Get("/sales", can(model.PrivSaleView), h.Sales.GetSales)
	protected.Get("/sales/:id", can(model.PrivSaleView), h.Sales.GetSale)
	protected.Delete("/sales/:id", can(model.PrivSaleDelete), h.Sales.DeleteSale)

	// Operator accounts
	users := protected.Group("/users", can(model.PrivUserManage))
	users.Get("", h.Users.GetUsers)
	users.Post("", h.Users.CreateUser)
	users.Get("/:id", h.Users.GetUser)
	users.Put("/:id", h.Users.UpdateUser)
	users.Delete("/:id", h.Users.DeleteUser)

	// Reporting
	protected.Get("/dashboard", can(model.PrivDashboardView), h.Dashboard.GetDashboard)
	protected.Post("/assistant", can(model.PrivAssistantUse), h.Assistant.Ask)
}
