package handler

import (
	"kasa-pos/internal/model"
	"kasa-pos/internal/service"
	"kasa-pos/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type SalesHandler struct {
	sales     service.SalesService
	dashboard service.DashboardService
}

func NewSalesHandler(sales service.SalesService, dashboard service.DashboardService) *SalesHandler {
	return &SalesHandler{sales: sales, dashboard: dashboard}
}

type ScanRequest struct {
	Barcode string `json:"barcode"`
	Qty     int    `json:"qty"`
}

type QtyRequest struct {
	Qty int `json:"qty"`
}

type CheckoutRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required,payment_method"`
}

// GET /api/v1/cart
func (h *SalesHandler) GetCart(c *fiber.Ctx) error {
	view, err := h.sales.Cart(c.UserContext(), currentSession(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// Scan adds a scanned barcode. Unknown barcodes answer 200 with found=false.
// POST /api/v1/cart/scan
func (h *SalesHandler) Scan(c *fiber.Ctx) error {
	var req ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	res, err := h.sales.Scan(c.UserContext(), currentSession(c), req.Barcode, req.Qty)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(res)
}

// POST /api/v1/cart/items/:barcode
func (h *SalesHandler) AddItem(c *fiber.Ctx) error {
	view, err := h.sales.AddProduct(c.UserContext(), currentSession(c), param(c, "barcode"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// POST /api/v1/cart/items/:barcode/increment
func (h *SalesHandler) Increment(c *fiber.Ctx) error {
	view, err := h.sales.Increment(c.UserContext(), currentSession(c), param(c, "barcode"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// POST /api/v1/cart/items/:barcode/decrement
func (h *SalesHandler) Decrement(c *fiber.Ctx) error {
	view, err := h.sales.Decrement(c.UserContext(), currentSession(c), param(c, "barcode"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// PUT /api/v1/cart/items/:barcode
func (h *SalesHandler) SetQty(c *fiber.Ctx) error {
	var req QtyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	view, err := h.sales.SetQty(c.UserContext(), currentSession(c), param(c, "barcode"), req.Qty)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// DELETE /api/v1/cart/items/:barcode
func (h *SalesHandler) RemoveItem(c *fiber.Ctx) error {
	view, err := h.sales.RemoveLine(c.UserContext(), currentSession(c), param(c, "barcode"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// DELETE /api/v1/cart
func (h *SalesHandler) ClearCart(c *fiber.Ctx) error {
	if err := h.sales.ClearCart(c.UserContext(), currentSession(c)); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Cart cleared"})
}

// POST /api/v1/checkout
func (h *SalesHandler) Checkout(c *fiber.Ctx) error {
	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		return c.Status(400).JSON(fiber.Map{
			"error":  "payment_method must be cash, card or family",
			"fields": errs,
		})
	}

	sale, err := h.sales.Checkout(c.UserContext(), currentSession(c), model.PaymentMethod(req.PaymentMethod))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Sale completed", "data": sale})
}

// GetSales lists sales, optionally limited to a dashboard range.
// Query params: range, from, to, sort (date|total|qty), order (asc|desc)
// GET /api/v1/sales
func (h *SalesHandler) GetSales(c *fiber.Ctx) error {
	q := service.SaleQuery{
		Sort:  c.Query("sort"),
		Order: c.Query("order"),
	}
	if c.Query("range") != "" {
		r, err := h.dashboard.ResolveRange(service.DashboardQuery{
			Range: c.Query("range"),
			From:  c.Query("from"),
			To:    c.Query("to"),
		})
		if err != nil {
			return fail(c, err)
		}
		q.Range = &r
	}

	sales, err := h.sales.ListSales(c.UserContext(), q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sales)
}

// GET /api/v1/sales/:id
func (h *SalesHandler) GetSale(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
	}
	sale, err := h.sales.GetSale(c.UserContext(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(sale)
}

// DELETE /api/v1/sales/:id
func (h *SalesHandler) DeleteSale(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
	}
	if err := h.sales.DeleteSale(c.UserContext(), currentSession(c), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Sale deleted, stock restored"})
}
