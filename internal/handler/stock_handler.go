package handler

import (
	"kasa-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type StockHandler struct {
	service service.StockService
}

func NewStockHandler(s service.StockService) *StockHandler {
	return &StockHandler{service: s}
}

// GetStock returns products grouped by category, low stock first.
// Query params: q (name or barcode filter)
// GET /api/v1/stock
func (h *StockHandler) GetStock(c *fiber.Ctx) error {
	overview, err := h.service.Overview(c.UserContext(), c.Query("q"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(overview)
}

// GET /api/v1/stock/low
func (h *StockHandler) GetLowStock(c *fiber.Ctx) error {
	items, err := h.service.LowStock(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(items)
}
