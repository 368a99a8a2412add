package handler

import (
	"kasa-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetDashboard returns KPIs, category revenue, top products and hourly sales.
// Query params: range (daily|weekly|monthly|custom, default daily), from, to
// (YYYY-MM-DD, custom only), category
// GET /api/v1/dashboard
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	d, err := h.service.Dashboard(c.UserContext(), service.DashboardQuery{
		Range:    c.Query("range", "daily"),
		From:     c.Query("from"),
		To:       c.Query("to"),
		Category: c.Query("category"),
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(d)
}
