package handler

import (
	"kasa-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ThresholdHandler struct {
	service service.ThresholdService
}

func NewThresholdHandler(s service.ThresholdService) *ThresholdHandler {
	return &ThresholdHandler{service: s}
}

type SetThresholdRequest struct {
	Threshold *int `json:"threshold"`
}

// GET /api/v1/thresholds
func (h *ThresholdHandler) GetThresholds(c *fiber.Ctx) error {
	list, err := h.service.Thresholds(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// PUT /api/v1/thresholds/:category
func (h *ThresholdHandler) SetThreshold(c *fiber.Ctx) error {
	var req SetThresholdRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	if req.Threshold == nil {
		return c.Status(400).JSON(fiber.Map{"error": "threshold is required"})
	}

	t, err := h.service.SetCategoryThreshold(c.UserContext(), currentSession(c), param(c, "category"), *req.Threshold)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Threshold saved", "data": t})
}

// DELETE /api/v1/thresholds/:category
func (h *ThresholdHandler) DeleteThreshold(c *fiber.Ctx) error {
	if err := h.service.DeleteCategoryThreshold(c.UserContext(), currentSession(c), param(c, "category")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Threshold removed"})
}
