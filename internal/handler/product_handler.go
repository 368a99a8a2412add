package handler

import (
	"kasa-pos/internal/model"
	"kasa-pos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	service service.CatalogService
}

func NewProductHandler(s service.CatalogService) *ProductHandler {
	return &ProductHandler{service: s}
}

// GET /api/v1/products
func (h *ProductHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(products)
}

// GET /api/v1/products/:barcode
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetByBarcode(c.UserContext(), param(c, "barcode"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(product)
}

// POST /api/v1/products
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var product model.Product
	if err := c.BodyParser(&product); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.service.CreateProduct(c.UserContext(), currentSession(c), &product); err != nil {
		return fail(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Product created", "data": product})
}

// PUT /api/v1/products/:barcode
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	var req model.Product
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	updated, err := h.service.UpdateProduct(c.UserContext(), currentSession(c), param(c, "barcode"), &req)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(fiber.Map{"message": "Product updated", "data": updated})
}

// DELETE /api/v1/products/:barcode
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	if err := h.service.DeleteProduct(c.UserContext(), currentSession(c), param(c, "barcode")); err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}

// GET /api/v1/categories
func (h *ProductHandler) GetCategories(c *fiber.Ctx) error {
	cats, err := h.service.Categories(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(cats)
}

// GetGrid lists one category for the manual product picker.
// GET /api/v1/categories/:category/products
func (h *ProductHandler) GetGrid(c *fiber.Ctx) error {
	products, err := h.service.Grid(c.UserContext(), param(c, "category"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(products)
}
