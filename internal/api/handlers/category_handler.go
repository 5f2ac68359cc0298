package handlers

import (
	"github.com/Houman6460/fooodis-blog-sub005/internal/service"
	"github.com/gofiber/fiber/v2"
)

type CategoryHandler struct {
	s service.CategoryService
}

func NewCategoryHandler(service service.CategoryService) *CategoryHandler {
	return &CategoryHandler{s: service}
}

func (h *CategoryHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.s.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list categories",
		})
	}

	return c.Status(fiber.StatusOK).JSON(categories)
}

func (h *CategoryHandler) CreateCategory(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	category, err := h.s.Create(c.Context(), req.Name)
	if err != nil {
		return sendError(c, err, "Category not found")
	}

	return c.Status(fiber.StatusCreated).JSON(category)
}
