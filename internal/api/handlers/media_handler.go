package handlers

import (
	"log/slog"

	"github.com/Houman6460/fooodis-blog-sub005/internal/service"
	"github.com/gofiber/fiber/v2"
)

type MediaHandler struct {
	s service.MediaService
}

func NewMediaHandler(service service.MediaService) *MediaHandler {
	return &MediaHandler{s: service}
}

func (h *MediaHandler) UploadMedia(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file selected",
		})
	}

	asset, err := h.s.Upload(c.Context(), file)
	if err != nil {
		return sendError(c, err, "Media not found")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":       asset.ID,
		"file_url": asset.FileURL,
	})
}

func (h *MediaHandler) ListMedia(c *fiber.Ctx) error {
	assets, err := h.s.List(c.Context(), c.QueryInt("limit", 0))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unable to list media",
		})
	}

	return c.Status(fiber.StatusOK).JSON(assets)
}
