package handlers

import (
	"errors"
	"log/slog"

	"github.com/Houman6460/fooodis-blog-sub005/internal/repository"
	"github.com/Houman6460/fooodis-blog-sub005/internal/service"
	"github.com/gofiber/fiber/v2"
)

// GetUserID returns the subject the auth middleware stored for the request.
func GetUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}

// sendError maps service errors onto status codes. Anything unrecognised is
// a 500 carrying the error text.
func sendError(c *fiber.Ctx, err error, notFound string) error {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": verr.Message,
		})
	case errors.Is(err, repository.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": notFound,
		})
	case errors.Is(err, service.ErrAlreadyPublished):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot modify a published post",
		})
	case errors.Is(err, service.ErrPostBusy):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Post is currently being published",
		})
	}

	slog.Error(err.Error())
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": err.Error(),
	})
}
