package handlers

import (
	"log/slog"
	"time"

	"github.com/Houman6460/fooodis-blog-sub005/internal/service"
	"github.com/Houman6460/fooodis-blog-sub005/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

type CheckHandler struct {
	s     service.PublisherService
	clock func() time.Time
}

func NewCheckHandler(service service.PublisherService) *CheckHandler {
	return &CheckHandler{s: service, clock: time.Now}
}

// ListDue reports the posts a sweep would pick up right now.
func (h *CheckHandler) ListDue(c *fiber.Ctx) error {
	now := h.clock()

	posts, err := h.s.ListDue(c.Context(), now)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	views := make([]transfer.ScheduledPostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, transfer.NewDuePostView(p, now.UnixMilli()))
	}

	return c.Status(fiber.StatusOK).JSON(transfer.DuePostsResponse{
		DueCount: len(views),
		Posts:    views,
	})
}

// CheckAndPublish runs a sweep and returns its summary.
func (h *CheckHandler) CheckAndPublish(c *fiber.Ctx) error {
	result, err := h.s.CheckAndPublish(c.Context(), h.clock())
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.Status(fiber.StatusOK).JSON(result)
}
