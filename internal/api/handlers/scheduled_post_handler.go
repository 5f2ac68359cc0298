package handlers

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/Houman6460/fooodis-blog-sub005/internal/queue"
	"github.com/Houman6460/fooodis-blog-sub005/internal/repository"
	"github.com/Houman6460/fooodis-blog-sub005/internal/service"
	"github.com/Houman6460/fooodis-blog-sub005/internal/transfer"
	"github.com/gofiber/fiber/v2"
)

const scheduledPostNotFound = "Scheduled post not found"

type ScheduledPostHandler struct {
	s           service.ScheduledPostService
	ps          service.PublisherService
	AsynqClient queue.Enqueuer
}

// NewScheduledPostHandler builds the management handler. asynqClient may be
// nil, in which case new posts wait for the cron sweep.
func NewScheduledPostHandler(
	service service.ScheduledPostService,
	publisher service.PublisherService,
	asynqClient queue.Enqueuer) *ScheduledPostHandler {
	return &ScheduledPostHandler{s: service, ps: publisher, AsynqClient: asynqClient}
}

func (h *ScheduledPostHandler) CreateScheduledPost(c *fiber.Ctx) error {
	var pc transfer.ScheduledPostCreation
	if err := c.BodyParser(&pc); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	post, err := h.s.Create(c.Context(), &pc)
	if err != nil {
		return sendError(c, err, scheduledPostNotFound)
	}

	if h.AsynqClient != nil {
		delay := time.Until(time.UnixMilli(post.ScheduledDatetime))
		err = queue.EnqueueCheck(h.AsynqClient, queue.CheckScheduledPostsPayload{ScheduledPostID: post.ID}, delay)
		if err != nil {
			slog.Error("Error scheduling post check", "scheduled_post_id", post.ID, "error", err)
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"post":    transfer.NewScheduledPostView(post),
	})
}

func (h *ScheduledPostHandler) ListScheduledPosts(c *fiber.Ctx) error {
	filter := repository.ScheduledPostFilter{
		Status:           c.Query("status"),
		Source:           c.Query("source"),
		AutomationPathID: c.Query("automation_path_id"),
		IncludePublished: c.QueryBool("include_published", false),
		Limit:            c.QueryInt("limit", 0),
		Offset:           c.QueryInt("offset", 0),
	}

	var err error
	if filter.From, err = parseDateQuery(c.Query("from_date")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid from_date",
		})
	}
	if filter.To, err = parseDateQuery(c.Query("to_date")); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid to_date",
		})
	}

	list, err := h.s.List(c.Context(), filter)
	if err != nil {
		return sendError(c, err, scheduledPostNotFound)
	}

	return c.Status(fiber.StatusOK).JSON(list)
}

func (h *ScheduledPostHandler) GetScheduledPost(c *fiber.Ctx) error {
	detail, err := h.s.Get(c.Context(), c.Params("id"))
	if err != nil {
		return sendError(c, err, scheduledPostNotFound)
	}

	return c.Status(fiber.StatusOK).JSON(detail)
}

func (h *ScheduledPostHandler) UpdateScheduledPost(c *fiber.Ctx) error {
	var pu transfer.ScheduledPostUpdate
	if err := c.BodyParser(&pu); err != nil {
		slog.Info(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse json",
		})
	}

	post, err := h.s.Update(c.Context(), c.Params("id"), &pu)
	if err != nil {
		return sendError(c, err, scheduledPostNotFound)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"post":    transfer.NewScheduledPostView(post),
	})
}

func (h *ScheduledPostHandler) RemoveScheduledPost(c *fiber.Ctx) error {
	if err := h.s.Remove(c.Context(), c.Params("id")); err != nil {
		return sendError(c, err, scheduledPostNotFound)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
	})
}

// PublishScheduledPost publishes one post immediately.
func (h *ScheduledPostHandler) PublishScheduledPost(c *fiber.Ctx) error {
	detail, err := h.ps.PublishNow(c.Context(), c.Params("id"), time.Now())
	if err != nil {
		return sendError(c, err, scheduledPostNotFound)
	}

	status := fiber.StatusOK
	if detail.Error != "" {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(detail)
}

// parseDateQuery accepts the same formats as the request bodies. An empty
// value means no bound.
func parseDateQuery(v string) (int64, error) {
	if v == "" {
		return 0, nil
	}
	if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
		return ms, nil
	}
	var ts transfer.Timestamp
	if err := ts.UnmarshalJSON([]byte(`"` + v + `"`)); err != nil {
		return 0, err
	}
	return int64(ts), nil
}
