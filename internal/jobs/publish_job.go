package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/Houman6460/fooodis-blog-sub005/internal/service"
)

const sweepTimeout = 5 * time.Minute

// PublishJob runs the due-post sweep on the cron schedule.
type PublishJob struct {
	ps service.PublisherService
}

func NewPublishJob(ps service.PublisherService) *PublishJob {
	return &PublishJob{ps: ps}
}

func (j *PublishJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	if _, err := j.ps.CheckAndPublish(ctx, time.Now()); err != nil {
		slog.Error("scheduled post sweep failed", "error", err)
	}
}
