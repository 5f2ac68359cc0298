package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/Houman6460/fooodis-blog-sub005/internal/service"
)

// StrandedPostJob returns posts stuck in publishing to the retry cycle.
type StrandedPostJob struct {
	ps      service.PublisherService
	timeout time.Duration
}

func NewStrandedPostJob(ps service.PublisherService, timeout time.Duration) *StrandedPostJob {
	return &StrandedPostJob{
		ps:      ps,
		timeout: timeout,
	}
}

func (j *StrandedPostJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	n, err := j.ps.RequeueStranded(ctx, time.Now(), j.timeout)
	if err != nil {
		slog.Info(err.Error())
		return
	}
	if n > 0 {
		slog.Info("requeued stranded posts", "count", n)
	}
}
