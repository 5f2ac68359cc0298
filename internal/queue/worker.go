package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

func (j *Queue) HandleCheckTask(ctx context.Context, task *asynq.Task) error {
	var payload CheckScheduledPostsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	result, err := j.ps.CheckAndPublish(ctx, time.Now())
	if err != nil {
		return err
	}

	slog.Info("queued sweep finished",
		"scheduled_post_id", payload.ScheduledPostID,
		"checked", result.Checked,
		"published", result.Published,
		"failed", result.Failed,
	)
	return nil
}
