package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client the API needs.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// EnqueueCheck schedules a sweep to run once the post becomes due. The
// cron sweep still covers the post if the task is lost.
func EnqueueCheck(client Enqueuer, payload CheckScheduledPostsPayload, delay time.Duration) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if delay < 0 {
		delay = 0
	}
	task := asynq.NewTask(TaskTypeCheckScheduledPosts, taskPayload)

	_, err = client.Enqueue(task, asynq.ProcessIn(delay), asynq.MaxRetry(3))
	if err != nil {
		return fmt.Errorf("enqueue scheduled post check: %w", err)
	}

	slog.Info("Task scheduled", "scheduled_post_id", payload.ScheduledPostID, "delay", delay.String())
	return nil
}
