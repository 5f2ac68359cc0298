package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Houman6460/fooodis-blog-sub005/internal/models"
	"github.com/hibiken/asynq"
)

type recordingEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
	err   error
}

func (r *recordingEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task)
	r.opts = append(r.opts, opts)
	return &asynq.TaskInfo{}, nil
}

func TestEnqueueCheck(t *testing.T) {
	rec := &recordingEnqueuer{}
	err := EnqueueCheck(rec, CheckScheduledPostsPayload{ScheduledPostID: "sp1"}, -time.Minute)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if len(rec.tasks) != 1 {
		t.Fatalf("tasks = %d, want 1", len(rec.tasks))
	}

	task := rec.tasks[0]
	if task.Type() != TaskTypeCheckScheduledPosts {
		t.Errorf("type = %q", task.Type())
	}
	var payload CheckScheduledPostsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.ScheduledPostID != "sp1" {
		t.Errorf("payload = %+v", payload)
	}

	for _, opt := range rec.opts[0] {
		if opt.Type() == asynq.ProcessInOpt {
			if d := opt.Value().(time.Duration); d != 0 {
				t.Errorf("negative delay should clamp to zero, got %v", d)
			}
		}
	}
}

func TestEnqueueCheckError(t *testing.T) {
	rec := &recordingEnqueuer{err: errors.New("redis down")}
	if err := EnqueueCheck(rec, CheckScheduledPostsPayload{ScheduledPostID: "sp1"}, time.Minute); err == nil {
		t.Fatal("expected error")
	}
}

type stubPublisher struct {
	sweeps int
	err    error
}

func (s *stubPublisher) ListDue(context.Context, time.Time) ([]*models.ScheduledPost, error) {
	return nil, nil
}

func (s *stubPublisher) CheckAndPublish(context.Context, time.Time) (*models.PublishSweepResult, error) {
	s.sweeps++
	if s.err != nil {
		return nil, s.err
	}
	return &models.PublishSweepResult{Success: true}, nil
}

func (s *stubPublisher) PublishNow(context.Context, string, time.Time) (*models.SweepDetail, error) {
	return nil, nil
}

func (s *stubPublisher) RequeueStranded(context.Context, time.Time, time.Duration) (int, error) {
	return 0, nil
}

func TestHandleCheckTask(t *testing.T) {
	ps := &stubPublisher{}
	q := NewQueue(ps)

	task := asynq.NewTask(TaskTypeCheckScheduledPosts, []byte(`{"scheduled_post_id":"sp1"}`))
	if err := q.HandleCheckTask(context.Background(), task); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if ps.sweeps != 1 {
		t.Errorf("sweeps = %d, want 1", ps.sweeps)
	}

	bad := asynq.NewTask(TaskTypeCheckScheduledPosts, []byte(`not json`))
	if err := q.HandleCheckTask(context.Background(), bad); err == nil {
		t.Error("expected error for malformed payload")
	}

	ps.err = errors.New("database not configured")
	if err := q.HandleCheckTask(context.Background(), task); err == nil {
		t.Error("sweep error should be returned so asynq retries")
	}
}
