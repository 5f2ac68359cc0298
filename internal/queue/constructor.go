package queue

import (
	"github.com/Houman6460/fooodis-blog-sub005/internal/service"
)

type Queue struct {
	ps service.PublisherService
}

func NewQueue(ps service.PublisherService) *Queue {
	return &Queue{
		ps: ps,
	}
}

const TaskTypeCheckScheduledPosts = "scheduled_post:check"

type CheckScheduledPostsPayload struct {
	ScheduledPostID string `json:"scheduled_post_id"`
}
