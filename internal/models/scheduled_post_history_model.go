package models

import "encoding/json"

type ScheduledPostHistory struct {
	ID              string          `db:"id" json:"id"`
	ScheduledPostID string          `db:"scheduled_post_id" json:"scheduled_post_id"`
	EventType       string          `db:"event_type" json:"event_type"`
	EventData       json.RawMessage `db:"event_data" json:"event_data"`
	CreatedAt       int64           `db:"created_at" json:"created_at"`
}

const (
	HistoryEventCreated     = "created"
	HistoryEventUpdated     = "updated"
	HistoryEventRescheduled = "rescheduled"
	HistoryEventCancelled   = "cancelled"
	HistoryEventPublished   = "published"
	HistoryEventFailed      = "failed"
	HistoryEventRequeued    = "requeued"
)

type PublishedEventData struct {
	BlogPostID    string `json:"blog_post_id"`
	PublishedAt   string `json:"published_at"`
	AutoPublished bool   `json:"auto_published"`
}

type FailedEventData struct {
	Error      string `json:"error"`
	RetryCount int    `json:"retry_count"`
}
