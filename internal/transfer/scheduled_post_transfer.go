package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Houman6460/fooodis-blog-sub005/internal/models"
)

// Timestamp is an epoch-millisecond instant that decodes from either a JSON
// number or a date string.
type Timestamp int64

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] != '"' {
		ms, err := parseMillis(string(data))
		if err != nil {
			return fmt.Errorf("invalid timestamp %s", data)
		}
		*t = Timestamp(ms)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = Timestamp(parsed.UnixMilli())
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// parseMillis reads an integer millisecond count. Fractional values such as
// 1.7e12 are truncated but must fit in an int64.
func parseMillis(s string) (int64, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("timestamp %s out of range", s)
	}
	return int64(f), nil
}

type ScheduledPostCreation struct {
	Title              string     `json:"title"`
	Content            string     `json:"content"`
	Excerpt            string     `json:"excerpt"`
	ImageURL           string     `json:"image_url"`
	Author             string     `json:"author"`
	Category           string     `json:"category"`
	Subcategory        string     `json:"subcategory"`
	Tags               []string   `json:"tags"`
	Slug               string     `json:"slug"`
	ScheduledDatetime  *Timestamp `json:"scheduled_datetime"`
	Timezone           string     `json:"timezone"`
	Source             string     `json:"source"`
	AutomationPathID   string     `json:"automation_path_id"`
	AutomationPathName string     `json:"automation_path_name"`
	IsFeatured         bool       `json:"is_featured"`
	Priority           int        `json:"priority"`
	MaxRetries         int        `json:"max_retries"`
}

// ScheduledPostUpdate carries only the fields the caller wants changed.
type ScheduledPostUpdate struct {
	Title             *string    `json:"title"`
	Content           *string    `json:"content"`
	Excerpt           *string    `json:"excerpt"`
	ImageURL          *string    `json:"image_url"`
	Category          *string    `json:"category"`
	Subcategory       *string    `json:"subcategory"`
	Tags              *[]string  `json:"tags"`
	ScheduledDatetime *Timestamp `json:"scheduled_datetime"`
	IsFeatured        *bool      `json:"is_featured"`
	Priority          *int       `json:"priority"`
	Status            *string    `json:"status"`
}

type ScheduledPostView struct {
	*models.ScheduledPost
	ScheduledDate string `json:"scheduled_date"`
	IsOverdue     *bool  `json:"is_overdue,omitempty"`
}

// ISOTime formats t the way the dashboard expects: UTC with milliseconds.
func ISOTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func ISOMillis(ms int64) string {
	return ISOTime(time.UnixMilli(ms))
}

func NewScheduledPostView(p *models.ScheduledPost) ScheduledPostView {
	return ScheduledPostView{
		ScheduledPost: p,
		ScheduledDate: ISOMillis(p.ScheduledDatetime),
	}
}

// NewDuePostView also reports whether the post was already past due at now.
func NewDuePostView(p *models.ScheduledPost, now int64) ScheduledPostView {
	v := NewScheduledPostView(p)
	overdue := p.ScheduledDatetime < now
	v.IsOverdue = &overdue
	return v
}

type DuePostsResponse struct {
	DueCount int                 `json:"due_count"`
	Posts    []ScheduledPostView `json:"posts"`
}

type ScheduledPostDetail struct {
	ScheduledPostView
	History []*models.ScheduledPostHistory `json:"history"`
}

type Pagination struct {
	Total   int  `json:"total"`
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"hasMore"`
}

type ScheduledPostList struct {
	Posts      []ScheduledPostView            `json:"posts"`
	Grouped    map[string][]ScheduledPostView `json:"grouped"`
	Pagination Pagination                     `json:"pagination"`
}
