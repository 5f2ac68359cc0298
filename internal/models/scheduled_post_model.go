package models

type ScheduledPost struct {
	ID                 string   `db:"id" json:"id"`
	Title              string   `db:"title" json:"title"`
	Content            string   `db:"content" json:"content"`
	Excerpt            string   `db:"excerpt" json:"excerpt"`
	ImageURL           string   `db:"image_url" json:"image_url"`
	Author             string   `db:"author" json:"author"`
	Category           string   `db:"category" json:"category"`
	Subcategory        string   `db:"subcategory" json:"subcategory"`
	Tags               []string `db:"tags" json:"tags"`
	Slug               string   `db:"slug" json:"slug"`
	ScheduledDatetime  int64    `db:"scheduled_datetime" json:"scheduled_datetime"`
	Timezone           string   `db:"timezone" json:"timezone"`
	Source             string   `db:"source" json:"source"`
	AutomationPathID   string   `db:"automation_path_id" json:"automation_path_id"`
	AutomationPathName string   `db:"automation_path_name" json:"automation_path_name"`
	Status             string   `db:"status" json:"status"` // pending, publishing, published, failed, cancelled
	IsFeatured         bool     `db:"is_featured" json:"is_featured"`
	Priority           int      `db:"priority" json:"priority"`
	RetryCount         int      `db:"retry_count" json:"retry_count"`
	MaxRetries         int      `db:"max_retries" json:"max_retries"`
	LastAttempt        *int64   `db:"last_attempt" json:"last_attempt"`
	ErrorMessage       *string  `db:"error_message" json:"error_message"`
	PublishedPostID    *string  `db:"published_post_id" json:"published_post_id"`
	CreatedAt          int64    `db:"created_at" json:"created_at"`
	UpdatedAt          int64    `db:"updated_at" json:"updated_at"`
}

const (
	ScheduledStatusPending    = "pending"
	ScheduledStatusPublishing = "publishing"
	ScheduledStatusPublished  = "published"
	ScheduledStatusFailed     = "failed"
	ScheduledStatusCancelled  = "cancelled"
)

const (
	DefaultMaxRetries     = 3
	DefaultAuthor         = "Admin"
	DefaultSource         = "manual"
	DefaultTimezone       = "UTC"
	UncategorizedCategory = "Uncategorized"
)

// IsTerminal reports whether no sweep will touch the post again.
func (p *ScheduledPost) IsTerminal() bool {
	return p.Status == ScheduledStatusPublished || p.Status == ScheduledStatusFailed
}

// NextStatusAfterFailure returns the status a post moves to after a failed
// attempt that brought its retry count to retryCount.
func (p *ScheduledPost) NextStatusAfterFailure(retryCount int) string {
	maxRetries := p.MaxRetries
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if retryCount >= maxRetries {
		return ScheduledStatusFailed
	}
	return ScheduledStatusPending
}

// CountsTowardCategory reports whether publishing the post bumps a category counter.
func (p *ScheduledPost) CountsTowardCategory() bool {
	return p.Category != "" && p.Category != UncategorizedCategory
}
