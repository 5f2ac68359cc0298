package models

// PublishSweepResult aggregates the outcome of one due-check sweep.
type PublishSweepResult struct {
	Success   bool          `json:"success"`
	Timestamp string        `json:"timestamp"`
	Checked   int           `json:"checked"`
	Published int           `json:"published"`
	Failed    int           `json:"failed"`
	Details   []SweepDetail `json:"details"`
}

type SweepDetail struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	BlogPostID string `json:"blog_post_id,omitempty"`
	Error      string `json:"error,omitempty"`
}
