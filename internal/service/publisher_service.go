package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houman6460/fooodis-blog-sub005/internal/metrics"
	"github.com/Houman6460/fooodis-blog-sub005/internal/models"
	"github.com/Houman6460/fooodis-blog-sub005/internal/repository"
	"github.com/Houman6460/fooodis-blog-sub005/internal/transfer"
	"github.com/google/uuid"
)

var (
	ErrStoreUnavailable = errors.New("database not configured")
	ErrAlreadyPublished = errors.New("post already published")
	ErrPostBusy         = errors.New("post is currently being published")
)

const strandedErrorMessage = "publish attempt did not complete before timeout"

// claimErrorPrefix marks details for posts that were never attempted because
// the claim itself failed; their status and retry count are unchanged.
const claimErrorPrefix = "claim failed: "

type PublisherService interface {
	ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error)
	CheckAndPublish(ctx context.Context, now time.Time) (*models.PublishSweepResult, error)
	PublishNow(ctx context.Context, id string, now time.Time) (*models.SweepDetail, error)
	RequeueStranded(ctx context.Context, now time.Time, timeout time.Duration) (int, error)
}

type publisherService struct {
	db *sql.DB
	sp repository.ScheduledPostRepository
	bp repository.BlogPostRepository
	ph repository.ScheduledPostHistoryRepository
	cr repository.CategoryRepository
}

func NewPublisherService(
	db *sql.DB,
	sp repository.ScheduledPostRepository,
	bp repository.BlogPostRepository,
	ph repository.ScheduledPostHistoryRepository,
	cr repository.CategoryRepository) PublisherService {
	return &publisherService{
		db: db,
		sp: sp,
		bp: bp,
		ph: ph,
		cr: cr,
	}
}

func (s *publisherService) ListDue(ctx context.Context, now time.Time) ([]*models.ScheduledPost, error) {
	if s.db == nil {
		return nil, ErrStoreUnavailable
	}

	posts, err := s.sp.ListDue(ctx, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list due posts: %w", err)
	}
	return posts, nil
}

// CheckAndPublish runs one sweep over the posts due at now. Each post is
// claimed before any work so a concurrent sweep cannot publish it twice; a
// failure on one post is recorded against it and the sweep moves on.
func (s *publisherService) CheckAndPublish(ctx context.Context, now time.Time) (*models.PublishSweepResult, error) {
	start := time.Now()

	due, err := s.ListDue(ctx, now)
	if err != nil {
		metrics.ObserveSweep(0, err, time.Since(start))
		return nil, err
	}

	result := &models.PublishSweepResult{
		Success:   true,
		Timestamp: transfer.ISOTime(now),
		Details:   []models.SweepDetail{},
	}

	nowMs := now.UnixMilli()
	for _, post := range due {
		claimed, err := s.sp.Claim(ctx, post.ID, []string{models.ScheduledStatusPending}, nowMs)
		if err != nil {
			slog.Error("failed to claim scheduled post", "scheduled_post_id", post.ID, "error", err)
			result.Checked++
			result.Failed++
			result.Details = append(result.Details, models.SweepDetail{
				ID:     post.ID,
				Title:  post.Title,
				Status: models.ScheduledStatusFailed,
				Error:  claimErrorPrefix + err.Error(),
			})
			continue
		}
		if !claimed {
			slog.Debug("scheduled post claimed by another sweep", "scheduled_post_id", post.ID)
			continue
		}

		result.Checked++
		detail := s.attempt(ctx, post, now, true)
		if detail.Status == models.ScheduledStatusPublished {
			result.Published++
		} else {
			result.Failed++
		}
		result.Details = append(result.Details, detail)
	}

	metrics.ObserveSweep(len(due), nil, time.Since(start))
	if result.Checked > 0 {
		slog.Info("scheduled post sweep completed",
			"checked", result.Checked,
			"published", result.Published,
			"failed", result.Failed,
		)
	}
	return result, nil
}

// PublishNow publishes one post on demand, regardless of its due time.
func (s *publisherService) PublishNow(ctx context.Context, id string, now time.Time) (*models.SweepDetail, error) {
	if s.db == nil {
		return nil, ErrStoreUnavailable
	}

	post, err := s.sp.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch post.Status {
	case models.ScheduledStatusPublished:
		return nil, ErrAlreadyPublished
	case models.ScheduledStatusPublishing:
		return nil, ErrPostBusy
	}

	claimed, err := s.sp.Claim(ctx, post.ID, []string{
		models.ScheduledStatusPending,
		models.ScheduledStatusFailed,
		models.ScheduledStatusCancelled,
	}, now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("claim scheduled post: %w", err)
	}
	if !claimed {
		return nil, ErrPostBusy
	}

	detail := s.attempt(ctx, post, now, false)
	return &detail, nil
}

// RequeueStranded recovers posts left in publishing by an attempt that never
// finished. The publish transaction never committed for such a post, so it
// is treated as one failed attempt.
func (s *publisherService) RequeueStranded(ctx context.Context, now time.Time, timeout time.Duration) (int, error) {
	if s.db == nil {
		return 0, ErrStoreUnavailable
	}

	nowMs := now.UnixMilli()
	stranded, err := s.sp.ListStranded(ctx, now.Add(-timeout).UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("list stranded posts: %w", err)
	}

	requeued := 0
	for _, post := range stranded {
		retryCount := post.RetryCount + 1
		status := post.NextStatusAfterFailure(retryCount)

		err := s.sp.RecordFailure(ctx, post.ID, models.ScheduledStatusPublishing, status, retryCount, strandedErrorMessage, nowMs)
		if err != nil {
			if !errors.Is(err, repository.ErrNotClaimed) {
				slog.Error("failed to requeue stranded post", "scheduled_post_id", post.ID, "error", err)
			}
			continue
		}
		s.logEvent(ctx, nil, post.ID, models.HistoryEventRequeued, models.FailedEventData{
			Error:      strandedErrorMessage,
			RetryCount: retryCount,
		}, nowMs)

		slog.Warn("requeued stranded scheduled post",
			"scheduled_post_id", post.ID,
			"status", status,
			"retry_count", retryCount,
		)
		requeued++
	}

	metrics.ObserveRequeued(requeued)
	return requeued, nil
}

// attempt runs the publish pipeline for a post this caller has claimed and
// records the outcome against it.
func (s *publisherService) attempt(ctx context.Context, post *models.ScheduledPost, now time.Time, auto bool) models.SweepDetail {
	nowMs := now.UnixMilli()

	blogPostID, err := s.publish(ctx, post, now, auto)
	if err == nil {
		metrics.ObservePublish("published")
		slog.Info("published scheduled post",
			"scheduled_post_id", post.ID,
			"blog_post_id", blogPostID,
			"auto", auto,
		)
		return models.SweepDetail{
			ID:         post.ID,
			Title:      post.Title,
			Status:     models.ScheduledStatusPublished,
			BlogPostID: blogPostID,
		}
	}

	retryCount := post.RetryCount + 1
	status := post.NextStatusAfterFailure(retryCount)
	slog.Error("failed to publish scheduled post",
		"scheduled_post_id", post.ID,
		"retry_count", retryCount,
		"status", status,
		"error", err,
	)

	if rerr := s.sp.RecordFailure(ctx, post.ID, models.ScheduledStatusPublishing, status, retryCount, err.Error(), nowMs); rerr != nil {
		slog.Error("failed to record publish failure", "scheduled_post_id", post.ID, "error", rerr)
	}
	s.logEvent(ctx, nil, post.ID, models.HistoryEventFailed, models.FailedEventData{
		Error:      err.Error(),
		RetryCount: retryCount,
	}, nowMs)

	if status == models.ScheduledStatusFailed {
		metrics.ObservePublish("failed")
	} else {
		metrics.ObservePublish("retry")
	}

	return models.SweepDetail{
		ID:     post.ID,
		Title:  post.Title,
		Status: models.ScheduledStatusFailed,
		Error:  err.Error(),
	}
}

// publish materialises the blog post and marks the scheduled post published
// in a single transaction.
func (s *publisherService) publish(ctx context.Context, post *models.ScheduledPost, now time.Time, auto bool) (blogPostID string, err error) {
	nowMs := now.UnixMilli()
	blogPost := newBlogPost(post, now)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	if err = s.bp.Create(ctx, tx, blogPost); err != nil {
		return "", fmt.Errorf("create blog post: %w", err)
	}

	if err = s.sp.MarkPublished(ctx, tx, post.ID, blogPost.ID, nowMs); err != nil {
		return "", fmt.Errorf("mark scheduled post published: %w", err)
	}

	data, err := json.Marshal(models.PublishedEventData{
		BlogPostID:    blogPost.ID,
		PublishedAt:   transfer.ISOTime(now),
		AutoPublished: auto,
	})
	if err != nil {
		return "", fmt.Errorf("encode history event: %w", err)
	}
	if err = s.ph.Create(ctx, tx, &models.ScheduledPostHistory{
		ID:              uuid.NewString(),
		ScheduledPostID: post.ID,
		EventType:       models.HistoryEventPublished,
		EventData:       data,
		CreatedAt:       nowMs,
	}); err != nil {
		return "", fmt.Errorf("record publish history: %w", err)
	}

	if post.CountsTowardCategory() {
		if err = s.cr.IncrementPostCount(ctx, tx, post.Category); err != nil {
			return "", fmt.Errorf("update category count: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return blogPost.ID, nil
}

// logEvent appends a history event outside the publish transaction. History
// is for observability only, so a write failure is logged and swallowed.
func (s *publisherService) logEvent(ctx context.Context, tx *sql.Tx, scheduledPostID, eventType string, payload any, nowMs int64) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to encode history event", "scheduled_post_id", scheduledPostID, "error", err)
		return
	}

	err = s.ph.Create(ctx, tx, &models.ScheduledPostHistory{
		ID:              uuid.NewString(),
		ScheduledPostID: scheduledPostID,
		EventType:       eventType,
		EventData:       data,
		CreatedAt:       nowMs,
	})
	if err != nil {
		slog.Error("failed to record history event",
			"scheduled_post_id", scheduledPostID,
			"event_type", eventType,
			"error", err,
		)
	}
}

func newBlogPost(post *models.ScheduledPost, now time.Time) *models.BlogPost {
	nowMs := now.UnixMilli()
	return &models.BlogPost{
		ID:            uuid.NewString(),
		Title:         post.Title,
		Content:       post.Content,
		Excerpt:       post.Excerpt,
		ImageURL:      post.ImageURL,
		Author:        post.Author,
		Category:      post.Category,
		Subcategory:   post.Subcategory,
		Tags:          post.Tags,
		Slug:          post.Slug,
		PublishedDate: transfer.ISOTime(now),
		Status:        models.BlogPostStatusPublished,
		Featured:      post.IsFeatured,
		CreatedAt:     nowMs,
		UpdatedAt:     nowMs,
	}
}
