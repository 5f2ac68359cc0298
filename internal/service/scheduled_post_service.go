package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Houman6460/fooodis-blog-sub005/internal/models"
	"github.com/Houman6460/fooodis-blog-sub005/internal/repository"
	"github.com/Houman6460/fooodis-blog-sub005/internal/transfer"
	"github.com/Houman6460/fooodis-blog-sub005/pkg/utils"
	"github.com/google/uuid"
)

// ValidationError is a client mistake; its message is safe to return as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type ScheduledPostService interface {
	Create(ctx context.Context, pc *transfer.ScheduledPostCreation) (*models.ScheduledPost, error)
	List(ctx context.Context, filter repository.ScheduledPostFilter) (*transfer.ScheduledPostList, error)
	Get(ctx context.Context, id string) (*transfer.ScheduledPostDetail, error)
	Update(ctx context.Context, id string, pu *transfer.ScheduledPostUpdate) (*models.ScheduledPost, error)
	Remove(ctx context.Context, id string) error
}

type scheduledPostService struct {
	db    *sql.DB
	sp    repository.ScheduledPostRepository
	ph    repository.ScheduledPostHistoryRepository
	clock func() time.Time
}

func NewScheduledPostService(
	db *sql.DB,
	sp repository.ScheduledPostRepository,
	ph repository.ScheduledPostHistoryRepository) ScheduledPostService {
	return &scheduledPostService{
		db:    db,
		sp:    sp,
		ph:    ph,
		clock: time.Now,
	}
}

// BuildScheduledPost validates a creation request and fills every default,
// so the rest of the service never has to patch up partial posts.
func BuildScheduledPost(pc *transfer.ScheduledPostCreation, now time.Time) (*models.ScheduledPost, error) {
	if pc == nil {
		return nil, invalid("post data is required")
	}

	title := strings.TrimSpace(pc.Title)
	if title == "" {
		return nil, invalid("Title is required")
	}
	if pc.ScheduledDatetime == nil {
		return nil, invalid("Scheduled date/time is required")
	}

	nowMs := now.UnixMilli()
	scheduled := int64(*pc.ScheduledDatetime)
	if scheduled <= nowMs {
		return nil, invalid("Cannot schedule in the past")
	}
	if pc.MaxRetries < 0 {
		return nil, invalid("max_retries must not be negative")
	}

	post := &models.ScheduledPost{
		ID:                 uuid.NewString(),
		Title:              title,
		Content:            pc.Content,
		Excerpt:            pc.Excerpt,
		ImageURL:           pc.ImageURL,
		Author:             orDefault(pc.Author, models.DefaultAuthor),
		Category:           orDefault(pc.Category, models.UncategorizedCategory),
		Subcategory:        pc.Subcategory,
		Tags:               pc.Tags,
		Slug:               pc.Slug,
		ScheduledDatetime:  scheduled,
		Timezone:           orDefault(pc.Timezone, models.DefaultTimezone),
		Source:             orDefault(pc.Source, models.DefaultSource),
		AutomationPathID:   pc.AutomationPathID,
		AutomationPathName: pc.AutomationPathName,
		Status:             models.ScheduledStatusPending,
		IsFeatured:         pc.IsFeatured,
		Priority:           pc.Priority,
		MaxRetries:         pc.MaxRetries,
		CreatedAt:          nowMs,
		UpdatedAt:          nowMs,
	}
	if post.Tags == nil {
		post.Tags = []string{}
	}
	if post.Slug == "" {
		post.Slug = utils.Slugify(title)
	}
	if post.MaxRetries == 0 {
		post.MaxRetries = models.DefaultMaxRetries
	}
	return post, nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func (s *scheduledPostService) Create(ctx context.Context, pc *transfer.ScheduledPostCreation) (post *models.ScheduledPost, err error) {
	if s.db == nil {
		return nil, ErrStoreUnavailable
	}

	now := s.clock()
	post, err = BuildScheduledPost(pc, now)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	if err = s.sp.Create(ctx, tx, post); err != nil {
		return nil, fmt.Errorf("error creating scheduled post: %w", err)
	}

	if err = s.record(ctx, tx, post.ID, models.HistoryEventCreated, map[string]any{
		"source":        post.Source,
		"scheduled_for": transfer.ISOMillis(post.ScheduledDatetime),
	}, now.UnixMilli()); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return post, nil
}

func (s *scheduledPostService) List(ctx context.Context, filter repository.ScheduledPostFilter) (*transfer.ScheduledPostList, error) {
	if s.db == nil {
		return nil, ErrStoreUnavailable
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	posts, total, err := s.sp.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list scheduled posts: %w", err)
	}

	list := &transfer.ScheduledPostList{
		Posts:   make([]transfer.ScheduledPostView, 0, len(posts)),
		Grouped: map[string][]transfer.ScheduledPostView{},
		Pagination: transfer.Pagination{
			Total:   total,
			Limit:   filter.Limit,
			Offset:  filter.Offset,
			HasMore: filter.Offset+len(posts) < total,
		},
	}
	for _, p := range posts {
		view := transfer.NewScheduledPostView(p)
		list.Posts = append(list.Posts, view)
		day := view.ScheduledDate[:len("2006-01-02")]
		list.Grouped[day] = append(list.Grouped[day], view)
	}
	return list, nil
}

func (s *scheduledPostService) Get(ctx context.Context, id string) (*transfer.ScheduledPostDetail, error) {
	if s.db == nil {
		return nil, ErrStoreUnavailable
	}

	post, err := s.sp.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	history, err := s.ph.ListByScheduledPostID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	return &transfer.ScheduledPostDetail{
		ScheduledPostView: transfer.NewScheduledPostView(post),
		History:           history,
	}, nil
}

func (s *scheduledPostService) Update(ctx context.Context, id string, pu *transfer.ScheduledPostUpdate) (post *models.ScheduledPost, err error) {
	if s.db == nil {
		return nil, ErrStoreUnavailable
	}
	if pu == nil {
		return nil, invalid("No fields to update")
	}

	post, err = s.sp.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.Status == models.ScheduledStatusPublished {
		return nil, ErrAlreadyPublished
	}
	readStatus := post.Status

	now := s.clock()
	nowMs := now.UnixMilli()
	changes := map[string]any{}
	changed := false

	if pu.Title != nil {
		title := strings.TrimSpace(*pu.Title)
		if title == "" {
			return nil, invalid("Title is required")
		}
		post.Title = title
		changes["title"] = title
		changed = true
	}
	if pu.Content != nil {
		post.Content = *pu.Content
		changed = true
	}
	if pu.Excerpt != nil {
		post.Excerpt = *pu.Excerpt
		changed = true
	}
	if pu.ImageURL != nil {
		post.ImageURL = *pu.ImageURL
		changed = true
	}
	if pu.Category != nil {
		post.Category = orDefault(*pu.Category, models.UncategorizedCategory)
		changed = true
	}
	if pu.Subcategory != nil {
		post.Subcategory = *pu.Subcategory
		changed = true
	}
	if pu.Tags != nil {
		post.Tags = *pu.Tags
		if post.Tags == nil {
			post.Tags = []string{}
		}
		changed = true
	}
	if pu.ScheduledDatetime != nil {
		scheduled := int64(*pu.ScheduledDatetime)
		if scheduled <= nowMs {
			return nil, invalid("Cannot schedule in the past")
		}
		post.ScheduledDatetime = scheduled
		changes["rescheduled_to"] = transfer.ISOMillis(scheduled)
		changed = true
	}
	if pu.IsFeatured != nil {
		post.IsFeatured = *pu.IsFeatured
		changed = true
	}
	if pu.Priority != nil {
		post.Priority = *pu.Priority
		changed = true
	}
	if pu.Status != nil {
		switch *pu.Status {
		case models.ScheduledStatusPending, models.ScheduledStatusCancelled:
			if post.Status == models.ScheduledStatusPublishing {
				return nil, ErrPostBusy
			}
			post.Status = *pu.Status
			changes["status"] = *pu.Status
			changed = true
		default:
			slog.Info("ignoring unsupported status change", "scheduled_post_id", id, "status", *pu.Status)
		}
	}
	if !changed {
		return nil, invalid("No fields to update")
	}
	post.UpdatedAt = nowMs

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	if err = s.sp.Update(ctx, tx, post, readStatus); err != nil {
		if errors.Is(err, repository.ErrNotClaimed) {
			// A publish attempt moved the post after it was read.
			return nil, s.statusConflict(ctx, tx, id)
		}
		return nil, fmt.Errorf("error updating scheduled post: %w", err)
	}

	eventType := models.HistoryEventUpdated
	if _, ok := changes["rescheduled_to"]; ok {
		eventType = models.HistoryEventRescheduled
	}
	if err = s.record(ctx, tx, post.ID, eventType, changes, nowMs); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return post, nil
}

// statusConflict releases the transaction and reports whether the post that
// changed underneath an edit has been published or is still moving.
func (s *scheduledPostService) statusConflict(ctx context.Context, tx *sql.Tx, id string) error {
	tx.Rollback()

	current, err := s.sp.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == models.ScheduledStatusPublished {
		return ErrAlreadyPublished
	}
	return ErrPostBusy
}

// Remove deletes a post that has not been published, keeping a cancelled
// event in the history table.
func (s *scheduledPostService) Remove(ctx context.Context, id string) (err error) {
	if s.db == nil {
		return ErrStoreUnavailable
	}

	post, err := s.sp.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if post.Status == models.ScheduledStatusPublished {
		return ErrAlreadyPublished
	}
	if post.Status == models.ScheduledStatusPublishing {
		return ErrPostBusy
	}

	now := s.clock()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	if err = s.record(ctx, tx, id, models.HistoryEventCancelled, map[string]any{
		"cancelled_at": transfer.ISOTime(now),
	}, now.UnixMilli()); err != nil {
		return err
	}

	if err = s.sp.Remove(ctx, tx, id); err != nil {
		return fmt.Errorf("error removing scheduled post: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *scheduledPostService) record(ctx context.Context, tx *sql.Tx, scheduledPostID, eventType string, payload any, nowMs int64) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode history event: %w", err)
	}

	err = s.ph.Create(ctx, tx, &models.ScheduledPostHistory{
		ID:              uuid.NewString(),
		ScheduledPostID: scheduledPostID,
		EventType:       eventType,
		EventData:       data,
		CreatedAt:       nowMs,
	})
	if err != nil {
		return fmt.Errorf("record %s history: %w", eventType, err)
	}
	return nil
}
