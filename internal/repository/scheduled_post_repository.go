package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Houman6460/fooodis-blog-sub005/internal/models"
	sq "github.com/Masterminds/squirrel"
)

// ErrNotClaimed is returned when a status transition finds the post in a
// state other than the one the caller holds.
var ErrNotClaimed = errors.New("scheduled post is not in the expected status")

type ScheduledPostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) error
	GetByID(ctx context.Context, id string) (*models.ScheduledPost, error)
	ListDue(ctx context.Context, now int64) ([]*models.ScheduledPost, error)
	List(ctx context.Context, filter ScheduledPostFilter) ([]*models.ScheduledPost, int, error)
	ListStranded(ctx context.Context, attemptedBefore int64) ([]*models.ScheduledPost, error)
	Claim(ctx context.Context, id string, fromStatuses []string, now int64) (bool, error)
	MarkPublished(ctx context.Context, tx *sql.Tx, id, blogPostID string, now int64) error
	RecordFailure(ctx context.Context, id, fromStatus, status string, retryCount int, errorMessage string, now int64) error
	Update(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost, fromStatus string) error
	Remove(ctx context.Context, tx *sql.Tx, id string) error
}

// ScheduledPostFilter narrows List. Zero values mean "no constraint".
type ScheduledPostFilter struct {
	Status           string
	Source           string
	AutomationPathID string
	From             int64
	To               int64
	IncludePublished bool
	Limit            int
	Offset           int
}

type scheduledPostRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewScheduledPostRepository(db *sql.DB, sb sq.StatementBuilderType) ScheduledPostRepository {
	return &scheduledPostRepository{db: db, sb: sb}
}

var scheduledPostColumns = []string{
	"id", "title", "content", "excerpt", "image_url", "author", "category", "subcategory",
	"tags", "slug", "scheduled_datetime", "timezone", "source", "automation_path_id",
	"automation_path_name", "status", "is_featured", "priority", "retry_count", "max_retries",
	"last_attempt", "error_message", "published_post_id", "created_at", "updated_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScheduledPost(row rowScanner) (*models.ScheduledPost, error) {
	var (
		p               models.ScheduledPost
		tags            string
		lastAttempt     sql.NullInt64
		errorMessage    sql.NullString
		publishedPostID sql.NullString
	)
	err := row.Scan(
		&p.ID, &p.Title, &p.Content, &p.Excerpt, &p.ImageURL, &p.Author, &p.Category, &p.Subcategory,
		&tags, &p.Slug, &p.ScheduledDatetime, &p.Timezone, &p.Source, &p.AutomationPathID,
		&p.AutomationPathName, &p.Status, &p.IsFeatured, &p.Priority, &p.RetryCount, &p.MaxRetries,
		&lastAttempt, &errorMessage, &publishedPostID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.Tags = decodeTags(tags)
	if lastAttempt.Valid {
		p.LastAttempt = &lastAttempt.Int64
	}
	if errorMessage.Valid {
		p.ErrorMessage = &errorMessage.String
	}
	if publishedPostID.Valid {
		p.PublishedPostID = &publishedPostID.String
	}
	return &p, nil
}

func (r *scheduledPostRepository) queryPosts(ctx context.Context, q sq.SelectBuilder) ([]*models.ScheduledPost, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build scheduled posts select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	posts := []*models.ScheduledPost{}
	for rows.Next() {
		post, err := scanScheduledPost(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return posts, nil
}

func (r *scheduledPostRepository) Create(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost) error {
	tags, err := encodeTags(post.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	query, args, err := r.sb.
		Insert("scheduled_posts").
		Columns(scheduledPostColumns...).
		Values(
			post.ID, post.Title, post.Content, post.Excerpt, post.ImageURL, post.Author, post.Category, post.Subcategory,
			tags, post.Slug, post.ScheduledDatetime, post.Timezone, post.Source, post.AutomationPathID,
			post.AutomationPathName, post.Status, boolToInt(post.IsFeatured), post.Priority, post.RetryCount, post.MaxRetries,
			post.LastAttempt, post.ErrorMessage, post.PublishedPostID, post.CreatedAt, post.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build scheduled post insert: %w", err)
	}

	if _, err := pick(r.db, tx).ExecContext(ctx, query, args...); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *scheduledPostRepository) GetByID(ctx context.Context, id string) (*models.ScheduledPost, error) {
	query, args, err := r.sb.
		Select(scheduledPostColumns...).
		From("scheduled_posts").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build scheduled post select: %w", err)
	}

	post, err := scanScheduledPost(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}
	return post, nil
}

// ListDue returns pending posts whose due time has passed, highest priority
// first and earliest schedule first within a priority.
func (r *scheduledPostRepository) ListDue(ctx context.Context, now int64) ([]*models.ScheduledPost, error) {
	q := r.sb.
		Select(scheduledPostColumns...).
		From("scheduled_posts").
		Where(sq.Eq{"status": models.ScheduledStatusPending}).
		Where(sq.LtOrEq{"scheduled_datetime": now}).
		OrderBy("priority DESC", "scheduled_datetime ASC", "id ASC")
	return r.queryPosts(ctx, q)
}

func (r *scheduledPostRepository) ListStranded(ctx context.Context, attemptedBefore int64) ([]*models.ScheduledPost, error) {
	q := r.sb.
		Select(scheduledPostColumns...).
		From("scheduled_posts").
		Where(sq.Eq{"status": models.ScheduledStatusPublishing}).
		Where(sq.Or{sq.Eq{"last_attempt": nil}, sq.Lt{"last_attempt": attemptedBefore}}).
		OrderBy("last_attempt ASC")
	return r.queryPosts(ctx, q)
}

func (r *scheduledPostRepository) List(ctx context.Context, filter ScheduledPostFilter) ([]*models.ScheduledPost, int, error) {
	where := sq.And{}
	if !filter.IncludePublished {
		where = append(where, sq.Eq{"status": []string{
			models.ScheduledStatusPending,
			models.ScheduledStatusPublishing,
			models.ScheduledStatusFailed,
		}})
	}
	if filter.Status != "" {
		where = append(where, sq.Eq{"status": filter.Status})
	}
	if filter.Source != "" {
		where = append(where, sq.Eq{"source": filter.Source})
	}
	if filter.AutomationPathID != "" {
		where = append(where, sq.Eq{"automation_path_id": filter.AutomationPathID})
	}
	if filter.From > 0 {
		where = append(where, sq.GtOrEq{"scheduled_datetime": filter.From})
	}
	if filter.To > 0 {
		where = append(where, sq.LtOrEq{"scheduled_datetime": filter.To})
	}

	countQuery, countArgs, err := r.sb.Select("COUNT(*)").From("scheduled_posts").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build scheduled posts count: %w", err)
	}
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		slog.Info(err.Error())
		return nil, 0, err
	}

	q := r.sb.
		Select(scheduledPostColumns...).
		From("scheduled_posts").
		Where(where).
		OrderBy("scheduled_datetime ASC", "id ASC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	posts, err := r.queryPosts(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Claim moves the post to publishing if it is still in one of fromStatuses.
// It reports false when another caller got there first.
func (r *scheduledPostRepository) Claim(ctx context.Context, id string, fromStatuses []string, now int64) (bool, error) {
	query, args, err := r.sb.
		Update("scheduled_posts").
		Set("status", models.ScheduledStatusPublishing).
		Set("last_attempt", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "status": fromStatuses}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build scheduled post claim: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return false, err
	}
	return affected == 1, nil
}

func (r *scheduledPostRepository) MarkPublished(ctx context.Context, tx *sql.Tx, id, blogPostID string, now int64) error {
	query, args, err := r.sb.
		Update("scheduled_posts").
		Set("status", models.ScheduledStatusPublished).
		Set("published_post_id", blogPostID).
		Set("error_message", nil).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "status": models.ScheduledStatusPublishing}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build scheduled post publish: %w", err)
	}

	res, err := pick(r.db, tx).ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return ErrNotClaimed
	}
	return nil
}

func (r *scheduledPostRepository) RecordFailure(ctx context.Context, id, fromStatus, status string, retryCount int, errorMessage string, now int64) error {
	query, args, err := r.sb.
		Update("scheduled_posts").
		Set("status", status).
		Set("retry_count", retryCount).
		Set("error_message", errorMessage).
		Set("last_attempt", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": id, "status": fromStatus}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build scheduled post failure update: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return ErrNotClaimed
	}
	return nil
}

// Update writes the editable fields of a post that is still in fromStatus.
// The status column is only written when the post carries a new status, so
// an edit never undoes a transition made by a concurrent publish attempt.
func (r *scheduledPostRepository) Update(ctx context.Context, tx *sql.Tx, post *models.ScheduledPost, fromStatus string) error {
	tags, err := encodeTags(post.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	fields := map[string]any{
		"title":              post.Title,
		"content":            post.Content,
		"excerpt":            post.Excerpt,
		"image_url":          post.ImageURL,
		"category":           post.Category,
		"subcategory":        post.Subcategory,
		"tags":               tags,
		"scheduled_datetime": post.ScheduledDatetime,
		"is_featured":        boolToInt(post.IsFeatured),
		"priority":           post.Priority,
		"updated_at":         post.UpdatedAt,
	}
	if post.Status != fromStatus {
		fields["status"] = post.Status
	}

	query, args, err := r.sb.
		Update("scheduled_posts").
		SetMap(fields).
		Where(sq.Eq{"id": post.ID, "status": fromStatus}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build scheduled post update: %w", err)
	}

	res, err := pick(r.db, tx).ExecContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		return ErrNotClaimed
	}
	return nil
}

func (r *scheduledPostRepository) Remove(ctx context.Context, tx *sql.Tx, id string) error {
	query, args, err := r.sb.Delete("scheduled_posts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build scheduled post delete: %w", err)
	}
	if _, err := pick(r.db, tx).ExecContext(ctx, query, args...); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
