package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Houman6460/fooodis-blog-sub005/internal/models"
	sq "github.com/Masterminds/squirrel"
)

type ScheduledPostHistoryRepository interface {
	Create(ctx context.Context, tx *sql.Tx, event *models.ScheduledPostHistory) error
	ListByScheduledPostID(ctx context.Context, scheduledPostID string) ([]*models.ScheduledPostHistory, error)
}

type scheduledPostHistoryRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewScheduledPostHistoryRepository(db *sql.DB, sb sq.StatementBuilderType) ScheduledPostHistoryRepository {
	return &scheduledPostHistoryRepository{db: db, sb: sb}
}

func (r *scheduledPostHistoryRepository) Create(ctx context.Context, tx *sql.Tx, event *models.ScheduledPostHistory) error {
	var data any
	if len(event.EventData) > 0 {
		data = string(event.EventData)
	}

	query, args, err := r.sb.
		Insert("scheduled_post_history").
		Columns("id", "scheduled_post_id", "event_type", "event_data", "created_at").
		Values(event.ID, event.ScheduledPostID, event.EventType, data, event.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build history insert: %w", err)
	}

	if _, err := pick(r.db, tx).ExecContext(ctx, query, args...); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

// ListByScheduledPostID returns the post's events, newest first.
func (r *scheduledPostHistoryRepository) ListByScheduledPostID(ctx context.Context, scheduledPostID string) ([]*models.ScheduledPostHistory, error) {
	query, args, err := r.sb.
		Select("id", "scheduled_post_id", "event_type", "event_data", "created_at").
		From("scheduled_post_history").
		Where(sq.Eq{"scheduled_post_id": scheduledPostID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build history select: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	events := []*models.ScheduledPostHistory{}
	for rows.Next() {
		var (
			e    models.ScheduledPostHistory
			data sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.ScheduledPostID, &e.EventType, &data, &e.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		if data.Valid && data.String != "" {
			e.EventData = []byte(data.String)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return events, nil
}
