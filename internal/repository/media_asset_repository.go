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

type MediaAssetRepository interface {
	Create(ctx context.Context, ma *models.MediaAsset) error
	GetByID(ctx context.Context, id string) (*models.MediaAsset, error)
	List(ctx context.Context, limit int) ([]*models.MediaAsset, error)
}

type mediaAssetRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

var mediaAssetColumns = []string{"id", "file_name", "file_type", "file_size", "file_url", "width", "height", "created_at"}

func NewMediaAssetRepository(db *sql.DB, sb sq.StatementBuilderType) MediaAssetRepository {
	return &mediaAssetRepository{db: db, sb: sb}
}

func (r *mediaAssetRepository) Create(ctx context.Context, ma *models.MediaAsset) error {
	query, args, err := r.sb.
		Insert("media_assets").
		Columns(mediaAssetColumns...).
		Values(ma.ID, ma.FileName, ma.FileType, ma.FileSize, ma.FileURL, ma.Width, ma.Height, ma.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build media asset insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *mediaAssetRepository) GetByID(ctx context.Context, id string) (*models.MediaAsset, error) {
	query, args, err := r.sb.
		Select(mediaAssetColumns...).
		From("media_assets").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build media asset select: %w", err)
	}

	var ma models.MediaAsset
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&ma.ID, &ma.FileName, &ma.FileType, &ma.FileSize, &ma.FileURL, &ma.Width, &ma.Height, &ma.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &ma, nil
}

func (r *mediaAssetRepository) List(ctx context.Context, limit int) ([]*models.MediaAsset, error) {
	q := r.sb.
		Select(mediaAssetColumns...).
		From("media_assets").
		OrderBy("created_at DESC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build media asset list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	assets := []*models.MediaAsset{}
	for rows.Next() {
		var ma models.MediaAsset
		if err := rows.Scan(&ma.ID, &ma.FileName, &ma.FileType, &ma.FileSize, &ma.FileURL, &ma.Width, &ma.Height, &ma.CreatedAt); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		assets = append(assets, &ma)
	}
	return assets, rows.Err()
}
