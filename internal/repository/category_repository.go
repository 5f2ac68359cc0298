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

type CategoryRepository interface {
	Create(ctx context.Context, category *models.Category) error
	GetByName(ctx context.Context, name string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	IncrementPostCount(ctx context.Context, tx *sql.Tx, name string) error
}

type categoryRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewCategoryRepository(db *sql.DB, sb sq.StatementBuilderType) CategoryRepository {
	return &categoryRepository{db: db, sb: sb}
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	query, args, err := r.sb.
		Insert("categories").
		Columns("id", "name", "slug", "post_count").
		Values(category.ID, category.Name, category.Slug, category.PostCount).
		ToSql()
	if err != nil {
		return fmt.Errorf("build category insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *categoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	query, args, err := r.sb.
		Select("id", "name", "slug", "post_count").
		From("categories").
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category select: %w", err)
	}

	var c models.Category
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&c.ID, &c.Name, &c.Slug, &c.PostCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]*models.Category, error) {
	query, args, err := r.sb.
		Select("id", "name", "slug", "post_count").
		From("categories").
		OrderBy("name ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build category list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	categories := []*models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.PostCount); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// IncrementPostCount bumps the denormalized counter. Unknown names are a no-op.
func (r *categoryRepository) IncrementPostCount(ctx context.Context, tx *sql.Tx, name string) error {
	query, args, err := r.sb.
		Update("categories").
		Set("post_count", sq.Expr("post_count + 1")).
		Where(sq.Eq{"name": name}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build category increment: %w", err)
	}
	if _, err := pick(r.db, tx).ExecContext(ctx, query, args...); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
