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

type BlogPostRepository interface {
	Create(ctx context.Context, tx *sql.Tx, post *models.BlogPost) error
	GetByID(ctx context.Context, id string) (*models.BlogPost, error)
	Count(ctx context.Context) (int, error)
}

type blogPostRepository struct {
	db *sql.DB
	sb sq.StatementBuilderType
}

func NewBlogPostRepository(db *sql.DB, sb sq.StatementBuilderType) BlogPostRepository {
	return &blogPostRepository{db: db, sb: sb}
}

var blogPostColumns = []string{
	"id", "title", "content", "excerpt", "image_url", "author", "category", "subcategory", "tags",
	"published_date", "status", "featured", "views", "likes", "comments_count", "created_at", "updated_at", "slug",
}

func (r *blogPostRepository) Create(ctx context.Context, tx *sql.Tx, post *models.BlogPost) error {
	tags, err := encodeTags(post.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}

	query, args, err := r.sb.
		Insert("blog_posts").
		Columns(blogPostColumns...).
		Values(
			post.ID, post.Title, post.Content, post.Excerpt, post.ImageURL, post.Author, post.Category, post.Subcategory, tags,
			post.PublishedDate, post.Status, boolToInt(post.Featured), post.Views, post.Likes, post.CommentsCount,
			post.CreatedAt, post.UpdatedAt, post.Slug,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build blog post insert: %w", err)
	}

	if _, err := pick(r.db, tx).ExecContext(ctx, query, args...); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *blogPostRepository) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	query, args, err := r.sb.Select(blogPostColumns...).From("blog_posts").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build blog post select: %w", err)
	}

	var (
		p    models.BlogPost
		tags string
	)
	err = r.db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID, &p.Title, &p.Content, &p.Excerpt, &p.ImageURL, &p.Author, &p.Category, &p.Subcategory, &tags,
		&p.PublishedDate, &p.Status, &p.Featured, &p.Views, &p.Likes, &p.CommentsCount, &p.CreatedAt, &p.UpdatedAt, &p.Slug,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		slog.Info(err.Error())
		return nil, err
	}
	p.Tags = decodeTags(tags)
	return &p, nil
}

func (r *blogPostRepository) Count(ctx context.Context) (int, error) {
	query, args, err := r.sb.Select("COUNT(*)").From("blog_posts").ToSql()
	if err != nil {
		return 0, fmt.Errorf("build blog post count: %w", err)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return n, nil
}
