package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the database for the given driver and verifies the
// connection. SQLite databases get the same pragmas the blog store uses.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if driver == DriverSQLite {
		// Pragmas are per connection and SQLite has a single writer anyway.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, `
			PRAGMA journal_mode=WAL;
			PRAGMA busy_timeout=5000;
			PRAGMA foreign_keys=ON;
		`); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure sqlite: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Builder returns a statement builder with the placeholder format of the driver.
func Builder(driver string) sq.StatementBuilderType {
	if driver == DriverPostgres {
		return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS scheduled_posts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		excerpt TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		subcategory TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		slug TEXT NOT NULL DEFAULT '',
		scheduled_datetime BIGINT NOT NULL,
		timezone TEXT NOT NULL DEFAULT 'UTC',
		source TEXT NOT NULL DEFAULT 'manual',
		automation_path_id TEXT NOT NULL DEFAULT '',
		automation_path_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		is_featured INTEGER NOT NULL DEFAULT 0,
		priority INTEGER NOT NULL DEFAULT 0,
		retry_count INTEGER NOT NULL DEFAULT 0,
		max_retries INTEGER NOT NULL DEFAULT 3,
		last_attempt BIGINT,
		error_message TEXT,
		published_post_id TEXT,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scheduled_posts_due ON scheduled_posts (status, scheduled_datetime)`,
	`CREATE TABLE IF NOT EXISTS blog_posts (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		excerpt TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		subcategory TEXT NOT NULL DEFAULT '',
		tags TEXT NOT NULL DEFAULT '[]',
		published_date TEXT NOT NULL,
		status TEXT NOT NULL,
		featured INTEGER NOT NULL DEFAULT 0,
		views INTEGER NOT NULL DEFAULT 0,
		likes INTEGER NOT NULL DEFAULT 0,
		comments_count INTEGER NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		slug TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS scheduled_post_history (
		id TEXT PRIMARY KEY,
		scheduled_post_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		event_data TEXT,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scheduled_post_history_post ON scheduled_post_history (scheduled_post_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		slug TEXT NOT NULL DEFAULT '',
		post_count INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS media_assets (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		file_type TEXT NOT NULL,
		file_size BIGINT NOT NULL DEFAULT 0,
		file_url TEXT NOT NULL,
		width INTEGER NOT NULL DEFAULT 0,
		height INTEGER NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL
	)`,
}

// Migrate creates the tables the service needs when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func pick(db *sql.DB, tx *sql.Tx) execer {
	if tx != nil {
		return tx
	}
	return db
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeTags tolerates empty and malformed legacy values by returning no tags.
func decodeTags(raw string) []string {
	tags := []string{}
	if raw == "" {
		return tags
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		slog.Info("malformed tags value", "value", raw, "error", err)
		return []string{}
	}
	if tags == nil {
		return []string{}
	}
	return tags
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
