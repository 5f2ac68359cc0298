package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Houman6460/fooodis-blog-sub005/internal/models"
	"github.com/Houman6460/fooodis-blog-sub005/internal/repository"
)

type testStore struct {
	db *sql.DB
	sp repository.ScheduledPostRepository
	bp repository.BlogPostRepository
	ph repository.ScheduledPostHistoryRepository
	cr repository.CategoryRepository
	ma repository.MediaAssetRepository
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := repository.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sb := repository.Builder(repository.DriverSQLite)
	return &testStore{
		db: db,
		sp: repository.NewScheduledPostRepository(db, sb),
		bp: repository.NewBlogPostRepository(db, sb),
		ph: repository.NewScheduledPostHistoryRepository(db, sb),
		cr: repository.NewCategoryRepository(db, sb),
		ma: repository.NewMediaAssetRepository(db, sb),
	}
}

func (s *testStore) publisher() PublisherService {
	return NewPublisherService(s.db, s.sp, s.bp, s.ph, s.cr)
}

func (s *testStore) insertPost(t *testing.T, p *models.ScheduledPost) {
	t.Helper()
	if err := s.sp.Create(context.Background(), nil, p); err != nil {
		t.Fatalf("create %s: %v", p.ID, err)
	}
}

func (s *testStore) insertCategory(t *testing.T, name string) {
	t.Helper()
	err := s.cr.Create(context.Background(), &models.Category{ID: "cat-" + name, Name: name, Slug: name})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
}

func (s *testStore) post(t *testing.T, id string) *models.ScheduledPost {
	t.Helper()
	p, err := s.sp.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get %s: %v", id, err)
	}
	return p
}

func (s *testStore) categoryCount(t *testing.T, name string) int {
	t.Helper()
	c, err := s.cr.GetByName(context.Background(), name)
	if err != nil {
		t.Fatalf("get category: %v", err)
	}
	return c.PostCount
}

func (s *testStore) blogPostCount(t *testing.T) int {
	t.Helper()
	n, err := s.bp.Count(context.Background())
	if err != nil {
		t.Fatalf("count blog posts: %v", err)
	}
	return n
}

func (s *testStore) history(t *testing.T, id string) []*models.ScheduledPostHistory {
	t.Helper()
	events, err := s.ph.ListByScheduledPostID(context.Background(), id)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	return events
}

// flakyBlogPosts fails the first n inserts.
type flakyBlogPosts struct {
	repository.BlogPostRepository
	failures int
	calls    int
}

func (f *flakyBlogPosts) Create(ctx context.Context, tx *sql.Tx, post *models.BlogPost) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("blog store rejected insert")
	}
	return f.BlogPostRepository.Create(ctx, tx, post)
}

var testNow = time.UnixMilli(1_700_000_000_000).UTC()

func duePost(id string, scheduled int64) *models.ScheduledPost {
	return &models.ScheduledPost{
		ID:                id,
		Title:             "Title " + id,
		Content:           "Body",
		Author:            models.DefaultAuthor,
		Category:          models.UncategorizedCategory,
		Tags:              []string{},
		ScheduledDatetime: scheduled,
		Timezone:          models.DefaultTimezone,
		Source:            models.DefaultSource,
		Status:            models.ScheduledStatusPending,
		MaxRetries:        models.DefaultMaxRetries,
		CreatedAt:         scheduled,
		UpdatedAt:         scheduled,
	}
}
