package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Houman6460/fooodis-blog-sub005/internal/models"
	"github.com/Houman6460/fooodis-blog-sub005/internal/repository"
	"github.com/Houman6460/fooodis-blog-sub005/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
)

type testEnv struct {
	app   *fiber.App
	db    *sql.DB
	sp    repository.ScheduledPostRepository
	cr    repository.CategoryRepository
	check *CheckHandler
	queue *recordingEnqueuer
}

type recordingEnqueuer struct {
	tasks []*asynq.Task
}

func (r *recordingEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{}, nil
}

func newTestEnv(t *testing.T) *testEnv {
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
	sp := repository.NewScheduledPostRepository(db, sb)
	bp := repository.NewBlogPostRepository(db, sb)
	ph := repository.NewScheduledPostHistoryRepository(db, sb)
	cr := repository.NewCategoryRepository(db, sb)

	publisher := service.NewPublisherService(db, sp, bp, ph, cr)
	env := &testEnv{
		app:   fiber.New(),
		db:    db,
		sp:    sp,
		cr:    cr,
		check: NewCheckHandler(publisher),
		queue: &recordingEnqueuer{},
	}

	env.app.Get("/api/scheduled-posts/check", env.check.ListDue)
	env.app.Post("/api/scheduled-posts/check", env.check.CheckAndPublish)

	posts := NewScheduledPostHandler(service.NewScheduledPostService(db, sp, ph), publisher, env.queue)
	env.app.Get("/api/scheduled-posts", posts.ListScheduledPosts)
	env.app.Post("/api/scheduled-posts", posts.CreateScheduledPost)
	env.app.Get("/api/scheduled-posts/:id", posts.GetScheduledPost)
	env.app.Put("/api/scheduled-posts/:id", posts.UpdateScheduledPost)
	env.app.Delete("/api/scheduled-posts/:id", posts.RemoveScheduledPost)
	env.app.Post("/api/scheduled-posts/:id/publish", posts.PublishScheduledPost)

	categories := NewCategoryHandler(service.NewCategoryService(cr))
	env.app.Get("/api/categories", categories.ListCategories)
	env.app.Post("/api/categories", categories.CreateCategory)
	return env
}

func (e *testEnv) do(t *testing.T, method, target, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()

	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

func (e *testEnv) insertDue(t *testing.T, id string, tags []string, scheduled int64) {
	t.Helper()
	err := e.sp.Create(context.Background(), nil, &models.ScheduledPost{
		ID:                id,
		Title:             "Title " + id,
		Category:          "Recipes",
		Tags:              tags,
		ScheduledDatetime: scheduled,
		Status:            models.ScheduledStatusPending,
		MaxRetries:        models.DefaultMaxRetries,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func TestCheckListsDuePosts(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()
	env.check.clock = func() time.Time { return now }

	env.insertDue(t, "sp1", []string{"vegan", "quick"}, now.Add(-time.Minute).UnixMilli())
	env.insertDue(t, "later", nil, now.Add(time.Hour).UnixMilli())

	status, body := env.do(t, http.MethodGet, "/api/scheduled-posts/check", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if body["due_count"] != float64(1) {
		t.Fatalf("due_count = %v", body["due_count"])
	}

	post := body["posts"].([]any)[0].(map[string]any)
	tags := post["tags"].([]any)
	if len(tags) != 2 || tags[0] != "vegan" || tags[1] != "quick" {
		t.Errorf("tags = %v", tags)
	}
	if post["is_overdue"] != true {
		t.Errorf("is_overdue = %v", post["is_overdue"])
	}
	if _, ok := post["scheduled_date"].(string); !ok {
		t.Errorf("scheduled_date = %v", post["scheduled_date"])
	}
}

func TestCheckRunsSweep(t *testing.T) {
	env := newTestEnv(t)
	if err := env.cr.Create(context.Background(), &models.Category{ID: "c1", Name: "Recipes"}); err != nil {
		t.Fatalf("category: %v", err)
	}
	env.insertDue(t, "sp1", []string{"vegan"}, time.Now().Add(-time.Minute).UnixMilli())

	status, body := env.do(t, http.MethodPost, "/api/scheduled-posts/check", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d, body = %v", status, body)
	}
	if body["success"] != true || body["checked"] != float64(1) || body["published"] != float64(1) || body["failed"] != float64(0) {
		t.Errorf("body = %v", body)
	}
	detail := body["details"].([]any)[0].(map[string]any)
	if detail["status"] != "published" || detail["blog_post_id"] == "" {
		t.Errorf("detail = %v", detail)
	}

	c, err := env.cr.GetByName(context.Background(), "Recipes")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	if c.PostCount != 1 {
		t.Errorf("post_count = %d, want 1", c.PostCount)
	}
}

func TestCheckWithoutStore(t *testing.T) {
	app := fiber.New()
	check := NewCheckHandler(service.NewPublisherService(nil, nil, nil, nil, nil))
	app.Get("/check", check.ListDue)
	app.Post("/check", check.CheckAndPublish)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		resp, err := app.Test(httptest.NewRequest(method, "/check", nil), -1)
		if err != nil {
			t.Fatalf("%s: %v", method, err)
		}
		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusInternalServerError || body["error"] == nil {
			t.Errorf("%s: status = %d, body = %v", method, resp.StatusCode, body)
		}
	}
}

func TestScheduledPostLifecycle(t *testing.T) {
	env := newTestEnv(t)
	due := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)

	status, body := env.do(t, http.MethodPost, "/api/scheduled-posts",
		`{"title":"Lentil Soup","scheduled_datetime":"`+due+`","tags":["vegan"]}`)
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, body = %v", status, body)
	}
	post := body["post"].(map[string]any)
	id := post["id"].(string)
	if post["slug"] != "lentil-soup" || post["status"] != "pending" {
		t.Errorf("post = %v", post)
	}
	if len(env.queue.tasks) != 1 {
		t.Errorf("queued tasks = %d, want 1", len(env.queue.tasks))
	}

	status, body = env.do(t, http.MethodGet, "/api/scheduled-posts/"+id, "")
	if status != http.StatusOK || len(body["history"].([]any)) != 1 {
		t.Fatalf("get status = %d, body = %v", status, body)
	}

	status, body = env.do(t, http.MethodGet, "/api/scheduled-posts", "")
	if status != http.StatusOK || len(body["posts"].([]any)) != 1 {
		t.Fatalf("list status = %d, body = %v", status, body)
	}

	status, body = env.do(t, http.MethodPost, "/api/scheduled-posts/"+id+"/publish", "")
	if status != http.StatusOK || body["status"] != "published" {
		t.Fatalf("publish status = %d, body = %v", status, body)
	}

	status, body = env.do(t, http.MethodPut, "/api/scheduled-posts/"+id, `{"title":"Changed"}`)
	if status != http.StatusBadRequest {
		t.Errorf("update published status = %d, body = %v", status, body)
	}
	status, _ = env.do(t, http.MethodDelete, "/api/scheduled-posts/"+id, "")
	if status != http.StatusBadRequest {
		t.Errorf("delete published status = %d", status)
	}
}

func TestScheduledPostErrors(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/scheduled-posts", `{"title":"Soup"}`)
	if status != http.StatusBadRequest || body["error"] != "Scheduled date/time is required" {
		t.Errorf("missing schedule: %d %v", status, body)
	}

	status, body = env.do(t, http.MethodPost, "/api/scheduled-posts", `{"title":"Soup","scheduled_datetime":1000}`)
	if status != http.StatusBadRequest || body["error"] != "Cannot schedule in the past" {
		t.Errorf("past schedule: %d %v", status, body)
	}

	status, body = env.do(t, http.MethodGet, "/api/scheduled-posts/missing", "")
	if status != http.StatusNotFound || body["error"] != scheduledPostNotFound {
		t.Errorf("missing post: %d %v", status, body)
	}

	status, _ = env.do(t, http.MethodGet, "/api/scheduled-posts?from_date=soon", "")
	if status != http.StatusBadRequest {
		t.Errorf("bad from_date: %d", status)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	env := newTestEnv(t)

	status, body := env.do(t, http.MethodPost, "/api/categories", `{"name":"Desserts"}`)
	if status != http.StatusCreated || body["slug"] != "desserts" {
		t.Fatalf("create: %d %v", status, body)
	}
	status, body = env.do(t, http.MethodPost, "/api/categories", `{"name":"Uncategorized"}`)
	if status != http.StatusBadRequest {
		t.Errorf("reserved name: %d %v", status, body)
	}

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/api/categories", nil), -1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	defer resp.Body.Close()
	var categories []models.Category
	if err := json.NewDecoder(resp.Body).Decode(&categories); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(categories) != 1 || categories[0].Name != "Desserts" {
		t.Errorf("categories = %+v", categories)
	}
}
