package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Houman6460/fooodis-blog-sub005/internal/models"
	"github.com/Houman6460/fooodis-blog-sub005/internal/repository"
	"github.com/Houman6460/fooodis-blog-sub005/internal/service"
	"github.com/spf13/cobra"
)

type cliEnv struct {
	sp     repository.ScheduledPostRepository
	ps     service.PublisherService
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.DriverSQLite, filepath.Join(t.TempDir(), "cli.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := repository.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	sb := repository.Builder(repository.DriverSQLite)
	sp := repository.NewScheduledPostRepository(db, sb)
	return &cliEnv{
		sp: sp,
		ps: service.NewPublisherService(db, sp,
			repository.NewBlogPostRepository(db, sb),
			repository.NewScheduledPostHistoryRepository(db, sb),
			repository.NewCategoryRepository(db, sb)),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
}

func (e *cliEnv) run(t *testing.T, jsonMode bool, args ...string) error {
	t.Helper()
	e.stdout.Reset()
	e.stderr.Reset()

	root := &cobra.Command{Use: "test", SilenceUsage: true, SilenceErrors: true}
	root.AddCommand(NewScheduledPostCmds(
		func(*cobra.Command) (service.PublisherService, error) { return e.ps, nil },
		func() *Output { return NewOutputTo(jsonMode, e.stdout, e.stderr) },
	)...)
	root.SetArgs(args)
	return root.Execute()
}

func (e *cliEnv) insert(t *testing.T, id string, scheduled time.Time) {
	t.Helper()
	err := e.sp.Create(context.Background(), nil, &models.ScheduledPost{
		ID:                id,
		Title:             "Title " + id,
		Category:          models.UncategorizedCategory,
		ScheduledDatetime: scheduled.UnixMilli(),
		Status:            models.ScheduledStatusPending,
		MaxRetries:        models.DefaultMaxRetries,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
}

func TestDueCommandTable(t *testing.T) {
	env := newCLIEnv(t)
	env.insert(t, "sp1", time.Now().Add(-time.Minute))
	env.insert(t, "later", time.Now().Add(time.Hour))

	if err := env.run(t, false, "due"); err != nil {
		t.Fatalf("due: %v", err)
	}
	out := env.stdout.String()
	if !strings.Contains(out, "sp1") || strings.Contains(out, "later") {
		t.Errorf("output = %q", out)
	}
	if !strings.HasPrefix(out, "ID") {
		t.Errorf("missing header: %q", out)
	}
}

func TestSweepCommandJSON(t *testing.T) {
	env := newCLIEnv(t)
	env.insert(t, "sp1", time.Now().Add(-time.Minute))

	if err := env.run(t, true, "sweep"); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	var result models.PublishSweepResult
	if err := json.Unmarshal(env.stdout.Bytes(), &result); err != nil {
		t.Fatalf("decode %q: %v", env.stdout.String(), err)
	}
	if result.Published != 1 || result.Details[0].ID != "sp1" {
		t.Errorf("result = %+v", result)
	}
	if !strings.Contains(env.stderr.String(), "published 1") {
		t.Errorf("stderr = %q", env.stderr.String())
	}
}

func TestPublishCommandRequiresID(t *testing.T) {
	env := newCLIEnv(t)
	if err := env.run(t, false, "publish"); err == nil {
		t.Fatal("expected argument error")
	}
	if err := env.run(t, false, "publish", "missing"); err == nil {
		t.Fatal("expected not found error")
	}
}

func TestRequeueCommand(t *testing.T) {
	env := newCLIEnv(t)
	env.insert(t, "stuck", time.Now().Add(-time.Hour))
	old := time.Now().Add(-time.Hour).UnixMilli()
	if _, err := env.sp.Claim(context.Background(), "stuck", []string{models.ScheduledStatusPending}, old); err != nil {
		t.Fatalf("claim: %v", err)
	}

	if err := env.run(t, true, "requeue", "--timeout", "5m"); err != nil {
		t.Fatalf("requeue: %v", err)
	}
	var out map[string]int
	if err := json.Unmarshal(env.stdout.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["requeued"] != 1 {
		t.Errorf("requeued = %d, want 1", out["requeued"])
	}
}
