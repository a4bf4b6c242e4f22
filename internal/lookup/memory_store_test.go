package lookup

import (
	"context"
	stdErrors "errors"
	"testing"
	"time"

	"ProfileFinder/internal/finder"
	"ProfileFinder/internal/profile"
)

func TestMemoryStoreListWithFilters(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Now().Add(-2 * time.Minute)

	jobs := []*Job{
		{ID: "j1", Name: "John Doe", Employer: "Acme", Workflow: finder.WorkflowProbe, Status: StatusPending, MaxRetries: 3},
		{ID: "j2", Name: "Jane Roe", Employer: "Globex", Workflow: finder.WorkflowSearch, Status: StatusPending, MaxRetries: 3},
		{ID: "j3", Name: "Max Power", Employer: "Initech", Workflow: finder.WorkflowAuto, Status: StatusPending, MaxRetries: 3},
	}
	for _, job := range jobs {
		if err := store.Create(ctx, job); err != nil {
			t.Fatalf("create job %s: %v", job.ID, err)
		}
	}

	if err := store.MarkFailed(ctx, "j2", CodeJobProcessing, "boom", true); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	found := profile.Result{Found: true, URL: "https://www.linkedin.com/in/maxpower", Username: "maxpower", Method: profile.MethodPatternMatch}
	if err := store.MarkSucceeded(ctx, "j3", found); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}

	store.mu.Lock()
	store.jobs["j1"].UpdatedAt = base.Unix()
	store.jobs["j2"].UpdatedAt = base.Add(30 * time.Second).Unix()
	store.jobs["j3"].UpdatedAt = base.Add(60 * time.Second).Unix()
	store.mu.Unlock()

	all, err := store.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(all))
	}
	if all[0].ID != "j3" {
		t.Fatalf("expected newest job first, got %s", all[0].ID)
	}

	asc, err := store.List(ctx, buildListOptions([]ListOption{WithSortOrder(SortByUpdatedAsc), WithLimit(1), WithOffset(1)}))
	if err != nil {
		t.Fatalf("list asc: %v", err)
	}
	if len(asc) != 1 || asc[0].ID != "j2" {
		t.Fatalf("unexpected paged list: %+v", asc)
	}

	failed, err := store.List(ctx, buildListOptions([]ListOption{WithStatuses(StatusFailed)}))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(failed) != 1 || failed[0].ID != "j2" || failed[0].ErrorCode != string(CodeJobProcessing) {
		t.Fatalf("unexpected failed list: %+v", failed)
	}

	hits, err := store.List(ctx, buildListOptions([]ListOption{WithFound(true)}))
	if err != nil {
		t.Fatalf("list found: %v", err)
	}
	if len(hits) != 1 || hits[0].Result == nil || hits[0].Result.URL != found.URL {
		t.Fatalf("unexpected found list: %+v", hits)
	}

	searches, err := store.List(ctx, buildListOptions([]ListOption{WithWorkflows(finder.WorkflowSearch)}))
	if err != nil {
		t.Fatalf("list workflow: %v", err)
	}
	if len(searches) != 1 || searches[0].ID != "j2" {
		t.Fatalf("unexpected workflow list: %+v", searches)
	}

	byQuery, err := store.List(ctx, buildListOptions([]ListOption{WithQuery("  ACME ")}))
	if err != nil {
		t.Fatalf("list query: %v", err)
	}
	if len(byQuery) != 1 || byQuery[0].ID != "j1" {
		t.Fatalf("unexpected query list: %+v", byQuery)
	}

	since := base.Add(15 * time.Second)
	recent, err := store.List(ctx, buildListOptions([]ListOption{WithUpdatedSince(since)}))
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 jobs to match since filter, got %d", len(recent))
	}
}

func TestMemoryStoreStats(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	base := time.Now().Add(-3 * time.Minute)
	for _, id := range []string{"a", "b", "c", "d"} {
		job := &Job{ID: id, Name: "John Doe", Workflow: finder.WorkflowProbe, Status: StatusPending, MaxRetries: 3}
		if err := store.Create(ctx, job); err != nil {
			t.Fatalf("create job %s: %v", id, err)
		}
	}

	if err := store.MarkFailed(ctx, "b", CodeJobProcessing, "boom", true); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := store.MarkSucceeded(ctx, "c", profile.Result{Found: true, URL: "https://www.linkedin.com/in/johndoe"}); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}
	if err := store.MarkSucceeded(ctx, "d", profile.NotFound("John Doe", "", "none")); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}

	store.mu.Lock()
	store.jobs["a"].UpdatedAt = base.Unix()
	store.jobs["b"].UpdatedAt = base.Add(30 * time.Second).Unix()
	store.jobs["c"].UpdatedAt = base.Add(2 * time.Minute).Unix()
	store.jobs["d"].UpdatedAt = base.Add(time.Minute).Unix()
	store.mu.Unlock()

	stats, err := store.Stats(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 4 || stats.Pending != 1 || stats.Failed != 1 || stats.Succeeded != 2 || stats.Found != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.NewestUpdatedAt != base.Add(2*time.Minute).Unix() {
		t.Fatalf("unexpected newest timestamp: %d", stats.NewestUpdatedAt)
	}
	if stats.OldestUpdatedAt != base.Unix() {
		t.Fatalf("unexpected oldest timestamp: %d", stats.OldestUpdatedAt)
	}

	notFound, err := store.Stats(ctx, buildListOptions([]ListOption{WithFound(false)}))
	if err != nil {
		t.Fatalf("stats not found: %v", err)
	}
	if notFound.Total != 3 || notFound.Found != 0 {
		t.Fatalf("unexpected not-found stats: %+v", notFound)
	}
}

func TestMemoryStoreClaimTransitions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Create(ctx, &Job{ID: "x", Name: "John Doe", Status: StatusPending, MaxRetries: 2}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, &Job{ID: "x", Name: "John Doe"}); !stdErrors.Is(err, ErrJobConflict) {
		t.Fatalf("expected conflict on duplicate create, got %v", err)
	}

	job, err := store.Claim(ctx, "x")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if job.Status != StatusRunning || job.Attempts != 1 {
		t.Fatalf("unexpected claimed job: %+v", job)
	}
	if _, err := store.Claim(ctx, "x"); !stdErrors.Is(err, ErrJobConflict) {
		t.Fatalf("expected conflict while running, got %v", err)
	}

	if err := store.MarkFailed(ctx, "x", CodeJobProcessing, "retry", false); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	job, _ = store.Get(ctx, "x")
	if job.Status != StatusPending {
		t.Fatalf("expected pending after retryable failure, got %s", job.Status)
	}

	if _, err := store.Claim(ctx, "x"); err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if err := store.MarkFailed(ctx, "x", CodeJobProcessing, "retry", false); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if _, err := store.Claim(ctx, "x"); !stdErrors.Is(err, ErrJobExhausted) {
		t.Fatalf("expected exhausted, got %v", err)
	}

	if err := store.MarkSucceeded(ctx, "x", profile.Result{}); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}
	if _, err := store.Claim(ctx, "x"); !stdErrors.Is(err, ErrJobCompleted) {
		t.Fatalf("expected completed, got %v", err)
	}
	if _, err := store.Claim(ctx, "missing"); !stdErrors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if err := store.Create(ctx, &Job{ID: "c1", Name: "John Doe", Status: StatusPending, MaxRetries: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}
	result := profile.Result{Found: true, URL: "https://www.linkedin.com/in/johndoe", AllURLs: []string{"https://www.linkedin.com/in/johndoe"}}
	if err := store.MarkSucceeded(ctx, "c1", result); err != nil {
		t.Fatalf("mark succeeded: %v", err)
	}

	job, _ := store.Get(ctx, "c1")
	job.Name = "changed"
	job.Result.AllURLs[0] = "changed"

	again, _ := store.Get(ctx, "c1")
	if again.Name != "John Doe" || again.Result.AllURLs[0] != result.AllURLs[0] {
		t.Fatalf("store leaked internal state: %+v", again)
	}
}
