package lookup

import (
	"context"
	stdErrors "errors"
	"testing"
	"time"

	xerrors "ProfileFinder/internal/errors"
	"ProfileFinder/internal/finder"
	"ProfileFinder/internal/profile"
)

type failingProducer struct{}

func (failingProducer) Publish(context.Context, string) error { return stdErrors.New("broker down") }
func (failingProducer) Close() error                          { return nil }

func TestServiceSubmitValidatesInput(t *testing.T) {
	service := NewService(NewMemoryStore(), NewMemoryQueue(4), 3)
	ctx := context.Background()

	if _, err := service.Submit(ctx, Request{Name: "  "}); xerrors.CodeOf(err) != CodeJobValidation {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
	if _, err := service.Submit(ctx, Request{Name: "John Doe", Workflow: "bogus"}); xerrors.CodeOf(err) != CodeJobValidation {
		t.Fatalf("expected validation error for unknown workflow, got %v", err)
	}
	if _, err := service.Submit(ctx, Request{Name: "John Doe", Workflow: "patterns"}); xerrors.CodeOf(err) != CodeJobValidation {
		t.Fatalf("expected validation error for non-lookup workflow, got %v", err)
	}
}

func TestServiceSubmitIsIdempotentOnID(t *testing.T) {
	queue := NewMemoryQueue(4)
	service := NewService(NewMemoryStore(), queue, 0)
	ctx := context.Background()

	job, err := service.Submit(ctx, Request{Name: " John Doe ", Employer: "Acme"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if job.ID == "" || job.Name != "John Doe" || job.Workflow != finder.WorkflowProbe || job.MaxRetries != 3 {
		t.Fatalf("unexpected job: %+v", job)
	}

	again, err := service.Submit(ctx, Request{ID: job.ID, Name: "Someone Else"})
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if again.ID != job.ID || again.Name != "John Doe" {
		t.Fatalf("expected existing job, got %+v", again)
	}
	if queue.Len() != 1 {
		t.Fatalf("expected a single queued job, got %d", queue.Len())
	}
}

func TestServiceSubmitMarksFailedWhenPublishFails(t *testing.T) {
	store := NewMemoryStore()
	service := NewService(store, failingProducer{}, 3)
	ctx := context.Background()

	_, err := service.Submit(ctx, Request{ID: "fixed", Name: "John Doe"})
	if xerrors.CodeOf(err) != CodeJobPublish {
		t.Fatalf("expected publish error, got %v", err)
	}
	job, err := store.Get(ctx, "fixed")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if job.Status != StatusFailed || job.ErrorCode != string(CodeJobPublish) {
		t.Fatalf("unexpected job after publish failure: %+v", job)
	}
}

func TestServiceWaitUntilCompleted(t *testing.T) {
	store := NewMemoryStore()
	service := NewService(store, NewMemoryQueue(4), 3)
	ctx := context.Background()

	job, err := service.Submit(ctx, Request{Name: "John Doe"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	shortCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	pending, err := service.WaitUntilCompleted(shortCtx, job.ID, 5*time.Millisecond)
	if !stdErrors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if pending == nil || pending.Status != StatusPending {
		t.Fatalf("expected pending snapshot, got %+v", pending)
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = store.MarkSucceeded(ctx, job.ID, profile.Result{Found: true, URL: "https://www.linkedin.com/in/johndoe"})
	}()
	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	done, err := service.WaitUntilCompleted(waitCtx, job.ID, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !done.Found() {
		t.Fatalf("expected found job, got %+v", done)
	}

	if _, err := service.WaitUntilCompleted(ctx, "missing", 0); !stdErrors.Is(err, ErrJobNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
