package lookup

import (
	"context"
	"sync"
	"testing"
	"time"

	xerrors "ProfileFinder/internal/errors"
)

func TestMemoryQueueDeliversToWorkers(t *testing.T) {
	queue := NewMemoryQueue(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for _, id := range []string{"a", "b", "c"} {
		if err := queue.Publish(ctx, id); err != nil {
			t.Fatalf("publish %s: %v", id, err)
		}
	}
	if queue.Len() != 3 {
		t.Fatalf("expected 3 queued, got %d", queue.Len())
	}

	var mu sync.Mutex
	seen := map[string]bool{}
	done := make(chan struct{})
	go func() {
		_ = queue.Consume(ctx, 2, func(_ context.Context, id string) error {
			mu.Lock()
			seen[id] = true
			complete := len(seen) == 3
			mu.Unlock()
			if complete {
				close(done)
			}
			return nil
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("jobs not consumed: %v", seen)
	}
}

func TestMemoryQueueRejectsAfterClose(t *testing.T) {
	queue := NewMemoryQueue(0)
	if err := queue.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := queue.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	err := queue.Publish(context.Background(), "x")
	if xerrors.CodeOf(err) != xerrors.CodeQueueFailure || xerrors.RetryableError(err) {
		t.Fatalf("expected non-retryable queue failure, got %v", err)
	}
}
