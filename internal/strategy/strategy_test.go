package strategy

import (
	"context"
	"testing"
)

func TestFirstStopsAtFirstSuccess(t *testing.T) {
	calls := 0
	step := func(value string, ok bool) Func[string] {
		return func(context.Context) (string, bool) {
			calls++
			return value, ok
		}
	}

	got, ok := First(context.Background(), step("", false), step("second", true), step("third", true))
	if !ok || got != "second" {
		t.Fatalf("unexpected result %q ok=%v", got, ok)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestFirstReturnsZeroWhenNothingMatches(t *testing.T) {
	got, ok := First(context.Background(), func(context.Context) (int, bool) { return 7, false }, nil)
	if ok || got != 0 {
		t.Fatalf("expected zero value, got %d ok=%v", got, ok)
	}
}

func TestFirstHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	called := false
	_, ok := First(ctx,
		func(context.Context) (int, bool) { cancel(); return 0, false },
		func(context.Context) (int, bool) { called = true; return 1, true },
	)
	if ok || called {
		t.Fatalf("expected walk to stop after cancellation")
	}
}

func TestEachPreservesOrder(t *testing.T) {
	var seen []int
	strategies := Each([]int{1, 2, 3, 4}, func(_ context.Context, n int) (int, bool) {
		seen = append(seen, n)
		return n * 10, n == 3
	})
	got, ok := First(context.Background(), strategies...)
	if !ok || got != 30 {
		t.Fatalf("unexpected result %d ok=%v", got, ok)
	}
	if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
		t.Fatalf("unexpected visit order %v", seen)
	}
}
