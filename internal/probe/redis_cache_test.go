package probe

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRedisCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("FINDER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FINDER_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	cache, err := NewRedisCache(ctx, RedisCacheOptions{Addr: addr, Prefix: "finder:test:" + uuid.NewString() + ":", TTL: time.Minute})
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	defer cache.Close()

	if _, ok, err := cache.Get(ctx, "janedoe"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	want := Entry{URL: "https://www.linkedin.com/in/janedoe", Exists: true, StatusCode: 200}
	if err := cache.Set(ctx, "janedoe", want); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := cache.Get(ctx, "janedoe")
	if err != nil || !ok || got != want {
		t.Fatalf("unexpected entry %+v ok=%v err=%v", got, ok, err)
	}
}

func TestNewRedisCacheRequiresAddress(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), RedisCacheOptions{}); err == nil {
		t.Fatalf("expected error for empty address")
	}
}
