package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestNilRedisBypasses(t *testing.T) {
	var r *Redis
	ctx := context.Background()

	if r.Available() {
		t.Fatal("expected nil cache to be unavailable")
	}

	var out []string
	hit, err := r.GetJSON(ctx, "events:list:", &out)
	if err != nil || hit {
		t.Fatalf("expected miss without error, got hit=%v err=%v", hit, err)
	}
	if err := r.SetJSON(ctx, "events:list:", []string{"a"}, time.Second); err != nil {
		t.Fatalf("unexpected set error: %v", err)
	}
	if err := r.DeleteByPattern(ctx, "events:list:*"); err != nil {
		t.Fatalf("unexpected delete error: %v", err)
	}
	if n, err := r.Incr(ctx, "events:listgen"); err != nil || n != 0 {
		t.Fatalf("expected no-op incr, got %d %v", n, err)
	}
	if err := r.Ping(ctx); err == nil {
		t.Fatal("expected ping error on nil cache")
	}
}

func TestNewRedisUnreachableBypasses(t *testing.T) {
	r := NewRedis(context.Background(), "127.0.0.1:1", "", 0, 0)

	if r.Available() {
		t.Fatal("expected unreachable cache to be unavailable")
	}
	if r.ttl != defaultTTL {
		t.Fatalf("expected default ttl %v, got %v", defaultTTL, r.ttl)
	}

	var out map[string]int
	hit, err := r.GetJSON(context.Background(), "k", &out)
	if err != nil || hit {
		t.Fatalf("expected miss without error, got hit=%v err=%v", hit, err)
	}
}

func TestRedisRoundTrip(t *testing.T) {
	addr := os.Getenv("SPORTURE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SPORTURE_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	r := NewRedis(ctx, addr, "", 0, time.Minute)
	defer r.Close()
	if !r.Available() {
		t.Fatalf("redis at %s not reachable", addr)
	}

	type item struct {
		Title string `json:"title"`
	}
	in := []item{{Title: "5v5 Football"}}
	if err := r.SetJSON(ctx, "test:events:list:football", in, 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	var out []item
	hit, err := r.GetJSON(ctx, "test:events:list:football", &out)
	if err != nil || !hit {
		t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
	}
	if len(out) != 1 || out[0].Title != "5v5 Football" {
		t.Fatalf("unexpected value: %+v", out)
	}

	if err := r.DeleteByPattern(ctx, "test:events:list:*"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	hit, _ = r.GetJSON(ctx, "test:events:list:football", &out)
	if hit {
		t.Fatal("expected key to be deleted")
	}

	r.Delete(ctx, "test:events:listgen")
	defer r.Delete(ctx, "test:events:listgen")
	for want := int64(1); want <= 2; want++ {
		n, err := r.Incr(ctx, "test:events:listgen")
		if err != nil || n != want {
			t.Fatalf("incr: expected %d, got %d %v", want, n, err)
		}
	}
	var gen int64
	if hit, err := r.GetJSON(ctx, "test:events:listgen", &gen); err != nil || !hit || gen != 2 {
		t.Fatalf("expected generation 2 readable as JSON, got %d hit=%v err=%v", gen, hit, err)
	}
}
