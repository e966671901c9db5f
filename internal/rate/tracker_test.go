package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Code4Bharat1/VMS-BACKEND/internal/stores"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type stepClock struct{ now time.Time }

func (c *stepClock) Now() time.Time { return c.now }

func TestTrackerRecordCountClear(t *testing.T) {
	ctx := context.Background()
	tr := NewTracker(stores.NewMemoryStore(nil), Config{})

	for i := 1; i <= 3; i++ {
		n, err := tr.Record(ctx, "10.0.0.1")
		if err != nil || n != i {
			t.Fatalf("expected %d, got %d (%v)", i, n, err)
		}
	}
	if n, _ := tr.Count(ctx, "10.0.0.1"); n != 3 {
		t.Fatalf("expected count 3, got %d", n)
	}
	if n, _ := tr.Count(ctx, "10.0.0.2"); n != 0 {
		t.Fatalf("expected other key at 0, got %d", n)
	}
	if !tr.ChallengeRequired(3) || tr.ChallengeRequired(2) {
		t.Fatal("expected threshold at 3")
	}

	if err := tr.Clear(ctx, "10.0.0.1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if n, _ := tr.Count(ctx, "10.0.0.1"); n != 0 {
		t.Fatalf("expected cleared count, got %d", n)
	}
}

func TestTrackerWindowAnchoredAtFirstAttempt(t *testing.T) {
	ctx := context.Background()
	clock := &stepClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	tr := NewTracker(stores.NewMemoryStore(clock.Now), Config{Window: 15 * time.Minute, ChallengeThreshold: 3})

	_, _ = tr.Record(ctx, "k")
	clock.now = clock.now.Add(14 * time.Minute)
	if n, _ := tr.Record(ctx, "k"); n != 2 {
		t.Fatalf("expected 2 inside window, got %d", n)
	}
	clock.now = clock.now.Add(time.Minute)
	if n, _ := tr.Count(ctx, "k"); n != 0 {
		t.Fatalf("expected window elapsed, got %d", n)
	}
	if n, _ := tr.Record(ctx, "k"); n != 1 {
		t.Fatalf("expected new window at 1, got %d", n)
	}
}

func TestTrackerEmptyKey(t *testing.T) {
	tr := NewTracker(stores.NewMemoryStore(nil), Config{})
	if _, err := tr.Record(context.Background(), ""); !errors.Is(err, ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}

func TestTrackerOnRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	ctx := context.Background()
	tr := NewTracker(stores.NewRedisStore(rdb, "vms"), Config{})

	for i := 0; i < 4; i++ {
		_, _ = tr.Record(ctx, "192.168.1.9")
	}
	if n, _ := tr.Count(ctx, "192.168.1.9"); n != 4 {
		t.Fatalf("expected 4, got %d", n)
	}

	mr.Close()
	if _, err := tr.Record(ctx, "192.168.1.9"); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
