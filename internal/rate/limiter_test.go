package rate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newLimiterTest(t *testing.T, cfg Config) (*Limiter, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb, cfg), mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestLimiterBlocksAfterMaxAttempts(t *testing.T) {
	l, mr, done := newLimiterTest(t, Config{MaxAttempts: 3, Window: time.Minute})
	defer done()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := l.Check(ctx, "a@example.com", ""); err != nil {
			t.Fatalf("attempt %d should be allowed: %v", i, err)
		}
		if err := l.RecordFailure(ctx, "a@example.com", ""); err != nil {
			t.Fatalf("record failure: %v", err)
		}
	}
	if err := l.Check(ctx, "a@example.com", ""); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if err := l.Check(ctx, "b@example.com", ""); err != nil {
		t.Fatalf("other email must not be limited: %v", err)
	}

	mr.FastForward(time.Minute + time.Second)
	if err := l.Check(ctx, "a@example.com", ""); err != nil {
		t.Fatalf("window should have reset: %v", err)
	}
}

func TestLimiterIPThrottleAndReset(t *testing.T) {
	l, _, done := newLimiterTest(t, Config{MaxAttempts: 2, Window: time.Minute, EnableIPThrottle: true})
	defer done()
	ctx := context.Background()

	_ = l.RecordFailure(ctx, "a@example.com", "10.0.0.1")
	_ = l.RecordFailure(ctx, "b@example.com", "10.0.0.1")
	if err := l.Check(ctx, "c@example.com", "10.0.0.1"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected IP to be limited, got %v", err)
	}

	if n, _ := l.Attempts(ctx, "a@example.com"); n != 1 {
		t.Fatalf("expected 1 attempt, got %d", n)
	}
	if err := l.Reset(ctx, "a@example.com"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n, _ := l.Attempts(ctx, "a@example.com"); n != 0 {
		t.Fatalf("expected reset counter, got %d", n)
	}
}
