package auth

import (
	"context"
	"testing"
	"time"
)

func TestTokenBucketExhaustsAndDenies(t *testing.T) {
	limiter := NewTokenBucketLimiter(2, time.Hour)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "ip:1.2.3.4")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !allowed {
			t.Fatalf("request %d should be within the budget", i+1)
		}
	}

	allowed, err := limiter.Allow(ctx, "ip:1.2.3.4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Error("third request should be denied")
	}
}

func TestTokenBucketKeysAreIndependent(t *testing.T) {
	limiter := NewTokenBucketLimiter(1, time.Hour)
	ctx := context.Background()

	if allowed, _ := limiter.Allow(ctx, "ip:1.1.1.1"); !allowed {
		t.Fatal("first caller should be allowed")
	}
	if allowed, _ := limiter.Allow(ctx, "ip:1.1.1.1"); allowed {
		t.Fatal("first caller should now be out of budget")
	}
	if allowed, _ := limiter.Allow(ctx, "ip:2.2.2.2"); !allowed {
		t.Error("a different caller must have its own bucket")
	}
}

func TestTokenBucketRefills(t *testing.T) {
	limiter := NewTokenBucketLimiter(1, time.Millisecond)
	ctx := context.Background()

	if allowed, _ := limiter.Allow(ctx, "ip:1.2.3.4"); !allowed {
		t.Fatal("first request should be allowed")
	}
	if allowed, _ := limiter.Allow(ctx, "ip:1.2.3.4"); allowed {
		t.Fatal("budget should be spent")
	}

	time.Sleep(5 * time.Millisecond)

	if allowed, _ := limiter.Allow(ctx, "ip:1.2.3.4"); !allowed {
		t.Error("bucket should refill over time")
	}
}
