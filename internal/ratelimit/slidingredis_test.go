package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLimiter(t *testing.T) (Limiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return Limiter{Client: client, Prefix: "rl:test:"}, mr
}

func TestAllowCountsDownThenRejects(t *testing.T) {
	limiter, _ := newTestLimiter(t)
	ctx := context.Background()
	window := 2 * time.Second

	for i := 0; i < 3; i++ {
		allowed, remaining, _, err := limiter.Allow(ctx, "login:1.2.3.4", window, 3)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !allowed {
			t.Fatalf("hit %d rejected inside the limit", i)
		}
		if remaining != 3-(i+1) {
			t.Fatalf("remaining after hit %d = %d", i, remaining)
		}
	}

	allowed, remaining, _, err := limiter.Allow(ctx, "login:1.2.3.4", window, 3)
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if allowed || remaining != 0 {
		t.Fatalf("over-limit hit = (%v, %d), want (false, 0)", allowed, remaining)
	}
}

func TestWindowSlidesOpenAgain(t *testing.T) {
	limiter, mr := newTestLimiter(t)
	ctx := context.Background()
	window := time.Second

	if allowed, _, _, _ := limiter.Allow(ctx, "k", window, 1); !allowed {
		t.Fatal("first hit rejected")
	}
	if allowed, _, _, _ := limiter.Allow(ctx, "k", window, 1); allowed {
		t.Fatal("second hit inside the window allowed")
	}

	mr.FastForward(window)

	if allowed, _, _, err := limiter.Allow(ctx, "k", window, 1); err != nil || !allowed {
		t.Fatalf("hit after window = (%v, %v), want allowed", allowed, err)
	}
}

func TestNilClientFailsOpen(t *testing.T) {
	limiter := Limiter{}
	allowed, _, _, err := limiter.Allow(context.Background(), "k", time.Second, 1)
	if err != nil || !allowed {
		t.Fatalf("nil client = (%v, %v), want allowed", allowed, err)
	}
}
