package resilience

import (
	"testing"
	"time"
)

func TestRateLimiterAllowsBurst(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  10.0,
		Burst: 5,
	})

	for i := 0; i < 5; i++ {
		if !rl.Allow() {
			t.Errorf("request %d within burst should be allowed", i)
		}
	}
	if rl.Allow() {
		t.Error("request past the burst should be rejected")
	}
}

func TestRateLimiterRefillsOverTime(t *testing.T) {
	// 100 per second means a token every 10ms.
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  100.0,
		Burst: 1,
	})

	if !rl.Allow() {
		t.Fatal("first request should be allowed")
	}
	if rl.Allow() {
		t.Error("second immediate request should be rejected")
	}

	time.Sleep(20 * time.Millisecond)

	if !rl.Allow() {
		t.Error("request after refill should be allowed")
	}
}

func TestRateLimiterAllowN(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  10.0,
		Burst: 5,
	})

	if !rl.AllowN(5) {
		t.Error("AllowN(5) should succeed against a full bucket")
	}
	if rl.Allow() {
		t.Error("bucket should be empty after AllowN(5)")
	}
}

func TestRateLimiterOnLimitCallback(t *testing.T) {
	var limited []string
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "upload",
		Rate:  10.0,
		Burst: 1,
		OnLimit: func(name string) {
			limited = append(limited, name)
		},
	})

	rl.Allow()
	rl.Allow()
	rl.Allow()

	if len(limited) != 2 {
		t.Fatalf("OnLimit calls = %d, want 2", len(limited))
	}
	if limited[0] != "upload" {
		t.Errorf("OnLimit name = %q, want %q", limited[0], "upload")
	}
}

func TestRateLimiterTokens(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Name:  "test",
		Rate:  10.0,
		Burst: 5,
	})

	if got := rl.Tokens(); got < 4.9 || got > 5.1 {
		t.Errorf("initial tokens = %f, want ~5", got)
	}

	rl.AllowN(3)

	// Refill credits a sliver of tokens between calls, so compare loosely.
	if got := rl.Tokens(); got < 1.9 || got > 2.5 {
		t.Errorf("tokens after AllowN(3) = %f, want ~2", got)
	}
}

func TestRateLimiterConfigDefaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Name: "defaults"})

	// Zero rate and burst fall back to 10/s with a matching burst.
	for i := 0; i < 10; i++ {
		if !rl.Allow() {
			t.Fatalf("request %d should be allowed with defaulted burst", i)
		}
	}
	if rl.Allow() {
		t.Error("request past the defaulted burst should be rejected")
	}
}
