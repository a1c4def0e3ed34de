package middleware

import (
	"testing"
	"time"
)

func TestIPRateLimiterAllowsWithinBurst(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 3, time.Hour)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("login:10.0.0.1") {
			t.Fatalf("request %d within burst was denied", i+1)
		}
	}
	if limiter.Allow("login:10.0.0.1") {
		t.Fatal("request beyond burst was allowed")
	}
}

func TestIPRateLimiterKeysAreIndependent(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 1, time.Hour)

	if !limiter.Allow("login:10.0.0.1") {
		t.Fatal("first key denied on first request")
	}
	if limiter.Allow("login:10.0.0.1") {
		t.Fatal("first key allowed past its limit")
	}
	if !limiter.Allow("login:10.0.0.2") {
		t.Fatal("second key throttled by first key's usage")
	}
}

func TestIPRateLimiterSweepsIdleBuckets(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 1, time.Minute).(*ipRateLimiter)

	current := time.Unix(1700000000, 0)
	limiter.now = func() time.Time { return current }

	limiter.Allow("login:10.0.0.1")
	limiter.Allow("login:10.0.0.2")
	if got := len(limiter.buckets); got != 2 {
		t.Fatalf("expected 2 buckets, got %d", got)
	}

	current = current.Add(2 * time.Minute)
	limiter.Allow("login:10.0.0.3")
	if _, ok := limiter.buckets["login:10.0.0.1"]; ok {
		t.Fatal("idle bucket survived the sweep")
	}
	if _, ok := limiter.buckets["login:10.0.0.3"]; !ok {
		t.Fatal("active bucket was swept")
	}
}
