package service

import (
	"testing"
	"time"
)

func TestInviteRateLimiter_BlocksAfterMax(t *testing.T) {
	limiter := NewInviteRateLimiter(time.Minute, 2)

	if !limiter.Allow("alice@example.com") {
		t.Fatalf("expected first request allowed")
	}
	if !limiter.Allow("alice@example.com") {
		t.Fatalf("expected second request allowed")
	}
	if limiter.Allow("alice@example.com") {
		t.Fatalf("expected third request blocked")
	}
	if !limiter.Allow("bob@example.com") {
		t.Fatalf("expected other key unaffected")
	}
}

func TestInviteRateLimiter_WindowExpires(t *testing.T) {
	limiter := NewInviteRateLimiter(20*time.Millisecond, 1)

	if !limiter.Allow("alice@example.com") {
		t.Fatalf("expected first request allowed")
	}
	if limiter.Allow("alice@example.com") {
		t.Fatalf("expected second request blocked inside window")
	}

	time.Sleep(30 * time.Millisecond)
	if !limiter.Allow("alice@example.com") {
		t.Fatalf("expected request allowed after window")
	}
}
