package worker

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 1 {
		t.Errorf("expected default burst 1 for negative input, got %d", l2.defaultBurst)
	}

	l3 := NewLimiter(0, 1)
	if l3.defaultRate != rate.Inf {
		t.Errorf("expected unlimited rate for 0 rps, got %v", l3.defaultRate)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://secure.webtaxpay.com/search.php"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	if err := limiter.Wait(ctx, "http://example.com"); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	if err := limiter.Wait(ctx, "::invalid"); err == nil {
		t.Error("expected error for invalid URL")
	}
}

func TestLimiter_WaitCancelled(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	ctx, cancel := context.WithCancel(context.Background())

	url := "http://example.com"
	if err := limiter.Wait(ctx, url); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}

	cancel()
	if err := limiter.Wait(ctx, url); err == nil {
		t.Error("expected error from cancelled wait")
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	url := "http://example.com/search.php"

	if err := limiter.Wait(ctx, url); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	// Same host, different path shares the bucket
	if limiter.Allow("http://example.com/taxcard.php?id=1") {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	if !limiter.Allow("http://other.com") {
		t.Errorf("expected allow for other host")
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("http://example.com") {
			t.Fatalf("request %d refused by unlimited limiter", i)
		}
	}
}

func TestLimiter_SetHostDelay(t *testing.T) {
	limiter := NewLimiter(10, 10)
	host := "slow.com"

	limiter.SetHostDelay(host, 10*time.Second)

	if !limiter.Allow("http://" + host) {
		t.Errorf("first request should pass")
	}
	if limiter.Allow("http://" + host) {
		t.Errorf("second request should fail")
	}
	if !limiter.Allow("http://fast.com") {
		t.Errorf("other host should pass")
	}
}

func TestLimiter_SetHostDelayNeverSpeedsUp(t *testing.T) {
	limiter := NewLimiter(0.1, 1)
	host := "example.com"

	limiter.SetHostDelay(host, time.Millisecond)
	if got := limiter.getLimiter(host).Limit(); got != rate.Limit(0.1) {
		t.Errorf("expected rate to stay 0.1, got %v", got)
	}

	limiter.SetHostDelay(host, 0)
	if got := limiter.getLimiter(host).Limit(); got != rate.Limit(0.1) {
		t.Errorf("expected zero delay to be ignored, got %v", got)
	}
}

func TestHostOf(t *testing.T) {
	host, err := hostOf("https://secure.webtaxpay.com/taxcard.php?id=1")
	if err != nil {
		t.Fatalf("hostOf failed: %v", err)
	}
	if host != "secure.webtaxpay.com" {
		t.Errorf("expected secure.webtaxpay.com, got %s", host)
	}

	if _, err := hostOf("::invalid"); err == nil {
		t.Errorf("expected error for invalid URL")
	}
}
