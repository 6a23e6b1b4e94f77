// internal/ratelimit/limiter_test.go
package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestHostLimiterBurst(t *testing.T) {
	hl := NewHostLimiter(1.0, 2)

	if !hl.Allow("https://shop.example/search?q=a") {
		t.Error("first request should be allowed")
	}
	if !hl.Allow("https://shop.example/search?q=b") {
		t.Error("second request within burst should be allowed")
	}
	if hl.Allow("https://shop.example/search?q=c") {
		t.Error("third request should exceed the burst")
	}
}

func TestHostLimiterPerHostIsolation(t *testing.T) {
	hl := NewHostLimiter(1.0, 1)

	if !hl.Allow("https://a.example/x") {
		t.Error("first host should be allowed")
	}
	if hl.Allow("https://a.example/y") {
		t.Error("first host should be exhausted")
	}
	if !hl.Allow("https://b.example/x") {
		t.Error("second host has its own bucket")
	}
}

func TestHostLimiterWaitCancellation(t *testing.T) {
	hl := NewHostLimiter(0.01, 1)

	// Drain the bucket, then a Wait must respect context cancellation rather
	// than block for the refill.
	if err := hl.Wait(context.Background(), "https://slow.example/"); err != nil {
		t.Fatalf("initial Wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := hl.Wait(ctx, "https://slow.example/"); err == nil {
		t.Fatal("expected context error from Wait on a drained bucket")
	}
}

func TestHostLimiterInvalidURL(t *testing.T) {
	hl := NewHostLimiter(1.0, 1)

	if !hl.Allow("://not a url") {
		t.Error("unparseable URL should pass through")
	}
	if err := hl.Wait(context.Background(), "://not a url"); err != nil {
		t.Errorf("Wait on unparseable URL failed: %v", err)
	}
}

func TestHostLimiterDefaults(t *testing.T) {
	hl := NewHostLimiter(0, 0)
	if hl.perHost != 1.0 {
		t.Errorf("perHost = %v, want 1.0", hl.perHost)
	}
	if hl.burst != 2 {
		t.Errorf("burst = %d, want 2", hl.burst)
	}
}

func TestHostLimiterConcurrentAccess(t *testing.T) {
	hl := NewHostLimiter(1000, 1000)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hl.Allow("https://shared.example/")
			_ = hl.Wait(context.Background(), "https://shared.example/")
		}()
	}
	wg.Wait()
}
