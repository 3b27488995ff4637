package enumerator

import (
	"context"
	"testing"
	"time"
)

func TestSourceLimiterZeroDelayNeverBlocks(t *testing.T) {
	limiter := NewSourceLimiter(0)

	start := time.Now()
	for i := 0; i < 50; i++ {
		if err := limiter.Wait(context.Background(), SourceMarketplace); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("50 waits took %v, expected no blocking", elapsed)
	}
}

func TestSourceLimiterSpacesRequests(t *testing.T) {
	limiter := NewSourceLimiter(50 * time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(context.Background(), SourceGeneral); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	// First request is immediate, the next two are spaced.
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("3 waits took %v, want at least two 50ms intervals", elapsed)
	}
}

func TestSourceLimiterIsolatesSources(t *testing.T) {
	limiter := NewSourceLimiter(200 * time.Millisecond)

	if err := limiter.Wait(context.Background(), SourceMarketplace); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}

	// A different source has its own token and must not be delayed by
	// the first source's consumption.
	start := time.Now()
	if err := limiter.Wait(context.Background(), SourceGeneral); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("independent source waited %v", elapsed)
	}
}

func TestSourceLimiterCancelledContext(t *testing.T) {
	limiter := NewSourceLimiter(time.Hour)

	if err := limiter.Wait(context.Background(), SourceMarketplace); err != nil {
		t.Fatalf("first Wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, SourceMarketplace); err == nil {
		t.Error("expected error waiting past the context deadline")
	}
}

func TestSourceLimiterPerSourceOverride(t *testing.T) {
	limiter := NewSourceLimiter(time.Hour)
	limiter.SetSourceDelay(SourceGeneral, time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(context.Background(), SourceGeneral); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("overridden source waited %v, override not applied", elapsed)
	}
}
