package enumerator

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SourceLimiter spaces requests per suggestion source. Each source tag
// gets its own limiter so a slow marketplace endpoint does not starve
// the general source.
type SourceLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	delay    time.Duration
}

// NewSourceLimiter creates a limiter with a default per-source delay.
// A non-positive delay disables limiting.
func NewSourceLimiter(defaultDelay time.Duration) *SourceLimiter {
	return &SourceLimiter{
		limiters: make(map[string]*rate.Limiter),
		delay:    defaultDelay,
	}
}

// Wait blocks until the named source may issue its next request.
func (l *SourceLimiter) Wait(ctx context.Context, source string) error {
	return l.getLimiter(source).Wait(ctx)
}

// SetSourceDelay overrides the spacing for one source.
func (l *SourceLimiter) SetSourceDelay(source string, delay time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if delay <= 0 {
		delay = l.delay
	}
	l.limiters[source] = rate.NewLimiter(rate.Every(delay), 1)
}

func (l *SourceLimiter) getLimiter(source string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[source]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists := l.limiters[source]; exists {
		return limiter
	}

	// rate.Every returns Inf for non-positive delays, which never blocks.
	limiter = rate.NewLimiter(rate.Every(l.delay), 1)
	l.limiters[source] = limiter

	return limiter
}
