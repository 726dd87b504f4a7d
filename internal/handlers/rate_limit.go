package handlers

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
)

// ConnectionLimiter keeps one token bucket per connection, shared by every
// handler that calls a real JIRA server
type ConnectionLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewConnectionLimiter returns nil when requestsPerSecond is not positive (limiting disabled).
// A nil limiter never blocks.
func NewConnectionLimiter(requestsPerSecond float64, burst int) *ConnectionLimiter {
	if requestsPerSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &ConnectionLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Wait blocks until the connection's bucket has a token or ctx is done
func (l *ConnectionLimiter) Wait(ctx context.Context, connectionID string) error {
	if l == nil {
		return nil
	}
	if err := l.get(connectionID).Wait(ctx); err != nil {
		return fmt.Errorf("rate limit exceeded: %w", err)
	}
	return nil
}

func (l *ConnectionLimiter) get(connectionID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[connectionID]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[connectionID] = limiter
	}
	return limiter
}

// Forget drops the bucket of a deleted connection
func (l *ConnectionLimiter) Forget(connectionID string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	delete(l.limiters, connectionID)
	l.mu.Unlock()
}
