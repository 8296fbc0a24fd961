package mockserver

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// limiter keeps one token bucket per model
type limiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// newLimiter allows requestsPerMinute per model with the given burst
func newLimiter(requestsPerMinute int, burst int) *limiter {
	if burst < 1 {
		burst = 1
	}
	return &limiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:    burst,
	}
}

func (l *limiter) get(modelID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, exists := l.limiters[modelID]
	if !exists {
		lim = rate.NewLimiter(l.rate, l.burst)
		l.limiters[modelID] = lim
	}
	return lim
}

// allow reports whether a call to modelID may proceed now
func (l *limiter) allow(modelID string) bool {
	return l.get(modelID).Allow()
}

// retryAfter estimates the seconds until the next token for modelID
func (l *limiter) retryAfter(modelID string) int {
	r := l.get(modelID).Reserve()
	delay := r.Delay()
	r.Cancel()

	seconds := int(delay / time.Second)
	if delay%time.Second != 0 {
		seconds++
	}
	return seconds
}
