package gdrive

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Drive allows roughly 10 requests per second per user.
const (
	requestsPerSecond = 8
	requestBurst      = 10
)

// Backoff after a rate-limit response that carries no Retry-After. It
// doubles with each consecutive rejection.
const (
	minBackoff = time.Second
	maxBackoff = 2 * time.Minute
)

// throttle spaces Drive calls with a token bucket and pauses all calls after
// the API rejects one for exceeding its quota.
type throttle struct {
	bucket *rate.Limiter

	mu      sync.Mutex
	resume  time.Time
	strikes int
}

func newThrottle(perSecond float64, burst int) *throttle {
	if perSecond <= 0 {
		perSecond = requestsPerSecond
	}
	if burst <= 0 {
		burst = 1
	}
	return &throttle{bucket: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// wait blocks until the pause is over and a token is free.
func (t *throttle) wait(ctx context.Context) error {
	if d := time.Until(t.resumeAt()); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	return t.bucket.Wait(ctx)
}

// rejected pauses calls for retryAfter, or for an exponential backoff when
// the server gave no hint.
func (t *throttle) rejected(retryAfter time.Duration) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	d := retryAfter
	if d <= 0 {
		d = min(minBackoff<<t.strikes, maxBackoff)
	}
	if t.strikes < 16 {
		t.strikes++
	}
	t.resume = time.Now().Add(d)
	return d
}

// accepted resets the backoff after a call goes through.
func (t *throttle) accepted() {
	t.mu.Lock()
	t.strikes = 0
	t.mu.Unlock()
}

// ready reports whether a call could start right now. It consumes a token.
func (t *throttle) ready() bool {
	if time.Now().Before(t.resumeAt()) {
		return false
	}
	return t.bucket.Allow()
}

func (t *throttle) resumeAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resume
}
