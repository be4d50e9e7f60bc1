package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"igextract/pkg/logger"
)

// Limiter gates request issue times for one extraction session.
type Limiter interface {
	// Acquire blocks until a request slot is free in the rolling window,
	// then applies the randomized human delay. It returns only ctx.Err().
	Acquire(ctx context.Context) error
	// Allow is the non-blocking probe: it consumes a slot when one is free.
	Allow() bool
	// Remaining reports free slots in the current window.
	Remaining() int
	// RetryAfter reports how long until the oldest recorded request leaves
	// the window. Zero when a slot is already free.
	RetryAfter() time.Duration
	// Reset clears all recorded requests.
	Reset()
}

// SlidingWindow admits at most maxRequests inside any rolling window and
// spaces successive requests by a randomized delay in [minDelay, maxDelay].
// Request timestamps are recorded at admit time, after all waiting, so the
// window counts actual issue times.
type SlidingWindow struct {
	window      time.Duration
	maxRequests int
	minDelay    time.Duration
	maxDelay    time.Duration

	mu       sync.Mutex
	requests []time.Time
	last     time.Time

	log logger.Logger
}

// NewSlidingWindow creates a limiter admitting maxRequests per window with
// a human delay drawn from [minDelay, maxDelay] between successive requests.
func NewSlidingWindow(maxRequests int, window, minDelay, maxDelay time.Duration) *SlidingWindow {
	return &SlidingWindow{
		window:      window,
		maxRequests: maxRequests,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		requests:    make([]time.Time, 0, maxRequests),
		log:         logger.NewNopLogger(),
	}
}

// WithLogger attaches a logger; pauses are reported at debug level.
func (sw *SlidingWindow) WithLogger(log logger.Logger) *SlidingWindow {
	sw.log = log
	return sw
}

// Acquire blocks until the window admits a request, spacing it from the
// previous one by the human delay first. All waiting is cooperative.
func (sw *SlidingWindow) Acquire(ctx context.Context) error {
	sw.mu.Lock()
	last := sw.last
	sw.mu.Unlock()

	if !last.IsZero() {
		if err := sleep(ctx, sw.humanDelay()); err != nil {
			return err
		}
	}

	for {
		sw.mu.Lock()
		now := time.Now()
		sw.prune(now)
		if len(sw.requests) < sw.maxRequests {
			sw.requests = append(sw.requests, now)
			sw.last = now
			sw.mu.Unlock()
			return nil
		}
		wait := sw.window - now.Sub(sw.requests[0])
		sw.mu.Unlock()

		if wait <= 0 {
			wait = 50 * time.Millisecond
		}
		sw.log.WithField("wait", wait).Debug("rate window full, pausing")
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// Allow consumes a slot when one is free. No human delay is applied.
func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.prune(now)
	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		sw.last = now
		return true
	}
	return false
}

// Remaining reports free slots in the current window.
func (sw *SlidingWindow) Remaining() int {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.prune(time.Now())
	return sw.maxRequests - len(sw.requests)
}

// RetryAfter reports the time until the oldest recorded request falls out
// of the window, zero when a slot is already free.
func (sw *SlidingWindow) RetryAfter() time.Duration {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.prune(now)
	if len(sw.requests) < sw.maxRequests {
		return 0
	}
	return sw.window - now.Sub(sw.requests[0])
}

// Reset clears all recorded requests and the spacing anchor.
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.requests = sw.requests[:0]
	sw.last = time.Time{}
}

// humanDelay draws the next inter-request delay.
func (sw *SlidingWindow) humanDelay() time.Duration {
	if sw.maxDelay <= 0 {
		return 0
	}
	span := sw.maxDelay - sw.minDelay
	if span <= 0 {
		return sw.minDelay
	}
	return sw.minDelay + time.Duration(rand.Int63n(int64(span)))
}

// prune drops recorded requests that have left the window.
func (sw *SlidingWindow) prune(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for i < len(sw.requests) && sw.requests[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:len(sw.requests)-i]
	}
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
