// Package ratelimit paces outgoing requests for one extraction session.
//
// The limiter combines two mechanisms:
//
// Sliding window:
//   - At most maxRequests inside any rolling window
//   - Timestamps recorded at admit time, so the window counts actual
//     issue times
//
// Human delay:
//   - Successive requests are spaced by a randomized delay drawn from
//     [minDelay, maxDelay], additive to the window gate
//   - Mimics interactive browsing instead of machine-regular intervals
//
// Usage:
//
//	// 40 requests per hour, 3-7s between requests
//	limiter := ratelimit.NewSlidingWindow(40, time.Hour, 3*time.Second, 7*time.Second)
//
//	// Blocks until a slot is free; returns early only on ctx cancellation
//	if err := limiter.Acquire(ctx); err != nil {
//	    return err
//	}
//	// Proceed with request
//
// RetryAfter exposes the time until the oldest request leaves the window so
// rate-limit cooldowns can be floored at the window remainder.
package ratelimit
