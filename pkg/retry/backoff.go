package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// BackoffStrategy computes the delay before a given retry attempt.
type BackoffStrategy interface {
	// NextDelay returns the delay for the attempt, 1-based.
	NextDelay(attempt int) time.Duration
	// Reset restores the strategy to its initial state.
	Reset()
}

// ExponentialBackoff grows delays as BaseDelay * Multiplier^(attempt-1),
// capped at MaxDelay, with symmetric random jitter.
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	// JitterFactor spreads each delay by ±(delay*factor) to keep parallel
	// sessions from retrying in lockstep. Range 0.0 to 1.0.
	JitterFactor float64
}

// DefaultExponentialBackoff returns the stock 1s/x2/60s/0.1 strategy.
func DefaultExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{
		BaseDelay:    1 * time.Second,
		MaxDelay:     60 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// NextDelay calculates the delay for the attempt with jitter applied.
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := float64(eb.BaseDelay) * math.Pow(eb.Multiplier, float64(attempt-1))
	if delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}

	if eb.JitterFactor > 0 {
		jitter := delay * eb.JitterFactor
		delay += (rand.Float64() * 2 * jitter) - jitter
	}

	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// Reset is a no-op; the attempt index is supplied by the caller.
func (eb *ExponentialBackoff) Reset() {}

// ConstantBackoff returns the same delay for every attempt.
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns the constant delay.
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	return cb.Delay
}

// Reset is a no-op.
func (cb *ConstantBackoff) Reset() {}

// Wait sleeps for delay or until ctx is cancelled, whichever comes first.
func Wait(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
