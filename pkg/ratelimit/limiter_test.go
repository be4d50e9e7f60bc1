package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSlidingWindowAllow(t *testing.T) {
	sw := NewSlidingWindow(3, time.Second, 0, 0)

	for i := 0; i < 3; i++ {
		if !sw.Allow() {
			t.Errorf("expected request %d to be allowed", i+1)
		}
	}

	if sw.Allow() {
		t.Error("expected request to be denied when window is full")
	}

	time.Sleep(time.Second + 100*time.Millisecond)
	if !sw.Allow() {
		t.Error("expected request to be allowed after window slides")
	}

	sw.Reset()
	if len(sw.requests) != 0 {
		t.Error("expected requests to be cleared after reset")
	}
}

func TestAcquireBlocksUntilWindowFrees(t *testing.T) {
	sw := NewSlidingWindow(2, 300*time.Millisecond, 0, 0)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 2; i++ {
		if err := sw.Acquire(ctx); err != nil {
			t.Fatalf("acquire %d: %v", i+1, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first two acquisitions took %v, expected no blocking", elapsed)
	}

	start = time.Now()
	if err := sw.Acquire(ctx); err != nil {
		t.Fatalf("third acquire: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Errorf("third acquisition took %v, expected to block for the window remainder", elapsed)
	}
}

func TestAcquireHonorsContext(t *testing.T) {
	sw := NewSlidingWindow(1, 10*time.Second, 0, 0)
	if !sw.Allow() {
		t.Fatal("expected first slot to be free")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := sw.Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Acquire() = %v, want context.DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation took %v, expected prompt return", elapsed)
	}
}

func TestAcquireAppliesHumanDelay(t *testing.T) {
	sw := NewSlidingWindow(10, time.Minute, 60*time.Millisecond, 80*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	if err := sw.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed > 30*time.Millisecond {
		t.Errorf("first acquisition waited %v, expected no human delay", elapsed)
	}

	start = time.Now()
	if err := sw.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Errorf("second acquisition waited %v, expected at least the minimum delay", elapsed)
	}
}

func TestHumanDelayBounds(t *testing.T) {
	sw := NewSlidingWindow(1, time.Second, 3*time.Second, 7*time.Second)

	for i := 0; i < 200; i++ {
		d := sw.humanDelay()
		if d < 3*time.Second || d >= 7*time.Second {
			t.Fatalf("humanDelay() = %v, want within [3s, 7s)", d)
		}
	}
}

func TestRetryAfter(t *testing.T) {
	sw := NewSlidingWindow(1, time.Second, 0, 0)

	if got := sw.RetryAfter(); got != 0 {
		t.Errorf("RetryAfter() = %v on empty window, want 0", got)
	}

	sw.Allow()
	got := sw.RetryAfter()
	if got <= 0 || got > time.Second {
		t.Errorf("RetryAfter() = %v on full window, want within (0, 1s]", got)
	}
}

func TestRemaining(t *testing.T) {
	sw := NewSlidingWindow(3, time.Second, 0, 0)

	if got := sw.Remaining(); got != 3 {
		t.Errorf("Remaining() = %d, want 3", got)
	}
	sw.Allow()
	sw.Allow()
	if got := sw.Remaining(); got != 1 {
		t.Errorf("Remaining() = %d, want 1", got)
	}
}

// Replays a burst of sequential acquisitions and verifies no rolling window
// ever held more than the configured maximum.
func TestWindowNeverOverflows(t *testing.T) {
	const maxRequests = 5
	const window = 200 * time.Millisecond

	sw := NewSlidingWindow(maxRequests, window, 0, 0)
	ctx := context.Background()

	var issued []time.Time
	for i := 0; i < 12; i++ {
		if err := sw.Acquire(ctx); err != nil {
			t.Fatal(err)
		}
		issued = append(issued, time.Now())
	}

	for i, start := range issued {
		count := 0
		for _, ts := range issued[i:] {
			if ts.Sub(start) < window {
				count++
			}
		}
		if count > maxRequests {
			t.Fatalf("window starting at request %d held %d requests, max is %d", i, count, maxRequests)
		}
	}
}
