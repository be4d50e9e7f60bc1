// Package retry decides how the extraction session recovers from classified
// failures.
//
// Two pieces cooperate:
//
// BackoffStrategy schedules delays between repeated attempts, with jitter so
// parallel sessions do not retry in lockstep.
//
// Policy is the recovery state machine. Given a failure classification, the
// attempt count and the strategy that failed, Decide returns one of:
//   - retry: repeat on the same strategy after a delay
//   - escalate: switch from the API strategy to the browser strategy
//   - rotate_proxy: swap the session's proxy identity and retry
//   - abort: abandon the target, keeping partial results
//
// Usage:
//
//	policy := retry.DefaultPolicy()
//	d := policy.Decide(errs.ClassOf(err), attempt, retry.StrategyAPI, limiter.RetryAfter())
//	switch d.Action {
//	case retry.ActionRetry:
//	    if err := retry.Wait(ctx, d.Delay); err != nil { ... }
//	    // try again
//	case retry.ActionEscalate:
//	    // move to the browser strategy
//	}
//
// Rate-limited failures share the transient attempt budget but their delay
// is floored at both Policy.RateLimitFloor and the limiter's remaining
// window, so a throttled session never hammers inside a hot window.
package retry
