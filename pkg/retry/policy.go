package retry

import (
	"time"

	errs "igextract/pkg/errors"
)

// Action is what the policy tells the session loop to do after a failure.
type Action int

const (
	// ActionRetry repeats the attempt on the same strategy after Delay.
	ActionRetry Action = iota
	// ActionEscalate switches from the API strategy to the browser strategy.
	ActionEscalate
	// ActionRotateProxy swaps the session's proxy identity, then retries on
	// the same strategy.
	ActionRotateProxy
	// ActionAbort gives up on the current target. Partial results collected
	// so far are kept.
	ActionAbort
)

func (a Action) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionEscalate:
		return "escalate"
	case ActionRotateProxy:
		return "rotate_proxy"
	case ActionAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// StrategyKind identifies which fetch strategy produced the failure.
type StrategyKind string

const (
	StrategyAPI     StrategyKind = "api"
	StrategyBrowser StrategyKind = "browser"
)

// Decision pairs the chosen action with how long to wait before taking it.
type Decision struct {
	Action Action
	Delay  time.Duration
	Reason string
}

// Policy maps failure classifications onto recovery actions.
//
// Transient and rate-limited failures share one attempt budget per page;
// escalation moves to the browser strategy at most once; a browser-side
// denial earns one proxy rotation before the target is abandoned.
type Policy struct {
	// MaxAttempts bounds retries of transient and rate-limited failures.
	MaxAttempts int
	// Backoff schedules delays between those retries.
	Backoff BackoffStrategy
	// RateLimitFloor is the minimum cooldown after a rate-limit response,
	// applied even when the backoff schedule would allow an earlier retry.
	RateLimitFloor time.Duration
}

// DefaultPolicy returns the stock policy: three attempts, exponential
// backoff, 30s rate-limit floor.
func DefaultPolicy() *Policy {
	return &Policy{
		MaxAttempts:    3,
		Backoff:        DefaultExponentialBackoff(),
		RateLimitFloor: 30 * time.Second,
	}
}

// Decide returns the next action after a classified failure.
//
// attempt is the number of failures of this class family observed on the
// current strategy for the page being fetched, starting at 1. cooldownFloor
// should carry the rate limiter's remaining window time; rate-limit delays
// never undercut it.
func (p *Policy) Decide(class errs.Class, attempt int, strategy StrategyKind, cooldownFloor time.Duration) Decision {
	switch class {
	case errs.ClassTransient:
		if attempt >= p.MaxAttempts {
			return Decision{Action: ActionAbort, Reason: "transient failure budget exhausted"}
		}
		return Decision{
			Action: ActionRetry,
			Delay:  p.Backoff.NextDelay(attempt),
			Reason: "transient failure",
		}

	case errs.ClassRateLimited:
		if attempt >= p.MaxAttempts {
			return Decision{Action: ActionAbort, Reason: "rate limiting persisted across retries"}
		}
		delay := p.Backoff.NextDelay(attempt)
		if delay < p.RateLimitFloor {
			delay = p.RateLimitFloor
		}
		if delay < cooldownFloor {
			delay = cooldownFloor
		}
		return Decision{Action: ActionRetry, Delay: delay, Reason: "rate limited, cooling down"}

	case errs.ClassAccessDenied:
		if strategy == StrategyAPI {
			return Decision{Action: ActionEscalate, Reason: "api access denied, falling back to browser"}
		}
		if attempt <= 1 {
			return Decision{Action: ActionRotateProxy, Reason: "browser access denied, rotating proxy"}
		}
		return Decision{Action: ActionAbort, Reason: "access denied after proxy rotation"}

	case errs.ClassStructural:
		if strategy == StrategyAPI {
			return Decision{Action: ActionEscalate, Reason: "api response shape drifted, falling back to browser"}
		}
		return Decision{Action: ActionAbort, Reason: "rendered page no longer matches expected structure"}

	case errs.ClassProxyPoolExhausted:
		return Decision{Action: ActionAbort, Reason: "proxy pool exhausted"}

	default:
		// ClassFatal and anything unmapped.
		return Decision{Action: ActionAbort, Reason: "fatal failure"}
	}
}
