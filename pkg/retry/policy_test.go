package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	errs "igextract/pkg/errors"
)

func testPolicy() *Policy {
	return &Policy{
		MaxAttempts:    3,
		Backoff:        &ConstantBackoff{Delay: time.Second},
		RateLimitFloor: 30 * time.Second,
	}
}

func TestDecideTransient(t *testing.T) {
	p := testPolicy()

	d := p.Decide(errs.ClassTransient, 1, StrategyAPI, 0)
	assert.Equal(t, ActionRetry, d.Action)
	assert.Equal(t, time.Second, d.Delay)

	d = p.Decide(errs.ClassTransient, 2, StrategyBrowser, 0)
	assert.Equal(t, ActionRetry, d.Action, "transient failures retry on either strategy")

	d = p.Decide(errs.ClassTransient, 3, StrategyAPI, 0)
	assert.Equal(t, ActionAbort, d.Action, "budget exhausted after MaxAttempts failures")
}

func TestDecideRateLimited(t *testing.T) {
	p := testPolicy()

	d := p.Decide(errs.ClassRateLimited, 1, StrategyAPI, 0)
	assert.Equal(t, ActionRetry, d.Action)
	assert.Equal(t, 30*time.Second, d.Delay, "cooldown floored at RateLimitFloor")

	d = p.Decide(errs.ClassRateLimited, 1, StrategyAPI, 45*time.Second)
	assert.Equal(t, 45*time.Second, d.Delay, "cooldown floored at the limiter's remaining window")

	d = p.Decide(errs.ClassRateLimited, 3, StrategyAPI, 0)
	assert.Equal(t, ActionAbort, d.Action, "rate limiting shares the transient attempt budget")
}

func TestDecideAccessDenied(t *testing.T) {
	p := testPolicy()

	d := p.Decide(errs.ClassAccessDenied, 1, StrategyAPI, 0)
	assert.Equal(t, ActionEscalate, d.Action, "api denial falls back to the browser")

	d = p.Decide(errs.ClassAccessDenied, 1, StrategyBrowser, 0)
	assert.Equal(t, ActionRotateProxy, d.Action, "first browser denial rotates the proxy")

	d = p.Decide(errs.ClassAccessDenied, 2, StrategyBrowser, 0)
	assert.Equal(t, ActionAbort, d.Action, "second browser denial abandons the target")
}

func TestDecideStructural(t *testing.T) {
	p := testPolicy()

	d := p.Decide(errs.ClassStructural, 1, StrategyAPI, 0)
	assert.Equal(t, ActionEscalate, d.Action, "schema drift on the api escalates once")

	d = p.Decide(errs.ClassStructural, 1, StrategyBrowser, 0)
	assert.Equal(t, ActionAbort, d.Action, "schema drift on the browser is terminal")
}

func TestDecideFatal(t *testing.T) {
	p := testPolicy()

	for _, strategy := range []StrategyKind{StrategyAPI, StrategyBrowser} {
		d := p.Decide(errs.ClassFatal, 1, strategy, 0)
		assert.Equal(t, ActionAbort, d.Action)
		assert.Zero(t, d.Delay, "aborts never wait")
	}
}

func TestDecidePoolExhausted(t *testing.T) {
	p := testPolicy()

	d := p.Decide(errs.ClassProxyPoolExhausted, 1, StrategyBrowser, 0)
	assert.Equal(t, ActionAbort, d.Action)
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "retry", ActionRetry.String())
	assert.Equal(t, "escalate", ActionEscalate.String())
	assert.Equal(t, "rotate_proxy", ActionRotateProxy.String())
	assert.Equal(t, "abort", ActionAbort.String())
}
