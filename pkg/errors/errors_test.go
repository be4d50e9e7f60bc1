package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name string
		code int
		want Class
	}{
		{"network failure", 0, ClassTransient},
		{"timeout", 408, ClassTransient},
		{"throttled", 429, ClassRateLimited},
		{"unauthorized", 401, ClassAccessDenied},
		{"forbidden", 403, ClassAccessDenied},
		{"missing target", 404, ClassFatal},
		{"gone", 410, ClassFatal},
		{"server error", 500, ClassTransient},
		{"bad gateway", 502, ClassTransient},
		{"unavailable", 503, ClassTransient},
		{"bad request", 400, ClassFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.code))
		})
	}
}

func TestClassOf(t *testing.T) {
	base := New(ClassRateLimited, "slow down")
	wrapped := fmt.Errorf("fetching page 3: %w", base)

	assert.Equal(t, ClassRateLimited, ClassOf(base))
	assert.Equal(t, ClassRateLimited, ClassOf(wrapped), "classification survives wrapping")
	assert.Equal(t, ClassFatal, ClassOf(errors.New("unmapped")), "unclassified errors are fatal")
	assert.True(t, Is(wrapped, ClassRateLimited))
	assert.False(t, Is(wrapped, ClassTransient))
}

func TestErrorMessage(t *testing.T) {
	withCode := FromStatus(429, "too many requests")
	assert.Equal(t, "rate_limited (status 429): too many requests", withCode.Error())

	plain := New(ClassStructural, "missing media edges")
	assert.Equal(t, "structural: missing media edges", plain.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ClassTransient, "profile fetch failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(ClassTransient))
	assert.True(t, Retryable(ClassRateLimited))
	assert.False(t, Retryable(ClassAccessDenied))
	assert.False(t, Retryable(ClassStructural))
	assert.False(t, Retryable(ClassFatal))
	assert.False(t, Retryable(ClassProxyPoolExhausted))
}
