package logger

import (
	"time"

	"github.com/rs/zerolog"
)

// LogRequest records one HTTP exchange at a level matching its outcome.
func LogRequest(method, url string, statusCode int, duration time.Duration) {
	lg := GetLogger().WithFields(map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": float64(duration.Microseconds()) / 1000.0,
	})

	switch {
	case statusCode >= 500:
		lg.Error("request server error")
	case statusCode >= 400:
		lg.Warn("request client error")
	default:
		lg.Debug("request completed")
	}
}

// LogRateLimit records a limiter-imposed pause.
func LogRateLimit(sessionID string, wait time.Duration, remaining int) {
	GetLogger().WithFields(map[string]interface{}{
		"session_id": sessionID,
		"wait":       wait,
		"remaining":  remaining,
	}).Debug("rate limit pause")
}

// NewNopLogger returns a logger that discards everything. Handy default for
// components constructed without one.
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                {}
func (n *nopLogger) Info(msg string)                                 {}
func (n *nopLogger) Warn(msg string)                                 {}
func (n *nopLogger) Error(msg string)                                {}
func (n *nopLogger) Fatal(msg string)                                {}
func (n *nopLogger) WithField(key string, value interface{}) Logger  { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger { return n }
func (n *nopLogger) WithError(err error) Logger                      { return n }
func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
