// Package logger provides the structured logging surface for the extraction
// engine.
//
// It wraps zerolog behind a small interface so components can log leveled,
// fielded events without binding to a concrete backend:
//
//	import "igextract/pkg/logger"
//
//	err := logger.Initialize(logger.Options{Level: "info", File: "igextract.log"})
//
//	log := logger.GetLogger().WithFields(map[string]interface{}{
//	    "session_id": sessionID,
//	    "target":     "nasa",
//	})
//	log.Info("session started")
//	log.WithError(err).Error("fetch failed")
//
// Console output is colored and human-oriented; the optional file sink
// receives the same events as JSON lines.
package logger
