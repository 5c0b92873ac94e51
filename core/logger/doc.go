// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) and two helpers for correlating entries:
//
//   - WithRayID attaches the request id set by the rayid middleware.
//   - WithRun attaches the id of a resolution run so every batch, throttle
//     pause and per-item outcome of that run can be grouped.
//
// # Configuration
//
//   - Level: debug, info, warn, error
//   - Format: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info", Format: "json"})
//	log.Info("Run started")
package logger
