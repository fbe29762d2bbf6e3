// Package logger provides a structured logging facility based on Zap.
//
// It offers a configured logger instance that supports different environments
// (development vs production) with console or JSON encoding.
//
// # Run Correlation
//
// Every sync run carries a generated run ID. The WithRunID helper attaches it
// to a logger so all entries produced during the run can be correlated.
//
// # Configuration
//
// The package supports configuration for:
//   - Level: debug, info, warn, error
//   - Encoding: json (production) or console (development)
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Sync started")
//
//	l := logger.WithRunID(log, runID)
//	l.Error("Sync failed", zap.Error(err))
package logger
