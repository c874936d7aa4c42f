// Package logging provides structured logging for Hydro Core.
//
// This package wraps log/slog with:
//   - Level filtering configured from config.yaml
//   - JSON or text output formats
//   - Default service/version fields on every line
//   - Component tagging via With("component", name)
//
// Every part of the core logs through this package; no component
// depends on a specific sink, only on the leveled/tagged call shape.
//
// Usage:
//
//	log := logging.New(cfg.Logging, version)
//	sessionLog := log.With("component", "session")
//	sessionLog.Info("connected", "broker", "localhost:1883")
package logging
