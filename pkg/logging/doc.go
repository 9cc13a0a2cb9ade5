// Package logging provides subsystem-tagged structured logging for avaportal.
//
// The package is a thin layer over Go's standard slog package. Every entry
// carries a subsystem attribute so log aggregation can filter by component.
//
// # Usage
//
//	logging.Init(logging.LevelInfo, logging.FormatJSON, os.Stderr)
//
//	logging.Info("Bootstrap", "Listening on %s", addr)
//	logging.Debug("Config", "Loaded configuration from %s", configPath)
//	logging.Warn("Backend", "Health check returned %d", status)
//	logging.Error("Documents", err, "Failed to write %s", name)
//
// APIs that want a *slog.Logger or a *log.Logger get one from Logger:
//
//	srv := &http.Server{
//		ErrorLog: slog.NewLogLogger(logging.Logger("HTTP").Handler(), slog.LevelWarn),
//	}
//
// # Subsystems
//
//   - Bootstrap: application initialization and shutdown
//   - Config: configuration loading and validation
//   - OAuth: identity provider calls and the login state machine
//   - Session: session store operations
//   - Backend: backend REST gateway
//   - Documents: knowledge document storage
//   - Web: page rendering and form actions
//   - HTTP: request logs, rate limiting and server errors
//
// Access tokens and verifiers are never logged. Session ids are shortened with
// TruncateSessionID.
package logging
