// Package logging provides structured logging utilities for the calendar
// plugin.
//
// This package centralizes logging patterns to ensure consistent, structured
// logging throughout the codebase using the standard library's slog package.
//
// Create a logger with standard attributes:
//
//	logger := logging.WithBackend(slog.Default(), "jmap")
//	logger.Info("calendars listed", logging.Status(logging.StatusSuccess))
//
// Credentials are never logged directly; SanitizeToken reports only the
// length of a token.
package logging
