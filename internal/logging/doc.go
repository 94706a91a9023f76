// Package logging builds the slog loggers used across the daemon and CLI,
// with a compact console handler for interactive use and JSON for services.
package logging
