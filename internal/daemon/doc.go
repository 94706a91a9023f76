// Package daemon runs the long-lived service process: it enforces
// single-instance execution with a file lock and serves the HTTP API that
// the CLI and other clients drive jobs through.
package daemon
