// Package api defines the JSON contract between the daemon's HTTP surface
// and its clients, plus the client the CLI uses to talk to a running daemon.
package api
