// Package config loads, normalizes, and validates the TOML configuration
// shared by the daemon and CLI.
//
// Load resolves the config path (explicit flag, ~/.config/dihi/config.toml,
// then a project-local dihi.toml), applies defaults for anything unset, and
// expands user paths to absolute form so downstream packages never deal with
// tildes or relative paths.
package config
