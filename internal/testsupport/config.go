// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"dihi/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.MergedDir = filepath.Join(base, "merged")
	cfg.Paths.ArchiveFile = filepath.Join(base, "archive.txt")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Jobs.ArchiveSettleSeconds = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithItemLimit overrides the item pool ceiling.
func WithItemLimit(limit int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Jobs.ItemLimit = limit
	}
}

// WithReconcileInterval overrides the collection reconcile cadence.
func WithReconcileInterval(seconds int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Jobs.ReconcileInterval = seconds
	}
}
