// Package media models the on-disk artifacts of one retrieved item: the
// merged container, its metadata JSON, thumbnail, caption files, and retained
// single-format sidecars. The locator reads a per-item directory into a
// Context that post-processing stages operate on.
package media
