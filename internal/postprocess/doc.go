// Package postprocess runs the fixed per-item pipeline over a retrieved
// item's artifacts: thumbnail normalization, caption embedding, cover art,
// tag and chapter metadata, and the tagged audio artifact built from the
// retained single-format sidecar. Each stage is idempotent so a re-fetch of
// an already processed item converges instead of failing.
package postprocess
