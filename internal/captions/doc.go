// Package captions selects and flattens caption files into plain transcript
// text. Selection prefers human-authored renditions in the configured
// languages; extraction strips cue structure, collapses the rolling
// duplicates auto-generated captions produce, and bounds the result so it
// fits a metadata field.
package captions
