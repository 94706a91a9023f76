// Package ffmpeg wraps the external transcoding and probing tools behind a
// runner that executes explicit argument lists. Callers build the arguments;
// this package owns process execution, failure reporting, and the parsed
// ffprobe report used for idempotence checks.
package ffmpeg
