// Package jobs owns the asynchronous work model: trigger requests admit a
// job into the registry and return immediately, one goroutine runs the job
// to a terminal outcome, and status queries read registry snapshots. The
// worker boundary converts every failure, panics included, into the Failed
// outcome and releases the admission slot unconditionally.
package jobs
