// Package registry tracks every in-flight and recently finished job.
//
// One Registry value owns the admission ceilings, the at-most-one-active
// invariant per ID, the consumable result window, and collection progress
// records. Workers only report terminal outcomes; they never read job state
// back. All state is memory-only and lost on restart; the archive manifest
// is the sole durable record.
package registry
