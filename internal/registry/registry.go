package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"dihi/internal/services"
)

// Pool selects which admission ceiling a job counts against.
type Pool string

const (
	PoolItem       Pool = "item"
	PoolCollection Pool = "collection"
)

// Outcome is the terminal result a worker reports for a job.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// Admission is the synchronous answer to a trigger request.
type Admission struct {
	Started       bool
	AlreadyActive bool
	RunID         string
}

// ItemStatus is a consistent snapshot of one job's lifecycle state. Result
// is empty unless a finished, unexpired outcome was consumed by this read.
type ItemStatus struct {
	Downloading bool
	Result      Outcome
}

type activeEntry struct {
	runID     string
	startedAt time.Time
}

type resultEntry struct {
	outcome    Outcome
	recordedAt time.Time
}

// Registry owns every piece of job state shared across workers: per-pool
// active sets with static ceilings, consumable results with a retention
// window, and collection progress records. All access is serialized by one
// mutex; the long-running work happens outside it.
type Registry struct {
	retention time.Duration

	mu          sync.Mutex
	now         func() time.Time
	limits      map[Pool]int
	active      map[Pool]map[string]activeEntry
	results     map[Pool]map[string]resultEntry
	collections map[string]*collectionState
}

// Option configures the registry.
type Option func(*Registry)

// WithClock injects a time source (primarily for tests).
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// New constructs a registry with the given pool ceilings and result
// retention window.
func New(itemLimit, collectionLimit int, retention time.Duration, opts ...Option) *Registry {
	r := &Registry{
		retention: retention,
		now:       time.Now,
		limits: map[Pool]int{
			PoolItem:       itemLimit,
			PoolCollection: collectionLimit,
		},
		active: map[Pool]map[string]activeEntry{
			PoolItem:       {},
			PoolCollection: {},
		},
		results: map[Pool]map[string]resultEntry{
			PoolItem:       {},
			PoolCollection: {},
		},
		collections: make(map[string]*collectionState),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TryAdmit atomically checks the pool ceiling and the at-most-one-active
// invariant for id. Re-triggering an Active id is idempotent, not an error;
// a full pool returns an error tagged services.ErrSaturated.
func (r *Registry) TryAdmit(pool Pool, id string) (Admission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	entries := r.active[pool]
	if existing, ok := entries[id]; ok {
		return Admission{AlreadyActive: true, RunID: existing.runID}, nil
	}
	if len(entries) >= r.limits[pool] {
		return Admission{}, services.Wrap(services.ErrSaturated, "registry", string(pool),
			fmt.Sprintf("%d active jobs", len(entries)), nil)
	}

	entry := activeEntry{runID: uuid.NewString(), startedAt: r.now()}
	entries[id] = entry
	if pool == PoolCollection {
		r.collections[id] = newCollectionState(entry.runID)
	}
	return Admission{Started: true, RunID: entry.runID}, nil
}

// Release clears the Active slot for id and records the terminal outcome.
// It is called unconditionally from the worker boundary so ceilings never
// leak, and it is the only transition out of Active.
func (r *Registry) Release(pool Pool, id string, outcome Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.active[pool], id)
	r.results[pool][id] = resultEntry{outcome: outcome, recordedAt: r.now()}
	r.sweepLocked()
}

// ItemStatus snapshots the lifecycle state for id. A stored result is
// consumed by the first read that observes the job no longer running.
func (r *Registry) ItemStatus(pool Pool, id string) ItemStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	_, downloading := r.active[pool][id]
	status := ItemStatus{Downloading: downloading}
	if !downloading {
		if entry, ok := r.results[pool][id]; ok {
			status.Result = entry.outcome
			delete(r.results[pool], id)
		}
	}
	return status
}

// ActiveCount reports how many jobs currently hold a slot in pool.
func (r *Registry) ActiveCount(pool Pool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active[pool])
}

// Limit returns the static ceiling for pool.
func (r *Registry) Limit(pool Pool) int {
	return r.limits[pool]
}

// sweepLocked purges results and collection records older than the
// retention window. Callers must hold the mutex.
func (r *Registry) sweepLocked() {
	now := r.now()
	for _, entries := range r.results {
		for id, entry := range entries {
			if now.Sub(entry.recordedAt) > r.retention {
				delete(entries, id)
			}
		}
	}
	for id, cs := range r.collections {
		if cs.terminal() && now.Sub(cs.terminalAt) > r.retention {
			delete(r.collections, id)
		}
	}
}
