package registry

import "time"

// Phase tracks a collection job through its two-phase lifecycle.
type Phase string

const (
	PhaseExtracting  Phase = "extracting"
	PhaseDownloading Phase = "downloading"
	PhaseCompleted   Phase = "completed"
	PhaseFailed      Phase = "failed"
)

// CollectionStatus is a consistent snapshot of one collection job. Counts
// remain observable for the whole retention window; only Result follows the
// consume-once rule.
type CollectionStatus struct {
	Known       bool
	Downloading bool
	Phase       Phase
	Total       int
	Completed   []string
	Failed      []string
	Result      Outcome
}

type collectionState struct {
	runID      string
	phase      Phase
	members    []string
	completed  map[string]struct{}
	failed     map[string]struct{}
	terminalAt time.Time
}

func newCollectionState(runID string) *collectionState {
	return &collectionState{
		runID:     runID,
		phase:     PhaseExtracting,
		completed: make(map[string]struct{}),
		failed:    make(map[string]struct{}),
	}
}

func (cs *collectionState) terminal() bool {
	return cs.phase == PhaseCompleted || cs.phase == PhaseFailed
}

// SetCollectionMembers records the enumerated member IDs and moves the job
// into the downloading phase.
func (r *Registry) SetCollectionMembers(id string, members []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.collections[id]
	if !ok {
		return
	}
	cs.members = append([]string(nil), members...)
	cs.phase = PhaseDownloading
}

// FailCollectionExtraction marks phase 1 as failed (enumeration error or an
// empty collection).
func (r *Registry) FailCollectionExtraction(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.collections[id]
	if !ok {
		return
	}
	cs.phase = PhaseFailed
	cs.terminalAt = r.now()
}

// ReconcileCollection refreshes completed membership from current archive
// state. Safe to call at any time while the record exists; completion is
// monotonic.
func (r *Registry) ReconcileCollection(id string, archived func(string) bool) {
	r.mu.Lock()
	cs, ok := r.collections[id]
	if !ok || cs.terminal() {
		r.mu.Unlock()
		return
	}
	pending := make([]string, 0, len(cs.members))
	for _, member := range cs.members {
		if _, done := cs.completed[member]; !done {
			pending = append(pending, member)
		}
	}
	r.mu.Unlock()

	// Archive checks stat and may reparse a file; keep them outside the lock.
	done := make([]string, 0, len(pending))
	for _, member := range pending {
		if archived(member) {
			done = append(done, member)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if cs, ok := r.collections[id]; ok && !cs.terminal() {
		for _, member := range done {
			cs.completed[member] = struct{}{}
		}
	}
}

// FinishCollection runs the final reconcile and settles the terminal phase:
// members neither archived nor completed are classified failed, and the
// phase is Completed only when nothing failed and the underlying download
// reported success.
func (r *Registry) FinishCollection(id string, archived func(string) bool, downloadOK bool) {
	r.ReconcileCollection(id, archived)

	r.mu.Lock()
	defer r.mu.Unlock()
	cs, ok := r.collections[id]
	if !ok || cs.terminal() {
		return
	}
	for _, member := range cs.members {
		if _, done := cs.completed[member]; !done {
			cs.failed[member] = struct{}{}
		}
	}
	if downloadOK && len(cs.failed) == 0 {
		cs.phase = PhaseCompleted
	} else {
		cs.phase = PhaseFailed
	}
	cs.terminalAt = r.now()
}

// CollectionStatusFor snapshots the collection record plus the consumable
// outcome for id.
func (r *Registry) CollectionStatusFor(id string) CollectionStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()

	_, downloading := r.active[PoolCollection][id]
	status := CollectionStatus{Downloading: downloading}

	if cs, ok := r.collections[id]; ok {
		status.Known = true
		status.Phase = cs.phase
		status.Total = len(cs.members)
		status.Completed = memberList(cs.members, cs.completed)
		status.Failed = memberList(cs.members, cs.failed)
	}
	if !downloading {
		if entry, ok := r.results[PoolCollection][id]; ok {
			status.Result = entry.outcome
			delete(r.results[PoolCollection], id)
		}
	}
	return status
}

// memberList preserves enumeration order when projecting a member subset.
func memberList(members []string, subset map[string]struct{}) []string {
	if len(subset) == 0 {
		return nil
	}
	out := make([]string, 0, len(subset))
	for _, member := range members {
		if _, ok := subset[member]; ok {
			out = append(out, member)
		}
	}
	return out
}
