package api

// HealthResponse summarizes daemon readiness and pool utilization.
type HealthResponse struct {
	ArchiveExists     bool `json:"archive_exists"`
	ItemsActive       int  `json:"items_active"`
	ItemLimit         int  `json:"item_limit"`
	CollectionsActive int  `json:"collections_active"`
	CollectionLimit   int  `json:"collection_limit"`
}

// LookupResponse answers an archive membership query.
type LookupResponse struct {
	Result bool `json:"result"`
}

// FetchResponse is the synchronous answer to a trigger request.
type FetchResponse struct {
	Started       bool   `json:"started"`
	AlreadyActive bool   `json:"already_active"`
	RunID         string `json:"run_id,omitempty"`
}

// ItemStatusResponse is the item lifecycle snapshot. Result is present on
// the first poll that observes a finished job and empty afterwards.
type ItemStatusResponse struct {
	Downloading bool   `json:"downloading"`
	Result      string `json:"result,omitempty"`
	InArchive   bool   `json:"in_archive"`
}

// CollectionStatusResponse is the collection lifecycle snapshot. Counts
// stay observable for the whole retention window.
type CollectionStatusResponse struct {
	Known          bool     `json:"known"`
	Downloading    bool     `json:"downloading"`
	Phase          string   `json:"phase,omitempty"`
	Total          int      `json:"total"`
	CompletedCount int      `json:"completed_count"`
	FailedCount    int      `json:"failed_count"`
	CompletedIDs   []string `json:"completed_ids,omitempty"`
	FailedIDs      []string `json:"failed_ids,omitempty"`
	Result         string   `json:"result,omitempty"`
}

// ErrorResponse is the error envelope every non-2xx answer carries.
type ErrorResponse struct {
	Error string `json:"error"`
}
