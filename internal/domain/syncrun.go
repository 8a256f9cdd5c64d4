package domain

import "time"

// SyncStatus enumerates run states. Transitions are monotonic:
// running -> completed or running -> failed. Paused exists for operator
// intervention and is never entered automatically.
type SyncStatus string

const (
	SyncStatusRunning   SyncStatus = "running"
	SyncStatusCompleted SyncStatus = "completed"
	SyncStatusFailed    SyncStatus = "failed"
	SyncStatusPaused    SyncStatus = "paused"
)

// SyncRun is one sync invocation. The row is created before any
// long-running work starts and is mutated in place as chunks are written.
type SyncRun struct {
	ID                string // uuid
	SyncType          string // source tag, e.g. "systembolaget"
	Status            SyncStatus
	TotalProducts     int
	ProcessedProducts int
	WinesInserted     int
	WinesUpdated      int
	ErrorMessage      string
	StartedAt         time.Time
	CompletedAt       *time.Time
}

// Finished reports whether the run reached a terminal state.
func (r SyncRun) Finished() bool {
	return r.Status == SyncStatusCompleted || r.Status == SyncStatusFailed
}
