package models

import (
	"time"
)

// SyncSource identifies one of the three independent activity sources.
type SyncSource string

const (
	SyncSourcePitches SyncSource = "pitches"
	SyncSourceEmails  SyncSource = "emails"
	SyncSourceCalls   SyncSource = "calls"
)

// SyncSources lists every source in fan-out order.
var SyncSources = []SyncSource{SyncSourcePitches, SyncSourceEmails, SyncSourceCalls}

// IsValid reports whether s names a known source.
func (s SyncSource) IsValid() bool {
	switch s {
	case SyncSourcePitches, SyncSourceEmails, SyncSourceCalls:
		return true
	}
	return false
}

// SyncStatus is the lifecycle state of a single source's fetch.
type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "idle"
	SyncStatusLoading SyncStatus = "loading"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusError   SyncStatus = "error"
)

// SourceSyncState tracks one source's fetch independently of the other two.
// A manual re-sync of one source never resets another's state.
type SourceSyncState struct {
	Source    SyncSource `json:"source"`
	Status    SyncStatus `json:"status"`
	ItemCount int        `json:"item_count"`
	Error     string     `json:"error,omitempty"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	FetchedAt *time.Time `json:"fetched_at,omitempty"`
}

// SyncLog is one recorded fetch attempt, persisted for audit and
// troubleshooting of flaky collaborators.
type SyncLog struct {
	ID         string     `json:"id"`
	EnquiryID  string     `json:"enquiry_id"`
	Source     SyncSource `json:"source"`
	Status     SyncStatus `json:"status"`
	Message    string     `json:"message,omitempty"`
	ItemCount  int        `json:"item_count"`
	DurationMs int64      `json:"duration_ms"`
	Timestamp  time.Time  `json:"timestamp"`
}
