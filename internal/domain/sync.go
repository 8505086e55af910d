package domain

import "time"

// SyncState is the coordinator state machine
type SyncState string

const (
	SyncIdle      SyncState = "idle"
	SyncFetching  SyncState = "fetching"
	SyncSucceeded SyncState = "succeeded"
	SyncFailed    SyncState = "failed"
)

// SyncOutcome describes one successful sync attempt. It is never persisted.
type SyncOutcome struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	AlbumCount int       `json:"album_count"`
	Empty      bool      `json:"empty"`
	Shared     bool      `json:"shared"` // the caller joined a sync that was already running
}

// Message is the informational text for the outcome ("No records found"
// for an empty chart)
func (o *SyncOutcome) Message() string {
	if o == nil || !o.Empty {
		return ""
	}
	return MsgNoRecords
}

// SyncStatus is a snapshot of the coordinator
type SyncStatus struct {
	State         SyncState  `json:"state"`
	LastSyncID    string     `json:"last_sync_id,omitempty"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	LastError     *ErrorView `json:"last_error,omitempty"`
}

// ErrorView is the user-facing projection of a FetchError
type ErrorView struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Code    int       `json:"code,omitempty"`
}

// View projects the error for users
func (e *FetchError) View() *ErrorView {
	if e == nil {
		return nil
	}
	return &ErrorView{Kind: e.Kind, Message: e.Message, Code: e.Code}
}
