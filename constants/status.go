package constants

// RunStatus is the canonical status for rows in extraction_runs.
type RunStatus string

// Stable values (store these exact strings in DB).
const (
	RunStatusRunning   RunStatus = "running"   // phase A committed, batch in progress
	RunStatusCompleted RunStatus = "completed" // terminal: manifest written
	RunStatusFailed    RunStatus = "failed"    // terminal: error_message set
)

// IsTerminal reports whether a run in this status can no longer change.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed
}

// RequestStatus is the workflow marker on the requests row. Only the values the
// extraction core reads or writes are listed.
type RequestStatus string

const (
	RequestStatusUploaded         RequestStatus = "uploaded"
	RequestStatusExtractionQueued RequestStatus = "extraction_queued"
	RequestStatusExtracting       RequestStatus = "extracting"
	RequestStatusReadyForDecision RequestStatus = "ready_for_decision"
	RequestStatusNeedsInfo        RequestStatus = "needs_info"
)
