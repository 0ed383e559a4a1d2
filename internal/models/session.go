package models

import "time"

// State is the lifecycle position of a Session
type State string

const (
	StateEmpty      State = "empty"
	StateCollecting State = "collecting"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

// Session is everything produced by one folder selection. A new selection
// replaces it as a whole.
type Session struct {
	ID         string
	Root       string
	State      State
	Entries    []Entry
	Mapping    *ContentMapping
	Artifacts  *Artifacts
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// ArtifactsReady reports whether both artifacts can be offered for download
func (s Session) ArtifactsReady() bool {
	return s.State == StateReady && s.Artifacts != nil
}
