package model

import "time"

// RunStatus represents the current state of an archived report run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one archived invocation of the report command.
type Run struct {
	ID        string    `json:"id"`
	Source    Source    `json:"source"`
	Status    RunStatus `json:"status"`
	Report    *Report   `json:"report,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RunPhase represents a pipeline stage within a run.
type RunPhase struct {
	ID        string       `json:"id"`
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Status    PhaseStatus  `json:"status"`
	Result    *PhaseResult `json:"result,omitempty"`
	StartedAt time.Time    `json:"started_at"`
}

// PhaseStatus represents the current state of a pipeline stage.
type PhaseStatus string

const (
	PhaseStatusRunning  PhaseStatus = "running"
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
)

// PhaseResult holds the outcome of a pipeline stage.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Rows     int            `json:"rows"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
