package model

import (
	"encoding/json"
	"time"
)

// RunStatus tracks an analysis run through its lifecycle.
type RunStatus string

const (
	RunStatusQueued   RunStatus = "queued"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// AnalysisRun is one persisted underwriting pass. The engine itself never
// persists anything; the CLI and HTTP server store runs so that traces can
// be replayed for audit.
type AnalysisRun struct {
	ID              string          `json:"id"`
	Label           string          `json:"label"`
	Status          RunStatus       `json:"status"`
	Recommendation  string          `json:"recommendation,omitempty"`
	WorkflowState   string          `json:"workflow_state,omitempty"`
	ConfidenceGrade string          `json:"confidence_grade,omitempty"`
	Result          json.RawMessage `json:"result,omitempty"`
	Error           string          `json:"error,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
