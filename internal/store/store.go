// Package store persists analysis runs for audit replay. The engine itself
// never persists anything; the CLI and HTTP server are the callers that
// choose to keep runs around.
package store

import (
	"context"
	"encoding/json"

	"github.com/sells-group/deal-engine/internal/model"
)

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// RunSummary is the verdict snapshot stored when a run completes.
type RunSummary struct {
	Recommendation  string `json:"recommendation"`
	WorkflowState   string `json:"workflow_state"`
	ConfidenceGrade string `json:"confidence_grade"`
}

// Store defines the persistence interface for analysis runs.
type Store interface {
	CreateRun(ctx context.Context, label string) (*model.AnalysisRun, error)
	CompleteRun(ctx context.Context, runID string, summary RunSummary, result json.RawMessage) error
	FailRun(ctx context.Context, runID string, errMsg string) error
	GetRun(ctx context.Context, runID string) (*model.AnalysisRun, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.AnalysisRun, error)

	Migrate(ctx context.Context) error
	Close() error
}
