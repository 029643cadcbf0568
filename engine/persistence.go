package engine

import (
	"context"
	"time"
)

// WorkflowSnapshot is the complete persisted state of one workflow run:
// its typed Context, its retained event-bus state, and its execution state
// (completed/running tasks, timings, breakpoint). This is the engine's
// analog of workflow.EnhancedCheckpoint (workflow/checkpoint_enhanced.go),
// generalized from "one DAG executor's node results" to "everything a
// Resume call needs to pick a workflow back up."
type WorkflowSnapshot struct {
	WorkflowID    string         `json:"workflow_id"`
	Version       int            `json:"version"`
	ContextState  Snapshot       `json:"context_state"`
	EventState    map[string]any `json:"event_state"`
	ExecutionData execSnapshot   `json:"execution_data"`
	CreatedAt     time.Time      `json:"created_at"`
	ParentID      string         `json:"parent_id,omitempty"`
}

// PersistenceLayer is the Persistence Adapter contract (SPEC_FULL §4.6),
// grounded on workflow.CheckpointStore's Save/Load/LoadLatest shape
// (workflow/checkpoint_enhanced.go) and agent/persistence.TaskStore's
// store-by-ID convention. Save creates a new version; Load returns the
// latest version for a workflow ID.
type PersistenceLayer interface {
	Save(ctx context.Context, snapshot *WorkflowSnapshot) error
	Load(ctx context.Context, workflowID string) (*WorkflowSnapshot, error)
	LoadVersion(ctx context.Context, workflowID string, version int) (*WorkflowSnapshot, error)
	ListVersions(ctx context.Context, workflowID string) ([]*WorkflowSnapshot, error)
	Delete(ctx context.Context, workflowID string) error
}
