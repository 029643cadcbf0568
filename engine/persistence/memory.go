// Package persistence provides PersistenceLayer backends for the Workflow
// Engine: an in-memory store for tests, and Redis/GORM-backed stores for
// production use.
package persistence

import (
	"context"
	"fmt"
	"sync"

	"github.com/trendy-design/deep.new/engine"
)

// MemoryStore is an in-memory PersistenceLayer, adapted directly from
// workflow.InMemoryCheckpointStore (workflow/checkpoint_enhanced.go): the
// same map-of-slices-by-ID storage and linear latest-version scan, applied
// to engine.WorkflowSnapshot instead of workflow.EnhancedCheckpoint.
type MemoryStore struct {
	mu        sync.RWMutex
	versions  map[string][]*engine.WorkflowSnapshot // workflowID -> versions, oldest first
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{versions: make(map[string][]*engine.WorkflowSnapshot)}
}

// Save appends a new version for the snapshot's workflow ID, assigning
// Version = len(existing)+1 and ParentID = the previous latest, mirroring
// EnhancedCheckpointManager.CreateCheckpoint's versioning scheme.
func (s *MemoryStore) Save(ctx context.Context, snap *engine.WorkflowSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := s.versions[snap.WorkflowID]
	snap.Version = len(existing) + 1
	if len(existing) > 0 {
		snap.ParentID = fmt.Sprintf("%s@%d", snap.WorkflowID, existing[len(existing)-1].Version)
	}
	s.versions[snap.WorkflowID] = append(existing, snap)
	return nil
}

// Load returns the latest version for workflowID.
func (s *MemoryStore) Load(ctx context.Context, workflowID string) (*engine.WorkflowSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions := s.versions[workflowID]
	if len(versions) == 0 {
		return nil, fmt.Errorf("persistence: no snapshots for workflow %q", workflowID)
	}
	return versions[len(versions)-1], nil
}

// LoadVersion returns a specific version for workflowID.
func (s *MemoryStore) LoadVersion(ctx context.Context, workflowID string, version int) (*engine.WorkflowSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.versions[workflowID] {
		if v.Version == version {
			return v, nil
		}
	}
	return nil, fmt.Errorf("persistence: version %d not found for workflow %q", version, workflowID)
}

// ListVersions returns every version for workflowID, oldest first.
func (s *MemoryStore) ListVersions(ctx context.Context, workflowID string) ([]*engine.WorkflowSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*engine.WorkflowSnapshot, len(s.versions[workflowID]))
	copy(out, s.versions[workflowID])
	return out, nil
}

// Delete removes every version for workflowID.
func (s *MemoryStore) Delete(ctx context.Context, workflowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.versions, workflowID)
	return nil
}
