package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/trendy-design/deep.new/engine"
)

// marshalField JSON-encodes one WorkflowSnapshot sub-field for storage in a
// text column.
func marshalField(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("persistence: marshal field: %w", err)
	}
	return string(data), nil
}

// rowToSnapshot decodes a workflowSnapshotRow back into a WorkflowSnapshot.
// ExecutionData's concrete type is unexported in package engine, but its
// field is exported, so json.Unmarshal can still populate it by address
// without this package ever naming the type.
func rowToSnapshot(row *workflowSnapshotRow) (*engine.WorkflowSnapshot, error) {
	out := &engine.WorkflowSnapshot{
		WorkflowID: row.WorkflowID,
		Version:    row.Version,
		ParentID:   row.ParentID,
		CreatedAt:  row.CreatedAt,
	}
	if err := json.Unmarshal([]byte(row.ContextState), &out.ContextState); err != nil {
		return nil, fmt.Errorf("persistence: unmarshal context state: %w", err)
	}
	if err := json.Unmarshal([]byte(row.EventState), &out.EventState); err != nil {
		return nil, fmt.Errorf("persistence: unmarshal event state: %w", err)
	}
	if err := json.Unmarshal([]byte(row.ExecutionData), &out.ExecutionData); err != nil {
		return nil, fmt.Errorf("persistence: unmarshal execution data: %w", err)
	}
	return out, nil
}

// workflowSnapshotRow is the GORM model backing WorkflowSnapshot, the
// relational analog of the JSON blobs MemoryStore and RedisStore keep
// in memory/Redis. Context/event/execution state are stored as JSON text
// columns rather than normalized tables, the same denormalized-blob
// approach agent/persistence's SQL-backed stores take for AsyncTask
// payloads too irregular to model as columns.
type workflowSnapshotRow struct {
	ID            uint      `gorm:"primaryKey"`
	WorkflowID    string    `gorm:"column:workflow_id;index"`
	Version       int       `gorm:"column:version"`
	ContextState  string    `gorm:"column:context_state;type:text"`
	EventState    string    `gorm:"column:event_state;type:text"`
	ExecutionData string    `gorm:"column:execution_data;type:text"`
	ParentID      string    `gorm:"column:parent_id"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (workflowSnapshotRow) TableName() string { return "workflow_snapshots" }

// GormStore is a relational PersistenceLayer backend, grounded on the same
// shape as MemoryStore and RedisStore but using GORM so a deployment can
// point the Persistence Adapter at Postgres, MySQL, or SQLite depending on
// which gorm.io/driver/* is wired in at startup; schema evolution is
// expected to be managed by golang-migrate rather than GORM AutoMigrate in
// production, mirroring cmd/agentflow/migrate.go's migration-tool convention.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps an already-opened *gorm.DB.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates the workflow_snapshots table for tests and local
// development; production schema changes should go through golang-migrate
// instead, consistent with the repo's own migrate command.
func (s *GormStore) AutoMigrate() error {
	return s.db.AutoMigrate(&workflowSnapshotRow{})
}

func (s *GormStore) Save(ctx context.Context, snap *engine.WorkflowSnapshot) error {
	var maxVersion int
	s.db.WithContext(ctx).Model(&workflowSnapshotRow{}).
		Where("workflow_id = ?", snap.WorkflowID).
		Select("COALESCE(MAX(version), 0)").Scan(&maxVersion)

	snap.Version = maxVersion + 1
	if maxVersion > 0 {
		snap.ParentID = fmt.Sprintf("%s@%d", snap.WorkflowID, maxVersion)
	}

	contextJSON, err := marshalField(snap.ContextState)
	if err != nil {
		return err
	}
	eventJSON, err := marshalField(snap.EventState)
	if err != nil {
		return err
	}
	execJSON, err := marshalField(snap.ExecutionData)
	if err != nil {
		return err
	}

	row := workflowSnapshotRow{
		WorkflowID:    snap.WorkflowID,
		Version:       snap.Version,
		ContextState:  contextJSON,
		EventState:    eventJSON,
		ExecutionData: execJSON,
		ParentID:      snap.ParentID,
		CreatedAt:     snap.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *GormStore) Load(ctx context.Context, workflowID string) (*engine.WorkflowSnapshot, error) {
	var row workflowSnapshotRow
	err := s.db.WithContext(ctx).
		Where("workflow_id = ?", workflowID).
		Order("version DESC").
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("persistence: no snapshots for workflow %q", workflowID)
		}
		return nil, err
	}
	return rowToSnapshot(&row)
}

func (s *GormStore) LoadVersion(ctx context.Context, workflowID string, version int) (*engine.WorkflowSnapshot, error) {
	var row workflowSnapshotRow
	err := s.db.WithContext(ctx).
		Where("workflow_id = ? AND version = ?", workflowID, version).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("persistence: version %d not found for workflow %q", version, workflowID)
		}
		return nil, err
	}
	return rowToSnapshot(&row)
}

func (s *GormStore) ListVersions(ctx context.Context, workflowID string) ([]*engine.WorkflowSnapshot, error) {
	var rows []workflowSnapshotRow
	if err := s.db.WithContext(ctx).
		Where("workflow_id = ?", workflowID).
		Order("version ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]*engine.WorkflowSnapshot, 0, len(rows))
	for i := range rows {
		snap, err := rowToSnapshot(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func (s *GormStore) Delete(ctx context.Context, workflowID string) error {
	return s.db.WithContext(ctx).
		Where("workflow_id = ?", workflowID).
		Delete(&workflowSnapshotRow{}).Error
}

var _ engine.PersistenceLayer = (*GormStore)(nil)
