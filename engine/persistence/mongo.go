package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/trendy-design/deep.new/engine"
)

// workflowSnapshotDoc is the document shape MongoStore stores, mirroring
// GormStore's workflowSnapshotRow but as a native BSON document rather than
// JSON-in-text-columns: context/event state round-trip as native BSON,
// execution state stays a JSON text field for the same unexported-type
// reason rowToSnapshot documents in gorm.go.
type workflowSnapshotDoc struct {
	WorkflowID    string         `bson:"workflow_id"`
	Version       int            `bson:"version"`
	ContextState  engine.Snapshot `bson:"context_state"`
	EventState    map[string]any `bson:"event_state"`
	ExecutionData string         `bson:"execution_data"`
	ParentID      string         `bson:"parent_id,omitempty"`
	CreatedAt     time.Time      `bson:"created_at"`
}

// MongoStore is a document-store PersistenceLayer backend, exercising the
// mongo-driver dependency the teacher lists in go.mod but never wires into
// agent/persistence (that package only ships SQL/Redis/file/memory
// stores) — wired here instead of dropped, same Save/Load/ListVersions
// contract as GormStore and RedisStore.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongoStore wraps an already-connected collection, e.g.
// client.Database("deepnew").Collection("workflow_snapshots").
func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

// EnsureIndexes creates the (workflow_id, version) compound index
// Load/LoadVersion/ListVersions rely on for efficient lookups.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "workflow_id", Value: 1}, {Key: "version", Value: -1}},
	})
	return err
}

func (s *MongoStore) Save(ctx context.Context, snap *engine.WorkflowSnapshot) error {
	maxVersion := 0
	var latest workflowSnapshotDoc
	err := s.coll.FindOne(ctx,
		bson.D{{Key: "workflow_id", Value: snap.WorkflowID}},
		options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}}),
	).Decode(&latest)
	switch {
	case err == nil:
		maxVersion = latest.Version
	case err == mongo.ErrNoDocuments:
		maxVersion = 0
	default:
		return fmt.Errorf("persistence: load latest version: %w", err)
	}

	snap.Version = maxVersion + 1
	if maxVersion > 0 {
		snap.ParentID = fmt.Sprintf("%s@%d", snap.WorkflowID, maxVersion)
	}

	execJSON, err := marshalField(snap.ExecutionData)
	if err != nil {
		return err
	}

	doc := workflowSnapshotDoc{
		WorkflowID:    snap.WorkflowID,
		Version:       snap.Version,
		ContextState:  snap.ContextState,
		EventState:    snap.EventState,
		ExecutionData: execJSON,
		ParentID:      snap.ParentID,
		CreatedAt:     snap.CreatedAt,
	}
	_, err = s.coll.InsertOne(ctx, doc)
	return err
}

func (s *MongoStore) Load(ctx context.Context, workflowID string) (*engine.WorkflowSnapshot, error) {
	var doc workflowSnapshotDoc
	err := s.coll.FindOne(ctx,
		bson.D{{Key: "workflow_id", Value: workflowID}},
		options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}}),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("persistence: no snapshots for workflow %q", workflowID)
	}
	if err != nil {
		return nil, err
	}
	return docToSnapshot(&doc)
}

func (s *MongoStore) LoadVersion(ctx context.Context, workflowID string, version int) (*engine.WorkflowSnapshot, error) {
	var doc workflowSnapshotDoc
	err := s.coll.FindOne(ctx, bson.D{
		{Key: "workflow_id", Value: workflowID},
		{Key: "version", Value: version},
	}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("persistence: version %d not found for workflow %q", version, workflowID)
	}
	if err != nil {
		return nil, err
	}
	return docToSnapshot(&doc)
}

func (s *MongoStore) ListVersions(ctx context.Context, workflowID string) ([]*engine.WorkflowSnapshot, error) {
	cursor, err := s.coll.Find(ctx,
		bson.D{{Key: "workflow_id", Value: workflowID}},
		options.Find().SetSort(bson.D{{Key: "version", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*engine.WorkflowSnapshot
	for cursor.Next(ctx) {
		var doc workflowSnapshotDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		snap, err := docToSnapshot(&doc)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, cursor.Err()
}

func (s *MongoStore) Delete(ctx context.Context, workflowID string) error {
	_, err := s.coll.DeleteMany(ctx, bson.D{{Key: "workflow_id", Value: workflowID}})
	return err
}

func docToSnapshot(doc *workflowSnapshotDoc) (*engine.WorkflowSnapshot, error) {
	out := &engine.WorkflowSnapshot{
		WorkflowID:   doc.WorkflowID,
		Version:      doc.Version,
		ContextState: doc.ContextState,
		EventState:   doc.EventState,
		ParentID:     doc.ParentID,
		CreatedAt:    doc.CreatedAt,
	}
	if err := json.Unmarshal([]byte(doc.ExecutionData), &out.ExecutionData); err != nil {
		return nil, fmt.Errorf("persistence: unmarshal execution data: %w", err)
	}
	return out, nil
}

var _ engine.PersistenceLayer = (*MongoStore)(nil)
