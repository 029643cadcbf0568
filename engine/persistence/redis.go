package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/trendy-design/deep.new/engine"
)

// RedisConfig configures RedisStore, mirroring the teacher's
// agent/persistence StoreConfig.Redis fields.
type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	PoolSize  int
	KeyPrefix string
}

// RedisStore is a Redis-backed PersistenceLayer, adapted from
// agent/persistence/redis_task_store.go's RedisTaskStore: each snapshot
// version is stored under its own key (taskKey's analog), and a sorted set
// keyed by workflow ID indexes versions by their creation time, the same
// ZADD-by-score index RedisTaskStore keeps per status/agent/session.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisStore connects to Redis and verifies the connection with a 5s
// Ping, matching NewRedisTaskStore's startup check.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("persistence: connect to redis: %w", err)
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "deepnew:workflow:"
	}
	return &RedisStore{client: client, keyPrefix: keyPrefix}, nil
}

func (s *RedisStore) snapshotKey(workflowID string, version int) string {
	return fmt.Sprintf("%sdata:%s:%d", s.keyPrefix, workflowID, version)
}

func (s *RedisStore) versionIndexKey(workflowID string) string {
	return s.keyPrefix + "versions:" + workflowID
}

// Close releases the underlying Redis connection pool.
func (s *RedisStore) Close() error { return s.client.Close() }

// Save writes a new version, assigning it the next version number and
// adding it to the workflow's version index sorted set, the same
// pipe.Set+pipe.ZAdd pairing RedisTaskStore.SaveTask uses.
func (s *RedisStore) Save(ctx context.Context, snap *engine.WorkflowSnapshot) error {
	latestVersion := 0
	if latest, err := s.client.ZRevRangeWithScores(ctx, s.versionIndexKey(snap.WorkflowID), 0, 0).Result(); err == nil && len(latest) > 0 {
		latestVersion = int(latest[0].Score)
	}
	snap.Version = latestVersion + 1
	if latestVersion > 0 {
		snap.ParentID = fmt.Sprintf("%s@%d", snap.WorkflowID, latestVersion)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("persistence: marshal snapshot: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, s.snapshotKey(snap.WorkflowID, snap.Version), data, 0)
	pipe.ZAdd(ctx, s.versionIndexKey(snap.WorkflowID), redis.Z{
		Score:  float64(snap.Version),
		Member: snap.Version,
	})
	_, err = pipe.Exec(ctx)
	return err
}

// Load returns the latest version for workflowID.
func (s *RedisStore) Load(ctx context.Context, workflowID string) (*engine.WorkflowSnapshot, error) {
	latest, err := s.client.ZRevRangeWithScores(ctx, s.versionIndexKey(workflowID), 0, 0).Result()
	if err != nil {
		return nil, err
	}
	if len(latest) == 0 {
		return nil, fmt.Errorf("persistence: no snapshots for workflow %q", workflowID)
	}
	return s.LoadVersion(ctx, workflowID, int(latest[0].Score))
}

// LoadVersion returns a specific version for workflowID.
func (s *RedisStore) LoadVersion(ctx context.Context, workflowID string, version int) (*engine.WorkflowSnapshot, error) {
	data, err := s.client.Get(ctx, s.snapshotKey(workflowID, version)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("persistence: version %d not found for workflow %q", version, workflowID)
	}
	if err != nil {
		return nil, err
	}
	var snap engine.WorkflowSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListVersions returns every version for workflowID, oldest first.
func (s *RedisStore) ListVersions(ctx context.Context, workflowID string) ([]*engine.WorkflowSnapshot, error) {
	versions, err := s.client.ZRangeWithScores(ctx, s.versionIndexKey(workflowID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*engine.WorkflowSnapshot, 0, len(versions))
	for _, v := range versions {
		snap, err := s.LoadVersion(ctx, workflowID, int(v.Score))
		if err != nil {
			continue
		}
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Delete removes every version for workflowID.
func (s *RedisStore) Delete(ctx context.Context, workflowID string) error {
	versions, err := s.client.ZRange(ctx, s.versionIndexKey(workflowID), 0, -1).Result()
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	for _, v := range versions {
		pipe.Del(ctx, s.keyPrefix+"data:"+workflowID+":"+v)
	}
	pipe.Del(ctx, s.versionIndexKey(workflowID))
	_, err = pipe.Exec(ctx)
	return err
}

var _ engine.PersistenceLayer = (*RedisStore)(nil)
