package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"incall-control/internal/call"
)

// RedisStore keeps call snapshots in Redis so the command boundary and the
// telephony layer can run in separate processes.
//
// Keying: one JSON value per call under call:<id>. Snapshots carry a TTL as a
// safety net against leaked entries if the telephony layer dies without
// removing its calls; the TTL must comfortably exceed any plausible call
// duration gap between state updates.

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

const defaultSnapshotTTL = 4 * time.Hour

func NewRedisStore(rdb *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if rdb == nil {
		return nil, errors.New("registry: redis client is required")
	}
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

func snapshotKey(callID int) string {
	return fmt.Sprintf("call:%d", callID)
}

func (s *RedisStore) Lookup(ctx context.Context, callID int) (call.Snapshot, bool, error) {
	raw, err := s.rdb.Get(ctx, snapshotKey(callID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return call.Snapshot{}, false, nil
	}
	if err != nil {
		return call.Snapshot{}, false, fmt.Errorf("registry: lookup %d: %w", callID, err)
	}
	var snap call.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return call.Snapshot{}, false, fmt.Errorf("registry: decode %d: %w", callID, err)
	}
	return snap, true, nil
}

func (s *RedisStore) Save(ctx context.Context, snap call.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("registry: encode %d: %w", snap.ID, err)
	}
	if err := s.rdb.Set(ctx, snapshotKey(snap.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("registry: save %d: %w", snap.ID, err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, callID int) error {
	if err := s.rdb.Del(ctx, snapshotKey(callID)).Err(); err != nil {
		return fmt.Errorf("registry: remove %d: %w", callID, err)
	}
	return nil
}
