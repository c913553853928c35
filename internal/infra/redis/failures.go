package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/bridge/internal/core/domain"
)

// retention bounds how long an exhausted failure stays inspectable.
const retention = 24 * time.Hour

// FailureJournal records exhausted execution failures to Redis for
// operator inspection. It implements exec.FailureRecorder.
type FailureJournal struct {
	rdb *redis.Client
}

// NewFailureJournal creates a Redis-backed failure journal.
func NewFailureJournal(client *Client) *FailureJournal {
	return &FailureJournal{rdb: client.rdb}
}

// Key helpers
func (j *FailureJournal) queueKey(backend string) string {
	return fmt.Sprintf("failed_ops:%s", backend)
}

func (j *FailureJournal) recordKey(backend, id string) string {
	return fmt.Sprintf("failed_op:%s:%s", backend, id)
}

// Record stores one failure, most recent first.
func (j *FailureJournal) Record(ctx context.Context, rec domain.FailureRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal failure record: %w", err)
	}

	if err := j.rdb.Set(ctx, j.recordKey(rec.Backend, rec.ID), data, retention).Err(); err != nil {
		return fmt.Errorf("failed to set failure record: %w", err)
	}

	// Sorted set scored by timestamp so Recent can walk newest-first.
	if err := j.rdb.ZAdd(ctx, j.queueKey(rec.Backend), redis.Z{
		Score:  float64(rec.At.UnixNano()),
		Member: rec.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to failure queue: %w", err)
	}

	return nil
}

// Clear drops the journal for one backend. Returns how many records
// were queued.
func (j *FailureJournal) Clear(ctx context.Context, backend string) (int64, error) {
	ids, err := j.rdb.ZRange(ctx, j.queueKey(backend), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("zrange failed: %w", err)
	}
	for _, id := range ids {
		j.rdb.Del(ctx, j.recordKey(backend, id))
	}
	if err := j.rdb.Del(ctx, j.queueKey(backend)).Err(); err != nil {
		return 0, fmt.Errorf("failed to drop failure queue: %w", err)
	}
	return int64(len(ids)), nil
}

// Recent returns up to n most recent failures for a backend.
func (j *FailureJournal) Recent(ctx context.Context, backend string, n int64) ([]domain.FailureRecord, error) {
	ids, err := j.rdb.ZRevRange(ctx, j.queueKey(backend), 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange failed: %w", err)
	}

	records := make([]domain.FailureRecord, 0, len(ids))
	for _, id := range ids {
		data, err := j.rdb.Get(ctx, j.recordKey(backend, id)).Bytes()
		if err == redis.Nil {
			// Record expired but id still queued; drop it.
			j.rdb.ZRem(ctx, j.queueKey(backend), id)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get failed: %w", err)
		}
		var rec domain.FailureRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal failure record: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}
