// Package redis implements the job store on Redis using its per-key atomic
// primitives: HSET for status overwrites, RPUSH for log appends, SETNX for
// the write-once result, and HINCRBY for global counters.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veritaslabs/veritas/internal/claims"
	"github.com/veritaslabs/veritas/internal/progress"
	"github.com/veritaslabs/veritas/internal/store"
)

// Config controls the Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// Store is a Redis-backed store.JobStore.
type Store struct {
	client *redis.Client
	clock  claims.Clock
}

const globalStatsKey = "stats:global"

// New constructs a Store and verifies connectivity.
func New(ctx context.Context, cfg Config, clock claims.Clock) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{client: client, clock: clock}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return fmt.Errorf("redis close: %w", err)
	}
	return nil
}

func statusKey(jobID string) string { return "job:" + jobID + ":status" }
func logsKey(jobID string) string   { return "job:" + jobID + ":logs" }
func resultKey(jobID string) string { return "job:" + jobID + ":result" }

// CreateJob initializes the status hash at QUEUED with an empty log.
func (s *Store) CreateJob(ctx context.Context, jobID string) error {
	if err := s.writeStatus(ctx, jobID, claims.StateQueued, claims.StagePending); err != nil {
		return fmt.Errorf("create job %s: %w", jobID, err)
	}
	return nil
}

// SetStatus unconditionally overwrites the status fields (last-writer-wins;
// exactly one worker owns a job id).
func (s *Store) SetStatus(ctx context.Context, jobID string, state claims.JobState, stage string) error {
	if err := s.writeStatus(ctx, jobID, state, stage); err != nil {
		return fmt.Errorf("set status %s: %w", jobID, err)
	}
	return nil
}

func (s *Store) writeStatus(ctx context.Context, jobID string, state claims.JobState, stage string) error {
	return s.client.HSet(ctx, statusKey(jobID), map[string]any{
		"state":         string(state),
		"current_stage": stage,
	}).Err()
}

// AppendEvent RPUSHes one encoded event onto the job's log.
func (s *Store) AppendEvent(ctx context.Context, jobID string, evt progress.Event) error {
	data, err := store.EncodeEvent(evt)
	if err != nil {
		return err
	}
	if err := s.client.RPush(ctx, logsKey(jobID), data).Err(); err != nil {
		return fmt.Errorf("append event %s: %w", jobID, err)
	}
	return nil
}

// Status reads the status hash, mapping an empty hash to ErrNotFound.
func (s *Store) Status(ctx context.Context, jobID string) (claims.StatusSnapshot, error) {
	fields, err := s.client.HGetAll(ctx, statusKey(jobID)).Result()
	if err != nil {
		return claims.StatusSnapshot{}, fmt.Errorf("read status %s: %w", jobID, err)
	}
	if len(fields) == 0 {
		return claims.StatusSnapshot{}, store.ErrNotFound
	}
	return claims.StatusSnapshot{
		State:        claims.JobState(fields["state"]),
		CurrentStage: fields["current_stage"],
	}, nil
}

// Events returns the log entries at or after the cursor. A job whose status
// record exists but whose log is empty yields an empty slice.
func (s *Store) Events(ctx context.Context, jobID string, from store.Cursor) ([]progress.Event, store.Cursor, error) {
	exists, err := s.client.Exists(ctx, statusKey(jobID)).Result()
	if err != nil {
		return nil, from, fmt.Errorf("read events %s: %w", jobID, err)
	}
	if exists == 0 {
		return nil, from, store.ErrNotFound
	}
	raw, err := s.client.LRange(ctx, logsKey(jobID), int64(from), -1).Result()
	if err != nil {
		return nil, from, fmt.Errorf("read events %s: %w", jobID, err)
	}
	events := make([]progress.Event, 0, len(raw))
	for _, item := range raw {
		evt, decErr := store.DecodeEvent([]byte(item))
		if decErr != nil {
			return nil, from, decErr
		}
		events = append(events, evt)
	}
	return events, from.Advance(len(events)), nil
}

// SetResult writes the terminal payload once; later writes are ignored.
func (s *Store) SetResult(ctx context.Context, jobID string, payload []byte) error {
	if err := s.client.SetNX(ctx, resultKey(jobID), payload, 0).Err(); err != nil {
		return fmt.Errorf("set result %s: %w", jobID, err)
	}
	return nil
}

// Result returns the stored payload, distinguishing "no such job" from
// "job exists but has not finished."
func (s *Store) Result(ctx context.Context, jobID string) ([]byte, error) {
	data, err := s.client.Get(ctx, resultKey(jobID)).Bytes()
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read result %s: %w", jobID, err)
	}
	exists, exErr := s.client.Exists(ctx, statusKey(jobID)).Result()
	if exErr != nil {
		return nil, fmt.Errorf("read result %s: %w", jobID, exErr)
	}
	if exists == 0 {
		return nil, store.ErrNotFound
	}
	return nil, store.ErrNotReady
}

// IncrCounter atomically increments one global counter and refreshes the
// last_updated stamp.
func (s *Store) IncrCounter(ctx context.Context, name string, delta int64) error {
	if err := s.client.HIncrBy(ctx, globalStatsKey, name, delta).Err(); err != nil {
		return fmt.Errorf("incr counter %s: %w", name, err)
	}
	stamp := s.now().UTC().Format(time.RFC3339)
	if err := s.client.HSet(ctx, globalStatsKey, "last_updated", stamp).Err(); err != nil {
		return fmt.Errorf("stamp counter %s: %w", name, err)
	}
	return nil
}

// Counters returns the global stats hash as-is.
func (s *Store) Counters(ctx context.Context) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, globalStatsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read counters: %w", err)
	}
	return fields, nil
}

func (s *Store) now() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return time.Now()
}
