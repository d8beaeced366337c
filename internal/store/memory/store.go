// Package memory provides an in-memory job store for development and tests.
// It honors the same contract as the Redis implementation, including the
// not-found/not-ready distinction and cursor semantics.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/veritaslabs/veritas/internal/claims"
	"github.com/veritaslabs/veritas/internal/progress"
	"github.com/veritaslabs/veritas/internal/store"
)

type jobRecord struct {
	status claims.StatusSnapshot
	log    []progress.Event
	result []byte
}

// Store is a mutex-guarded map implementation of store.JobStore.
type Store struct {
	mu          sync.RWMutex
	jobs        map[string]*jobRecord
	counters    map[string]int64
	lastUpdated time.Time
	clock       claims.Clock
}

// New constructs an empty Store. A nil clock falls back to time.Now.
func New(clock claims.Clock) *Store {
	return &Store{
		jobs:     make(map[string]*jobRecord),
		counters: make(map[string]int64),
		clock:    clock,
	}
}

// CreateJob initializes a job at QUEUED with an empty log.
func (s *Store) CreateJob(_ context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[jobID]; !exists {
		s.jobs[jobID] = &jobRecord{}
	}
	s.jobs[jobID].status = claims.StatusSnapshot{State: claims.StateQueued, CurrentStage: claims.StagePending}
	return nil
}

// SetStatus overwrites the status fields, creating the record if needed.
func (s *Store) SetStatus(_ context.Context, jobID string, state claims.JobState, stage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		rec = &jobRecord{}
		s.jobs[jobID] = rec
	}
	rec.status = claims.StatusSnapshot{State: state, CurrentStage: stage}
	return nil
}

// AppendEvent appends one event to the job's log.
func (s *Store) AppendEvent(_ context.Context, jobID string, evt progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		rec = &jobRecord{}
		s.jobs[jobID] = rec
	}
	rec.log = append(rec.log, evt)
	return nil
}

// Status returns the snapshot or store.ErrNotFound.
func (s *Store) Status(_ context.Context, jobID string) (claims.StatusSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		return claims.StatusSnapshot{}, store.ErrNotFound
	}
	return rec.status, nil
}

// Events returns a copy of the log from the cursor onward.
func (s *Store) Events(_ context.Context, jobID string, from store.Cursor) ([]progress.Event, store.Cursor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		return nil, from, store.ErrNotFound
	}
	start := int(from)
	if start < 0 {
		start = 0
	}
	if start >= len(rec.log) {
		return nil, from, nil
	}
	out := make([]progress.Event, len(rec.log)-start)
	copy(out, rec.log[start:])
	return out, from.Advance(len(out)), nil
}

// SetResult stores the terminal payload; the first write wins.
func (s *Store) SetResult(_ context.Context, jobID string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		rec = &jobRecord{}
		s.jobs[jobID] = rec
	}
	if rec.result == nil {
		rec.result = append([]byte(nil), payload...)
	}
	return nil
}

// Result returns the payload, store.ErrNotReady, or store.ErrNotFound.
func (s *Store) Result(_ context.Context, jobID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.jobs[jobID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if rec.result == nil {
		return nil, store.ErrNotReady
	}
	out := make([]byte, len(rec.result))
	copy(out, rec.result)
	return out, nil
}

// IncrCounter increments a global counter and refreshes last_updated.
func (s *Store) IncrCounter(_ context.Context, name string, delta int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name] += delta
	s.lastUpdated = s.now().UTC()
	return nil
}

// Counters returns the counter snapshot in the same flat string mapping shape
// the Redis hash yields.
func (s *Store) Counters(_ context.Context) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.counters)+1)
	for name, val := range s.counters {
		out[name] = strconv.FormatInt(val, 10)
	}
	if !s.lastUpdated.IsZero() {
		out["last_updated"] = s.lastUpdated.Format(time.RFC3339)
	}
	return out, nil
}

func (s *Store) now() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return time.Now()
}
