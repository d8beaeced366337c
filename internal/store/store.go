package store

import (
	"context"
	"errors"

	"github.com/veritaslabs/veritas/internal/claims"
	"github.com/veritaslabs/veritas/internal/progress"
)

// ErrNotFound is returned when a job id has no record at all, distinguished
// from "found but empty."
var ErrNotFound = errors.New("job not found")

// ErrNotReady is returned by Result while the job has no terminal payload yet.
var ErrNotReady = errors.New("result not ready")

// Cursor is a monotonic position in a job's event log. It never rewinds:
// reads from a cursor applied twice return disjoint, order-preserving slices
// that concatenate to the full log.
type Cursor int64

// Advance returns the cursor moved past n additional events.
func (c Cursor) Advance(n int) Cursor {
	return c + Cursor(n)
}

// JobStore is the shared mutable substrate for the pipeline. Status writes
// are last-writer-wins (exactly one worker owns a job); event appends and
// counter increments are atomic at the store level.
type JobStore interface {
	// CreateJob initializes a job at QUEUED with an empty log.
	CreateJob(ctx context.Context, jobID string) error
	// SetStatus unconditionally overwrites the status fields.
	SetStatus(ctx context.Context, jobID string, state claims.JobState, stage string) error
	// AppendEvent atomically appends one event to the job's log.
	AppendEvent(ctx context.Context, jobID string, evt progress.Event) error
	// Status returns the job's status snapshot or ErrNotFound.
	Status(ctx context.Context, jobID string) (claims.StatusSnapshot, error)
	// Events returns events at or after the cursor plus the advanced cursor.
	// A job with a status record but no events returns an empty slice, not
	// ErrNotFound.
	Events(ctx context.Context, jobID string, from Cursor) ([]progress.Event, Cursor, error)
	// SetResult writes the terminal payload; the first write wins.
	SetResult(ctx context.Context, jobID string, payload []byte) error
	// Result returns the stored payload, ErrNotReady when absent, or
	// ErrNotFound for an unknown job.
	Result(ctx context.Context, jobID string) ([]byte, error)
	// IncrCounter atomically increments a global counter and refreshes the
	// last_updated stamp.
	IncrCounter(ctx context.Context, name string, delta int64) error
	// Counters returns the global counter snapshot.
	Counters(ctx context.Context) (map[string]string, error)
}

// Counter names tracked in the global stats record.
const (
	CounterClaimsAnalyzed = "claims_analyzed"
	CounterJobsCompleted  = "jobs_completed"
	CounterJobsFailed     = "jobs_failed"
	CounterURLsScraped    = "urls_scraped"
)
