package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veritaslabs/veritas/internal/claims"
	"github.com/veritaslabs/veritas/internal/progress"
	"github.com/veritaslabs/veritas/internal/store"
)

func sampleEvent(jobID, msg string) progress.Event {
	return progress.Event{
		JobID:   jobID,
		TS:      time.Unix(1700000000, 0).UTC(),
		Source:  progress.SourceNLP,
		Type:    progress.TypeToolCall,
		Message: msg,
	}
}

func TestStore_StatusNotFoundVsEmpty(t *testing.T) {
	t.Parallel()

	s := New(nil)
	ctx := context.Background()

	_, err := s.Status(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.CreateJob(ctx, "job-1"))
	status, err := s.Status(ctx, "job-1")
	require.NoError(t, err)
	require.Equal(t, claims.StateQueued, status.State)
	require.Equal(t, claims.StagePending, status.CurrentStage)

	events, cursor, err := s.Events(ctx, "job-1", 0)
	require.NoError(t, err)
	require.Empty(t, events)
	require.Equal(t, store.Cursor(0), cursor)
}

// TestStore_CursorIdempotency checks the idempotent-cursor property: two reads
// from the same advancing cursor return disjoint slices that concatenate to
// the full log.
func TestStore_CursorIdempotency(t *testing.T) {
	t.Parallel()

	s := New(nil)
	ctx := context.Background()
	require.NoError(t, s.CreateJob(ctx, "job-1"))

	require.NoError(t, s.AppendEvent(ctx, "job-1", sampleEvent("job-1", "a")))
	require.NoError(t, s.AppendEvent(ctx, "job-1", sampleEvent("job-1", "b")))

	first, cursor, err := s.Events(ctx, "job-1", 0)
	require.NoError(t, err)
	require.Len(t, first, 2)

	require.NoError(t, s.AppendEvent(ctx, "job-1", sampleEvent("job-1", "c")))

	second, cursor, err := s.Events(ctx, "job-1", cursor)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, "c", second[0].Message)
	require.Equal(t, store.Cursor(3), cursor)

	// A repeat read from the final cursor yields nothing new.
	third, cursor, err := s.Events(ctx, "job-1", cursor)
	require.NoError(t, err)
	require.Empty(t, third)
	require.Equal(t, store.Cursor(3), cursor)

	full, _, err := s.Events(ctx, "job-1", 0)
	require.NoError(t, err)
	require.Equal(t, append(first, second...), full)
}

func TestStore_ResultWriteOnce(t *testing.T) {
	t.Parallel()

	s := New(nil)
	ctx := context.Background()
	require.NoError(t, s.CreateJob(ctx, "job-1"))

	_, err := s.Result(ctx, "job-1")
	require.ErrorIs(t, err, store.ErrNotReady)

	_, err = s.Result(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SetResult(ctx, "job-1", []byte(`{"verdict":"REAL"}`)))
	require.NoError(t, s.SetResult(ctx, "job-1", []byte(`{"verdict":"FAKE"}`)))

	payload, err := s.Result(ctx, "job-1")
	require.NoError(t, err)
	require.JSONEq(t, `{"verdict":"REAL"}`, string(payload))
}

func TestStore_Counters(t *testing.T) {
	t.Parallel()

	s := New(nil)
	ctx := context.Background()

	require.NoError(t, s.IncrCounter(ctx, store.CounterClaimsAnalyzed, 1))
	require.NoError(t, s.IncrCounter(ctx, store.CounterClaimsAnalyzed, 2))
	require.NoError(t, s.IncrCounter(ctx, store.CounterJobsFailed, 1))

	counters, err := s.Counters(ctx)
	require.NoError(t, err)
	require.Equal(t, "3", counters[store.CounterClaimsAnalyzed])
	require.Equal(t, "1", counters[store.CounterJobsFailed])
	require.NotEmpty(t, counters["last_updated"])
}
