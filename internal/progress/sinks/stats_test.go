package sinks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veritaslabs/veritas/internal/progress"
	"github.com/veritaslabs/veritas/internal/store"
)

type fakeCounters struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func (f *fakeCounters) IncrCounter(_ context.Context, name string, delta int64) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = make(map[string]int64)
	}
	f.counts[name] += delta
	return nil
}

func evt(src string, typ progress.Type, meta map[string]string) progress.Event {
	return progress.Event{
		JobID:   "job-1",
		TS:      time.Unix(1700000000, 0).UTC(),
		Source:  src,
		Type:    typ,
		Message: "m",
		Meta:    meta,
	}
}

func TestStatsSink_MapsEventsToCounters(t *testing.T) {
	t.Parallel()

	counters := &fakeCounters{}
	sink := NewStatsSink(counters, nil)

	batch := []progress.Event{
		evt(progress.SourceNLP, progress.TypeEnd, nil),
		evt(progress.SourceScraper, progress.TypeToolCall, map[string]string{"outcome": "success"}),
		evt(progress.SourceScraper, progress.TypeToolCall, map[string]string{"outcome": "failure"}),
		evt(progress.SourcePipeline, progress.TypeEnd, nil),
		evt(progress.SourcePipeline, progress.TypeFailed, nil),
		evt(progress.SourceVerdict, progress.TypeStart, nil),
	}
	require.NoError(t, sink.Consume(context.Background(), batch))

	require.Equal(t, int64(1), counters.counts[store.CounterClaimsAnalyzed])
	require.Equal(t, int64(1), counters.counts[store.CounterURLsScraped])
	require.Equal(t, int64(1), counters.counts[store.CounterJobsCompleted])
	require.Equal(t, int64(1), counters.counts[store.CounterJobsFailed])
}

// TestStatsSink_SwallowsStoreErrors checks telemetry failures never propagate.
func TestStatsSink_SwallowsStoreErrors(t *testing.T) {
	t.Parallel()

	sink := NewStatsSink(&fakeCounters{err: errors.New("redis down")}, nil)
	batch := []progress.Event{evt(progress.SourcePipeline, progress.TypeEnd, nil)}
	require.NoError(t, sink.Consume(context.Background(), batch))
}
