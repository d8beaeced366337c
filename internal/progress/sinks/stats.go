package sinks

import (
	"context"

	"go.uber.org/zap"

	"github.com/veritaslabs/veritas/internal/progress"
	"github.com/veritaslabs/veritas/internal/store"
)

// CounterStore is the slice of the job store the stats sink needs.
type CounterStore interface {
	IncrCounter(ctx context.Context, name string, delta int64) error
}

// StatsSink folds progress events into the global counters record. Increments
// are best-effort: failures are logged, never returned, so telemetry can
// never raise back into pipeline logic.
type StatsSink struct {
	counters CounterStore
	logger   *zap.Logger
}

// NewStatsSink wires the counter store and logger.
func NewStatsSink(counters CounterStore, logger *zap.Logger) *StatsSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsSink{counters: counters, logger: logger}
}

// Consume maps events onto counter increments.
func (s *StatsSink) Consume(ctx context.Context, batch []progress.Event) error {
	if s == nil || s.counters == nil {
		return nil
	}
	for _, evt := range batch {
		switch {
		case evt.Source == progress.SourceNLP && evt.Type == progress.TypeEnd:
			s.incr(ctx, store.CounterClaimsAnalyzed, 1)
		case evt.Source == progress.SourceScraper && evt.Meta["outcome"] == "success":
			s.incr(ctx, store.CounterURLsScraped, 1)
		case evt.Source == progress.SourcePipeline && evt.Type == progress.TypeEnd:
			s.incr(ctx, store.CounterJobsCompleted, 1)
		case evt.Source == progress.SourcePipeline && evt.Type == progress.TypeFailed:
			s.incr(ctx, store.CounterJobsFailed, 1)
		}
	}
	return nil
}

func (s *StatsSink) incr(ctx context.Context, name string, delta int64) {
	if err := s.counters.IncrCounter(ctx, name, delta); err != nil {
		s.logger.Warn("telemetry increment failed", zap.String("counter", name), zap.Error(err))
	}
}

// Close implements the Sink interface; it performs no action.
func (s *StatsSink) Close(context.Context) error {
	return nil
}
