package sinks

import (
	"context"

	"github.com/veritaslabs/veritas/internal/metrics"
	"github.com/veritaslabs/veritas/internal/progress"
)

// PrometheusSink mirrors progress events into process-wide Prometheus
// counters. metrics.Init must have been called before events arrive.
type PrometheusSink struct{}

// NewPrometheusSink constructs the sink.
func NewPrometheusSink() *PrometheusSink {
	return &PrometheusSink{}
}

// Consume counts each event by source and type.
func (s *PrometheusSink) Consume(_ context.Context, batch []progress.Event) error {
	for _, evt := range batch {
		metrics.ObservePipelineEvent(evt.Source, string(evt.Type))
	}
	return nil
}

// Close implements the Sink interface; it performs no action.
func (s *PrometheusSink) Close(context.Context) error {
	return nil
}
