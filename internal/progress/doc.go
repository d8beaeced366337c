// Package progress provides the event primitives, non-blocking hub, and
// emitter interfaces the pipeline uses to report per-job progress. The same
// Event type is appended synchronously to a job's durable log by the
// orchestrator and fanned out asynchronously to observability sinks
// (Prometheus, structured logs, global counters) via the Hub.
package progress
