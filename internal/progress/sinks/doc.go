// Package sinks contains progress.Sink implementations: structured logging,
// Prometheus counters, and the best-effort global stats counters kept in the
// job store.
package sinks
