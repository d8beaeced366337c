// Package store defines the job store contract: per-job status, the
// append-only event log, the write-once result blob, and the global telemetry
// counters. Implementations live in the redis and memory subpackages; the
// contract relies on per-key atomic primitives (atomic list append, atomic
// counter increment), not on application-level locking.
package store
