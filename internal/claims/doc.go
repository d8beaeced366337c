// Package claims defines the core types shared across the verification
// pipeline: the job lifecycle, the artifacts each stage produces, and the
// interfaces the orchestrator uses to talk to its collaborators.
package claims
