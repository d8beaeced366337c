package claims

import (
	"context"
	"time"
)

// Queue provides enqueue/dequeue semantics for verification jobs.
type Queue interface {
	Enqueue(ctx context.Context, item QueueItem) error
	Dequeue(ctx context.Context) (QueueItem, error)
}

// SearchClient queries the external search API for evidence candidates.
type SearchClient interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// Extractor recovers article content from a URL.
type Extractor interface {
	Extract(ctx context.Context, url string) ExtractionResult
}

// Analyzer produces the claim-analysis artifact. Implementations must not
// return an error for analysis failures; those are reported in the artifact's
// Error field so the pipeline always has something to hand downstream.
type Analyzer interface {
	Analyze(claim string) ClaimAnalysis
}

// ReasoningClient hands the pipeline artifacts to the external reasoning
// service and returns its structured verdict.
type ReasoningClient interface {
	Synthesize(ctx context.Context, claim string, analysis ClaimAnalysis, research ResearchReport) (Verdict, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces job IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
