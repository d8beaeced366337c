package progress

import (
	"errors"
	"fmt"
	"time"
)

// Type denotes the kind of milestone represented by an Event.
type Type string

// Supported event types. System events carry pipeline-level markers that the
// streaming gateway watches for (terminal END/FAILED from the pipeline source).
const (
	TypeStart    Type = "START"
	TypeEnd      Type = "END"
	TypeToolCall Type = "TOOL_CALL"
	TypeFailed   Type = "FAILED"
	TypeSystem   Type = "SYSTEM"
)

// Source labels used by the pipeline's emitters.
const (
	SourcePipeline  = "pipeline"
	SourceClaim     = "claim_agent"
	SourceNLP       = "nlp_tool"
	SourceSearch    = "search_tool"
	SourceScraper   = "scraper_tool"
	SourceVerdict   = "verdict_agent"
	SourceTelemetry = "telemetry"
)

// Event captures a single entry in a job's append-only log. Events are
// immutable once appended; within one job the append order is the causal
// order, since exactly one worker owns the job.
type Event struct {
	JobID   string            `json:"job_id"`
	TS      time.Time         `json:"ts"`
	Source  string            `json:"source"`
	Type    Type              `json:"type"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.JobID == "" {
		return errors.New("job id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	if e.Source == "" {
		return errors.New("source is required")
	}
	switch e.Type {
	case TypeStart, TypeEnd, TypeToolCall, TypeFailed, TypeSystem:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	return nil
}

// Terminal reports whether the event marks the end of a job's log. The
// streaming gateway closes a live stream once it observes one.
func (e Event) Terminal() bool {
	return e.Source == SourcePipeline && (e.Type == TypeEnd || e.Type == TypeFailed)
}
