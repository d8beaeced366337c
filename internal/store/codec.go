package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/veritaslabs/veritas/internal/claims"
	"github.com/veritaslabs/veritas/internal/progress"
)

// The store persists exactly two record shapes besides the opaque result
// blob: a status record and an event record. Each has a single
// serialize/deserialize pair here so no implementation resorts to runtime
// type coercion.

type statusRecord struct {
	State        string `json:"state"`
	CurrentStage string `json:"current_stage"`
}

type eventRecord struct {
	JobID   string            `json:"job_id"`
	TS      string            `json:"ts"`
	Source  string            `json:"source"`
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// EncodeStatus serializes a status snapshot for storage.
func EncodeStatus(s claims.StatusSnapshot) ([]byte, error) {
	b, err := json.Marshal(statusRecord{State: string(s.State), CurrentStage: s.CurrentStage})
	if err != nil {
		return nil, fmt.Errorf("encode status: %w", err)
	}
	return b, nil
}

// DecodeStatus deserializes a stored status record.
func DecodeStatus(data []byte) (claims.StatusSnapshot, error) {
	var rec statusRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return claims.StatusSnapshot{}, fmt.Errorf("decode status: %w", err)
	}
	return claims.StatusSnapshot{State: claims.JobState(rec.State), CurrentStage: rec.CurrentStage}, nil
}

// EncodeEvent serializes an event for the append-only log.
func EncodeEvent(evt progress.Event) ([]byte, error) {
	rec := eventRecord{
		JobID:   evt.JobID,
		TS:      evt.TS.UTC().Format(time.RFC3339Nano),
		Source:  evt.Source,
		Type:    string(evt.Type),
		Message: evt.Message,
		Meta:    evt.Meta,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode event: %w", err)
	}
	return b, nil
}

// DecodeEvent deserializes a stored log entry.
func DecodeEvent(data []byte) (progress.Event, error) {
	var rec eventRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return progress.Event{}, fmt.Errorf("decode event: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, rec.TS)
	if err != nil {
		return progress.Event{}, fmt.Errorf("decode event timestamp: %w", err)
	}
	return progress.Event{
		JobID:   rec.JobID,
		TS:      ts,
		Source:  rec.Source,
		Type:    progress.Type(rec.Type),
		Message: rec.Message,
		Meta:    rec.Meta,
	}, nil
}
