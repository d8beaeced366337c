package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/veritaslabs/veritas/internal/store"
)

// streamEvents serves GET /v1/claims/{job_id}/stream as Server-Sent Events.
//
// The stream is a non-blocking poll loop over the job's event log with a
// monotonic cursor: every appended event is emitted exactly once, in order.
// Heartbeats keep intermediaries from tearing down idle connections, and are
// sent even before the job materializes in the store; an unknown job id is
// never an error here. The stream ends with a "done" event once a terminal
// pipeline marker is observed.
func (s *Server) streamEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	jobID := chi.URLParam(r, "job_id")

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	if maxLifetime := s.cfg.Stream.MaxLifetime(); maxLifetime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, maxLifetime)
		defer cancel()
	}

	poll := time.NewTicker(s.cfg.Stream.PollInterval())
	defer poll.Stop()
	heartbeat := time.NewTicker(s.cfg.Stream.HeartbeatInterval())
	defer heartbeat.Stop()

	var cursor store.Cursor
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if err := writeSSE(w, "heartbeat", map[string]string{"ts": s.clock.Now().UTC().Format(time.RFC3339)}); err != nil {
				return
			}
			flusher.Flush()
		case <-poll.C:
			events, next, err := s.store.Events(ctx, jobID, cursor)
			if err != nil {
				// a not-yet-created job is indistinguishable from a slow one
				if errors.Is(err, store.ErrNotFound) {
					continue
				}
				s.logger.Warn("stream poll failed", zap.String("job_id", jobID), zap.Error(err))
				continue
			}
			cursor = next

			terminal := false
			for _, evt := range events {
				if err := writeSSE(w, "log", evt); err != nil {
					return
				}
				if evt.Terminal() {
					terminal = true
				}
			}
			if len(events) > 0 {
				flusher.Flush()
			}
			if terminal {
				_ = writeSSE(w, "done", map[string]string{"job_id": jobID})
				flusher.Flush()
				return
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode sse payload: %w", err)
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return fmt.Errorf("write sse frame: %w", err)
	}
	return nil
}
