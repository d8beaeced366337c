// Package memory provides the bounded in-memory job queue used by the
// dispatcher. Replacing per-job process spawn with a bounded queue keeps
// concurrency observable and capped.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/veritaslabs/veritas/internal/claims"
)

// Queue is a bounded in-memory queue with context-aware operations.
type Queue struct {
	ch      chan claims.QueueItem
	closeMu sync.Mutex
	closed  bool
}

// NewQueue constructs a new queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{
		ch: make(chan claims.QueueItem, capacity),
	}
}

// Enqueue pushes a job into the queue or returns if the context ends.
func (q *Queue) Enqueue(ctx context.Context, item claims.QueueItem) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case q.ch <- item:
		return nil
	}
}

// Dequeue pops the next job, respecting context cancellation.
func (q *Queue) Dequeue(ctx context.Context) (claims.QueueItem, error) {
	select {
	case <-ctx.Done():
		return claims.QueueItem{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case item, ok := <-q.ch:
		if !ok {
			return claims.QueueItem{}, errors.New("queue closed")
		}
		return item, nil
	}
}

// Depth reports how many jobs are waiting.
func (q *Queue) Depth() int {
	return len(q.ch)
}

// Close closes the underlying channel for shutdown.
func (q *Queue) Close() {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		return
	}
	close(q.ch)
	q.closed = true
}
