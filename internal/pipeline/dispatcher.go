package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/veritaslabs/veritas/internal/claims"
	"github.com/veritaslabs/veritas/internal/metrics"
)

// DepthReporter is implemented by queues that can report their backlog.
type DepthReporter interface {
	Depth() int
}

// Dispatcher fans jobs from the queue out to a fixed pool of workers. A
// dequeued job belongs to exactly one worker until it reaches a terminal
// state.
type Dispatcher struct {
	queue   claims.Queue
	worker  *Worker
	workers int
	log     *zap.Logger

	wg sync.WaitGroup
}

// NewDispatcher builds a Dispatcher with the given pool size.
func NewDispatcher(queue claims.Queue, worker *Worker, workers int, log *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		queue:   queue,
		worker:  worker,
		workers: workers,
		log:     log,
	}
}

// Start launches the worker pool. It returns immediately; workers exit when
// ctx is canceled or the queue closes.
func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.loop(ctx, id)
		}(i)
	}
}

// Wait blocks until every worker has exited.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) loop(ctx context.Context, id int) {
	log := d.log.With(zap.Int("worker", id))
	log.Info("worker started")
	defer log.Info("worker stopped")

	for {
		item, err := d.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("dequeue failed", zap.Error(err))
			return
		}
		d.reportDepth()

		metrics.IncActiveWorkers()
		d.worker.Run(ctx, item)
		metrics.DecActiveWorkers()
	}
}

func (d *Dispatcher) reportDepth() {
	if r, ok := d.queue.(DepthReporter); ok {
		metrics.SetQueueDepth(r.Depth())
	}
}
