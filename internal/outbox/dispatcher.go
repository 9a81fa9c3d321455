package outbox

import (
	"context"
	"sync"
	"time"

	"taskmarket.app/taskmarket/internal/logging"
)

type Handler func(ctx context.Context, job *Job) error

// Dispatcher drains the outbox with a pool of workers and routes each job
// to the handler registered for its type. Failed jobs are re-queued until
// their retry budget runs out.
type Dispatcher struct {
	queue    Queue
	handlers map[string]Handler
	count    int
	wg       sync.WaitGroup
	mu       sync.RWMutex
}

func NewDispatcher(queue Queue, workers int) *Dispatcher {
	return &Dispatcher{
		queue:    queue,
		handlers: make(map[string]Handler),
		count:    workers,
	}
}

func (d *Dispatcher) Register(jobType string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[jobType] = handler
}

func (d *Dispatcher) Start(ctx context.Context) {
	for i := 1; i <= d.count; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
	logging.Logger.Infof("outbox dispatcher started with %d workers", d.count)
}

func (d *Dispatcher) Stop() {
	d.wg.Wait()
	logging.Logger.Info("outbox dispatcher stopped")
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			job, err := d.queue.Pop(ctx, 2*time.Second)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logging.Logger.Warnf("outbox worker %d: pop error: %v", id, err)
				continue
			}
			if job == nil {
				continue
			}

			d.process(ctx, id, job)
		}
	}
}

func (d *Dispatcher) process(ctx context.Context, workerID int, job *Job) {
	d.mu.RLock()
	handler, ok := d.handlers[job.Type]
	d.mu.RUnlock()

	if !ok {
		logging.Logger.Errorf("outbox worker %d: no handler for job type %q, dropping %s", workerID, job.Type, job.ID)
		return
	}

	if err := handler(ctx, job); err != nil {
		d.retry(ctx, workerID, job, err)
		return
	}

	logging.Logger.Debugf("outbox worker %d: job %s (%s) done", workerID, job.ID, job.Type)
}

func (d *Dispatcher) retry(ctx context.Context, workerID int, job *Job, cause error) {
	if job.Retries >= job.MaxRetry {
		logging.Logger.Errorf(
			"outbox worker %d: job %s (%s) failed after %d attempts: %v",
			workerID, job.ID, job.Type, job.Retries+1, cause,
		)
		return
	}

	job.Retries++
	if err := d.queue.Push(ctx, job); err != nil {
		logging.Logger.Errorf("outbox worker %d: requeue of job %s failed: %v", workerID, job.ID, err)
		return
	}
	logging.Logger.Warnf(
		"outbox worker %d: job %s (%s) failed, retry %d/%d scheduled: %v",
		workerID, job.ID, job.Type, job.Retries, job.MaxRetry, cause,
	)
}

// Enqueue pushes a job, logging instead of failing the caller: the outbox
// is a best-effort handoff from the settlement path.
func (d *Dispatcher) Enqueue(ctx context.Context, job *Job) {
	if err := d.queue.Push(ctx, job); err != nil {
		logging.Logger.Errorf("outbox enqueue of %s job failed: %v", job.Type, err)
	}
}
