package outbox

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrQueueClosed = errors.New("outbox queue is closed")

// MemoryQueue is the in-process fallback used when redis is not
// configured, and in tests.
type MemoryQueue struct {
	jobs     chan *Job
	closed   chan struct{}
	closeOne sync.Once
}

func NewMemoryQueue(size int) *MemoryQueue {
	return &MemoryQueue{
		jobs:   make(chan *Job, size),
		closed: make(chan struct{}),
	}
}

func (q *MemoryQueue) Push(ctx context.Context, job *Job) error {
	select {
	case <-q.closed:
		return ErrQueueClosed
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Pop(ctx context.Context, timeout time.Duration) (*Job, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case job := <-q.jobs:
		return job, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryQueue) Close() error {
	q.closeOne.Do(func() { close(q.closed) })
	return nil
}
