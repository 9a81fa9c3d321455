package outbox

import (
	"context"
	"time"
)

// Queue hands settlement side-effect jobs to the dispatcher. Pop returns
// (nil, nil) when no job arrived within the timeout.
type Queue interface {
	Push(ctx context.Context, job *Job) error
	Pop(ctx context.Context, timeout time.Duration) (*Job, error)
	Close() error
}
