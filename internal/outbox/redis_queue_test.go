package outbox

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisQueue(t *testing.T) *RedisQueue {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return NewRedisQueue(client, "outbox:test")
}

func TestRedisQueue_RoundTrip(t *testing.T) {
	q := newRedisQueue(t)
	ctx := context.Background()

	job := NewJob(JobReconciliation, map[string]string{"task_id": "task-1"})
	job.Retries = 2
	require.NoError(t, q.Push(ctx, job))

	got, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, JobReconciliation, got.Type)
	assert.Equal(t, "task-1", got.Payload["task_id"])
	assert.Equal(t, 2, got.Retries)
	assert.Equal(t, DefaultMaxRetry, got.MaxRetry)
}

func TestRedisQueue_FIFO(t *testing.T) {
	q := newRedisQueue(t)
	ctx := context.Background()

	first := NewJob(JobNotification, map[string]string{"n": "1"})
	second := NewJob(JobNotification, map[string]string{"n": "2"})
	require.NoError(t, q.Push(ctx, first))
	require.NoError(t, q.Push(ctx, second))

	got, err := q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	got, err = q.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestRedisQueue_PopEmpty(t *testing.T) {
	q := newRedisQueue(t)

	job, err := q.Pop(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, job)
}
