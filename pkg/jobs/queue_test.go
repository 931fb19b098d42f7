package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	q := NewQueue("mail", func(_ context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, job.Payload.(string))
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{Type: "mail", Payload: "a"}))
	require.NoError(t, q.Enqueue(Job{Type: "mail", Payload: "b"}))
	q.Stop()

	assert.ElementsMatch(t, []string{"a", "b"}, seen)
	assert.Equal(t, int64(2), q.Stats().Processed)
}

func TestQueueRejectsWhenStopped(t *testing.T) {
	q := NewQueue("mail", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.ErrorIs(t, q.Enqueue(Job{}), ErrQueueStopped)

	q.Start(context.Background())
	q.Stop()
	assert.ErrorIs(t, q.Enqueue(Job{}), ErrQueueStopped)
}

func TestQueueFull(t *testing.T) {
	release := make(chan struct{})
	q := NewQueue("mail", func(context.Context, Job) error {
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{}))
	require.Eventually(t, func() bool { return len(q.jobs) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(Job{}))
	assert.ErrorIs(t, q.Enqueue(Job{}), ErrQueueFull)

	close(release)
	q.Stop()
}

func TestQueueRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})
	q := NewQueue("mail", func(context.Context, Job) error {
		if calls.Add(1) < 2 {
			return errors.New("smtp busy")
		}
		close(done)
		return nil
	}, QueueConfig{MaxRetries: 2, RetryDelay: time.Millisecond})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{Type: "mail"}))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}
	q.Stop()

	stats := q.Stats()
	assert.Equal(t, int64(1), stats.Retried)
	assert.Equal(t, int64(1), stats.Processed)
}

func TestQueueDropsAfterMaxRetries(t *testing.T) {
	q := NewQueue("mail", func(context.Context, Job) error { return errors.New("boom") }, QueueConfig{MaxRetries: 0})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job{}))
	require.Eventually(t, func() bool { return q.Stats().Dropped == 1 }, time.Second, time.Millisecond)
	q.Stop()
}
