package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"skystream/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryFailedJobs struct {
	mu   sync.Mutex
	jobs []models.FailedJob
}

func (m *memoryFailedJobs) Create(_ context.Context, job *models.FailedJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, *job)
	return nil
}

func (m *memoryFailedJobs) Latest(context.Context, int) ([]models.FailedJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.FailedJob(nil), m.jobs...), nil
}

func (m *memoryFailedJobs) Count(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.jobs)), nil
}

func startQueue(t *testing.T, failed *memoryFailedJobs) *Queue {
	t.Helper()
	q := NewQueue(QueueConfig{Workers: 2, Size: 8, MaxAttempts: 3, RetryDelay: time.Millisecond}, failed)

	done := make(chan struct{})
	go func() {
		q.Start()
		close(done)
	}()
	t.Cleanup(func() {
		q.Stop()
		<-done
	})
	return q
}

func TestQueue_RetriesUntilSuccess(t *testing.T) {
	failed := &memoryFailedJobs{}
	q := startQueue(t, failed)

	var attempts int32
	finished := make(chan struct{})
	err := q.Enqueue(context.Background(), Job{
		Name: "flaky",
		Run: func(context.Context) error {
			if atomic.AddInt32(&attempts, 1) < 2 {
				return errors.New("database is locked")
			}
			close(finished)
			return nil
		},
	})
	require.NoError(t, err)

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not finish")
	}
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))

	count, _ := failed.Count(context.Background())
	assert.Zero(t, count)
}

func TestQueue_DeadLettersAfterMaxAttempts(t *testing.T) {
	failed := &memoryFailedJobs{}
	q := startQueue(t, failed)

	var attempts int32
	err := q.Enqueue(context.Background(), Job{
		Name:    "mars:curiosity:4100",
		Payload: map[string]any{"rover": "curiosity", "sol": 4100},
		Run: func(context.Context) error {
			atomic.AddInt32(&attempts, 1)
			panic("unexpected shape")
		},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		count, _ := failed.Count(context.Background())
		return count == 1
	}, 2*time.Second, 5*time.Millisecond)

	jobs, _ := failed.Latest(context.Background(), 1)
	assert.Equal(t, "mars:curiosity:4100", jobs[0].Job)
	assert.Equal(t, 3, jobs[0].Attempts)
	assert.Contains(t, jobs[0].Error, "unexpected shape")
	assert.JSONEq(t, `{"rover":"curiosity","sol":4100}`, string(jobs[0].Payload))
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueue_EnqueueAfterStop(t *testing.T) {
	q := NewQueue(QueueConfig{}, nil)
	q.Stop()

	err := q.Enqueue(context.Background(), Job{Name: "late", Run: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrQueueClosed)

	// повторный Stop не паникует
	q.Stop()
}

func TestQueue_EnqueueRespectsContextWhenFull(t *testing.T) {
	q := NewQueue(QueueConfig{Size: 1}, nil)
	noop := Job{Name: "noop", Run: func(context.Context) error { return nil }}

	require.NoError(t, q.Enqueue(context.Background(), noop))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, noop)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
