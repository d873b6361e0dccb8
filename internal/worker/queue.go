package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"skystream/internal/logging"
	"skystream/internal/models"
	"skystream/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var ErrQueueClosed = errors.New("queue is closed")

// Job - единица работы очереди. Payload сохраняется в failed_jobs,
// если все попытки исчерпаны.
type Job struct {
	Name    string
	Payload map[string]any
	Run     func(ctx context.Context) error
}

type QueueConfig struct {
	Workers     int
	Size        int
	MaxAttempts int
	RetryDelay  time.Duration
	JobTimeout  time.Duration
}

// Queue - очередь задач в памяти процесса с пулом исполнителей.
// Упавшая задача повторяется до MaxAttempts раз с паузой RetryDelay.
type Queue struct {
	config QueueConfig
	jobs   chan Job
	failed repository.FailedJobRepository

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

func NewQueue(config QueueConfig, failed repository.FailedJobRepository) *Queue {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.Size < 1 {
		config.Size = 64
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		config: config,
		jobs:   make(chan Job, config.Size),
		failed: failed,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start запускает исполнителей и блокирует до Stop.
func (q *Queue) Start() {
	logging.Info().Int("workers", q.config.Workers).Int("size", q.config.Size).Msg("Job queue started")

	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for job := range q.jobs {
				if q.ctx.Err() != nil {
					logging.Warn().Str("job", job.Name).Msg("Queue stopping, job dropped")
					continue
				}
				q.process(job)
			}
		}()
	}

	q.wg.Wait()
}

// Enqueue ставит задачу в очередь. Блокирует, пока в буфере нет места.
func (q *Queue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		logging.Debug().Str("job", job.Name).Msg("Job enqueued")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue %s: %w", job.Name, ctx.Err())
	}
}

func (q *Queue) Stop() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	// текущие задачи получают отмену контекста
	q.cancel()
	logging.Info().Msg("Job queue stopped")
}

func (q *Queue) process(job Job) {
	var err error
	for attempt := 1; attempt <= q.config.MaxAttempts; attempt++ {
		err = q.runOnce(job)
		if err == nil {
			return
		}

		logging.Warn().Err(err).Str("job", job.Name).Int("attempt", attempt).Int("max_attempts", q.config.MaxAttempts).Msg("Job attempt failed")

		if attempt == q.config.MaxAttempts {
			break
		}
		select {
		case <-time.After(q.config.RetryDelay):
		case <-q.ctx.Done():
			logging.Warn().Str("job", job.Name).Msg("Queue stopping, retries abandoned")
			return
		}
	}

	q.deadLetter(job, err)
}

func (q *Queue) runOnce(job Job) (err error) {
	ctx := q.ctx
	if q.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(q.ctx, q.config.JobTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()

	return job.Run(ctx)
}

func (q *Queue) deadLetter(job Job, jobErr error) {
	logging.Error().Err(jobErr).Str("job", job.Name).Int("attempts", q.config.MaxAttempts).Msg("Job failed permanently")

	if q.failed == nil {
		return
	}

	var payload datatypes.JSON
	if len(job.Payload) > 0 {
		if raw, err := json.Marshal(job.Payload); err == nil {
			payload = raw
		}
	}

	record := &models.FailedJob{
		UUID:     uuid.New(),
		Job:      job.Name,
		Payload:  payload,
		Error:    jobErr.Error(),
		Attempts: q.config.MaxAttempts,
		FailedAt: time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := q.failed.Create(ctx, record); err != nil {
		logging.Error().Err(err).Str("job", job.Name).Msg("Failed to record failed job")
	}
}
