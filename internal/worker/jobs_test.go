package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"skystream/internal/models"
	"skystream/internal/repository"
	"skystream/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMars отдаёт фиксированные манифесты и запоминает вызовы Ingest.
type stubMars struct {
	mu       sync.Mutex
	latest   map[string]int
	ingested []string
	fail     error
}

func (s *stubMars) Ingest(_ context.Context, rover string, sol int) (service.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingested = append(s.ingested, rover)
	if s.fail != nil {
		return service.Summary{}, s.fail
	}
	return service.Summary{Job: "mars", Target: rover, Outcome: service.OutcomeStored}, nil
}

func (s *stubMars) DispatchAll(ctx context.Context, enqueue service.EnqueueFunc) (int, error) {
	dispatched := 0
	for _, rover := range []string{"curiosity", "perseverance"} {
		if err := enqueue(ctx, rover, s.latest[rover]); err != nil {
			return dispatched, err
		}
		dispatched++
	}
	return dispatched, nil
}

func (s *stubMars) ListPhotos(context.Context, repository.MarsImageFilter, repository.PageRequest) ([]models.MarsImage, int64, error) {
	return nil, 0, nil
}

func (s *stubMars) rovers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ingested...)
}

func TestMarsJob_Name(t *testing.T) {
	job := MarsJob(&stubMars{}, "curiosity", 4100)

	assert.Equal(t, "mars:curiosity:4100", job.Name)
	assert.Equal(t, map[string]any{"rover": "curiosity", "sol": 4100}, job.Payload)
}

func TestMarsDispatch_EnqueuesJobPerRover(t *testing.T) {
	svc := &stubMars{latest: map[string]int{"curiosity": 4100, "perseverance": 1200}}
	q := startQueue(t, &memoryFailedJobs{})

	require.NoError(t, MarsDispatch(q, svc)(context.Background()))

	assert.Eventually(t, func() bool { return len(svc.rovers()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.ElementsMatch(t, []string{"curiosity", "perseverance"}, svc.rovers())
}

func TestMarsJob_FailureEndsInDeadLetter(t *testing.T) {
	failed := &memoryFailedJobs{}
	q := startQueue(t, failed)
	svc := &stubMars{fail: errors.New("connection refused")}

	require.NoError(t, EnqueueMars(q, svc)(context.Background(), "spirit", 2208))

	assert.Eventually(t, func() bool {
		count, _ := failed.Count(context.Background())
		return count == 1
	}, 2*time.Second, 5*time.Millisecond)

	jobs, err := failed.Latest(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "mars:spirit:2208", jobs[0].Job)
	assert.Equal(t, 3, jobs[0].Attempts)
	assert.Len(t, svc.rovers(), 3)
}
