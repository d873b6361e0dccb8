package service

import (
	"context"
	"fmt"
	"time"

	"skystream/internal/cache"
	"skystream/internal/logging"
)

// Outcome - итог одного запуска задачи загрузки.
type Outcome string

const (
	// OutcomeStored - данные получены и записаны (в том числе ноль новых строк).
	OutcomeStored Outcome = "stored"
	// OutcomeNotReady - ответ пришёл, но без нужных полей или с неподдерживаемым содержимым.
	OutcomeNotReady Outcome = "not_ready"
	// OutcomeSkipped - API недоступен или задача уже выполняется, запуск пропущен.
	OutcomeSkipped Outcome = "skipped"
)

const dateLayout = "2006-01-02"

type Summary struct {
	Job      string  `json:"job"`
	Target   string  `json:"target"`
	Outcome  Outcome `json:"outcome"`
	Inserted int     `json:"inserted"`
	Updated  int     `json:"updated"`
	Ignored  int     `json:"ignored"`
	Reason   string  `json:"reason,omitempty"`
}

func (s Summary) skip(reason string) Summary {
	s.Outcome = OutcomeSkipped
	s.Reason = reason
	return s
}

func (s Summary) notReady(reason string) Summary {
	s.Outcome = OutcomeNotReady
	s.Reason = reason
	return s
}

// withLock выполняет run под арендой name. Если аренда занята, run не вызывается.
func withLock(ctx context.Context, locker cache.Locker, name string, ttl time.Duration, summary Summary, run func() (Summary, error)) (Summary, error) {
	release, ok, err := locker.Acquire(ctx, name, ttl)
	if err != nil {
		return summary, fmt.Errorf("job %s: %w", summary.Job, err)
	}
	if !ok {
		logging.Info().Str("job", summary.Job).Str("target", summary.Target).Msg("Job already running, skipping")
		return summary.skip("already running"), nil
	}
	defer func() {
		// контекст задачи может быть уже отменён, а ключ надо снять
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			logging.Warn().Err(err).Str("lock", name).Msg("Failed to release job lock")
		}
	}()

	return run()
}

func todayUTC(now func() time.Time) string {
	return now().UTC().Format(dateLayout)
}
