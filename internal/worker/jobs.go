package worker

import (
	"context"
	"fmt"
	"time"

	"skystream/internal/logging"
	"skystream/internal/repository"
	"skystream/internal/service"

	"gorm.io/gorm"
)

func logSummary(summary service.Summary) {
	logging.Info().
		Str("job", summary.Job).
		Str("target", summary.Target).
		Str("outcome", string(summary.Outcome)).
		Int("inserted", summary.Inserted).
		Int("updated", summary.Updated).
		Int("ignored", summary.Ignored).
		Str("reason", summary.Reason).
		Msg("Job finished")
}

// APODJob - загрузка картинки дня, пустая date означает "сегодня на момент запуска".
func APODJob(svc service.APODService, date string) Job {
	return Job{
		Name:    "apod",
		Payload: map[string]any{"date": date},
		Run: func(ctx context.Context) error {
			summary, err := svc.Ingest(ctx, date)
			if err != nil {
				return err
			}
			logSummary(summary)
			return nil
		},
	}
}

func NEOJob(svc service.NEOService, startDate, endDate string) Job {
	return Job{
		Name:    "neo",
		Payload: map[string]any{"start_date": startDate, "end_date": endDate},
		Run: func(ctx context.Context) error {
			summary, err := svc.Ingest(ctx, startDate, endDate)
			if err != nil {
				return err
			}
			logSummary(summary)
			return nil
		},
	}
}

func MarsJob(svc service.MarsService, rover string, sol int) Job {
	return Job{
		Name:    fmt.Sprintf("mars:%s:%d", rover, sol),
		Payload: map[string]any{"rover": rover, "sol": sol},
		Run: func(ctx context.Context) error {
			summary, err := svc.Ingest(ctx, rover, sol)
			if err != nil {
				return err
			}
			logSummary(summary)
			return nil
		},
	}
}

// EnqueueMars - EnqueueFunc для диспетчера марсоходов.
func EnqueueMars(q *Queue, svc service.MarsService) service.EnqueueFunc {
	return func(ctx context.Context, rover string, sol int) error {
		return q.Enqueue(ctx, MarsJob(svc, rover, sol))
	}
}

// MarsDispatch - итерация воркера: по одной задаче на марсоход.
func MarsDispatch(q *Queue, svc service.MarsService) RunFunc {
	return func(ctx context.Context) error {
		dispatched, err := svc.DispatchAll(ctx, EnqueueMars(q, svc))
		if err != nil {
			return err
		}
		logging.Info().Int("dispatched", dispatched).Msg("Mars photo jobs dispatched")
		return nil
	}
}

// EnqueueEach - итерация воркера, которая только ставит задачу в очередь.
func EnqueueEach(q *Queue, job func() Job) RunFunc {
	return func(ctx context.Context) error {
		return q.Enqueue(ctx, job())
	}
}

// CacheCleanup чистит протухшие записи таблицы nasa_cache.
func CacheCleanup(db *gorm.DB) RunFunc {
	return func(ctx context.Context) error {
		deleted, err := repository.DeleteExpired(ctx, db, time.Now().UTC())
		if err != nil {
			return err
		}
		if deleted > 0 {
			logging.Info().Int64("deleted", deleted).Msg("Expired cache entries removed")
		}
		return nil
	}
}
