package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"skystream/internal/cache"
	"skystream/internal/clients"
	"skystream/internal/logging"
	"skystream/internal/models"
	"skystream/internal/repository"

	"gorm.io/datatypes"
)

const apodLock = "ingest:apod"

type APODService interface {
	// Ingest загружает картинку дня за date (пусто - сегодня по UTC).
	Ingest(ctx context.Context, date string) (Summary, error)
	GetByDate(ctx context.Context, date string) (*models.APODMood, error)
}

type apodService struct {
	client  clients.NASAClient
	repo    repository.APODRepository
	locker  cache.Locker
	lockTTL time.Duration
	now     func() time.Time
}

func NewAPODService(client clients.NASAClient, repo repository.APODRepository, locker cache.Locker, lockTTL time.Duration) APODService {
	return &apodService{
		client:  client,
		repo:    repo,
		locker:  locker,
		lockTTL: lockTTL,
		now:     time.Now,
	}
}

func (s *apodService) Ingest(ctx context.Context, date string) (Summary, error) {
	if date == "" {
		date = todayUTC(s.now)
	}
	summary := Summary{Job: "apod", Target: date}

	return withLock(ctx, s.locker, apodLock, s.lockTTL, summary, func() (Summary, error) {
		return s.ingest(ctx, date, summary)
	})
}

func (s *apodService) ingest(ctx context.Context, date string, summary Summary) (Summary, error) {
	log := logging.Logger().With().Str("job", summary.Job).Str("date", date).Logger()
	log.Info().Msg("APOD ingestion started")

	apod, err := s.client.FetchAPOD(ctx, date)
	if err != nil {
		if clients.IsAPIError(err) {
			log.Warn().Err(err).Msg("APOD fetch failed, skipping this cycle")
			return summary.skip(err.Error()), nil
		}
		return summary, fmt.Errorf("fetch APOD %s: %w", date, err)
	}

	switch {
	case apod.MediaType == "":
		log.Warn().Msg("APOD response has no media_type")
		return summary.notReady("media_type missing"), nil
	case apod.MediaType != "image":
		log.Info().Str("media_type", apod.MediaType).Msg("APOD is not an image, nothing to store")
		return summary.notReady("unsupported media type: " + apod.MediaType), nil
	}

	record, err := s.mapAPOD(apod, date)
	if err != nil {
		log.Warn().Err(err).Msg("APOD response is incomplete")
		return summary.notReady(err.Error()), nil
	}

	created, err := s.repo.Upsert(ctx, record)
	if err != nil {
		log.Error().Err(err).Msg("Failed to store APOD")
		return summary, fmt.Errorf("store APOD %s: %w", date, err)
	}

	if created {
		summary.Inserted = 1
	} else {
		summary.Updated = 1
	}
	summary.Outcome = OutcomeStored

	log.Info().Str("mood", record.Mood).Bool("created", created).Msg("APOD stored")
	return summary, nil
}

func (s *apodService) mapAPOD(apod *clients.APODResponse, requested string) (*models.APODMood, error) {
	// строка хранится под запрошенной датой, дата из ответа идёт в nasa_id
	nasaID := apod.Date
	if nasaID == "" {
		nasaID = requested
	}

	url := apod.HDURL
	if url == "" {
		url = apod.URL
	}
	if strings.TrimSpace(apod.Title) == "" || url == "" {
		return nil, fmt.Errorf("title or url missing")
	}

	palette, err := json.Marshal(Palette)
	if err != nil {
		return nil, err
	}

	mood, score := ClassifyMood(apod.Title, apod.Explanation)

	record := &models.APODMood{
		APODDate:     requested,
		NASAID:       nasaID,
		Title:        apod.Title,
		URL:          url,
		Mood:         mood,
		MoodScore:    score,
		ColorPalette: datatypes.JSON(palette),
	}
	if apod.Explanation != "" {
		explanation := apod.Explanation
		record.AISummary = &explanation
	}
	return record, nil
}

func (s *apodService) GetByDate(ctx context.Context, date string) (*models.APODMood, error) {
	return s.repo.GetByDate(ctx, date)
}
