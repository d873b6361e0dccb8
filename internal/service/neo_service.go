package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"skystream/internal/cache"
	"skystream/internal/clients"
	"skystream/internal/logging"
	"skystream/internal/models"
	"skystream/internal/repository"

	"gorm.io/datatypes"
)

const (
	neoLock = "ingest:neo"

	// NeoWs отдаёт не больше 7 дней за запрос
	MaxNEOWindowDays = 7
)

var ErrInvalidWindow = errors.New("invalid date window")

type NEOService interface {
	// Ingest загружает объекты за окно [startDate, endDate]. Пустой startDate -
	// сегодня, пустой endDate - startDate + 7 дней.
	Ingest(ctx context.Context, startDate, endDate string) (Summary, error)
	ListNearby(ctx context.Context, from, to string, page repository.PageRequest) ([]models.NeowsObject, int64, error)
	ExportNearby(ctx context.Context, from, to string) ([]models.NeowsObject, error)
}

type neoService struct {
	client  clients.NASAClient
	repo    repository.NEORepository
	locker  cache.Locker
	lockTTL time.Duration
	now     func() time.Time
}

func NewNEOService(client clients.NASAClient, repo repository.NEORepository, locker cache.Locker, lockTTL time.Duration) NEOService {
	return &neoService{
		client:  client,
		repo:    repo,
		locker:  locker,
		lockTTL: lockTTL,
		now:     time.Now,
	}
}

func (s *neoService) Ingest(ctx context.Context, startDate, endDate string) (Summary, error) {
	start, end, err := s.window(startDate, endDate)
	if err != nil {
		return Summary{Job: "neo"}, err
	}
	summary := Summary{Job: "neo", Target: start + ".." + end}

	return withLock(ctx, s.locker, neoLock, s.lockTTL, summary, func() (Summary, error) {
		return s.ingest(ctx, start, end, summary)
	})
}

// window проверяет и дополняет окно загрузки. Окно длиннее 7 дней обрезается.
func (s *neoService) window(startDate, endDate string) (string, string, error) {
	if startDate == "" {
		startDate = todayUTC(s.now)
	}
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return "", "", fmt.Errorf("%w: start date %q", ErrInvalidWindow, startDate)
	}

	maxEnd := start.AddDate(0, 0, MaxNEOWindowDays)
	end := maxEnd
	if endDate != "" {
		if end, err = time.Parse(dateLayout, endDate); err != nil {
			return "", "", fmt.Errorf("%w: end date %q", ErrInvalidWindow, endDate)
		}
	}
	if end.Before(start) {
		return "", "", fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidWindow, endDate, startDate)
	}
	if end.After(maxEnd) {
		logging.Warn().Str("start_date", startDate).Str("end_date", endDate).Msg("NEO window longer than 7 days, truncating")
		end = maxEnd
	}

	return start.Format(dateLayout), end.Format(dateLayout), nil
}

func (s *neoService) ingest(ctx context.Context, start, end string, summary Summary) (Summary, error) {
	log := logging.Logger().With().Str("job", summary.Job).Str("start_date", start).Str("end_date", end).Logger()
	log.Info().Msg("NEO ingestion started")

	feed, err := s.client.FetchNEOFeed(ctx, start, end)
	if err != nil {
		if clients.IsAPIError(err) {
			log.Warn().Err(err).Msg("NEO feed fetch failed, skipping this cycle")
			return summary.skip(err.Error()), nil
		}
		return summary, fmt.Errorf("fetch NEO feed: %w", err)
	}
	if feed.NearEarthObjects == nil {
		log.Warn().Msg("NEO feed has no near_earth_objects")
		return summary.notReady("near_earth_objects missing"), nil
	}

	// даты в map идут в случайном порядке
	dates := make([]string, 0, len(feed.NearEarthObjects))
	for date := range feed.NearEarthObjects {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		for _, obj := range feed.NearEarthObjects[date] {
			record, ok := mapNEO(obj)
			if !ok {
				log.Warn().Str("name", obj.Name).Msg("NEO object without id, ignoring")
				summary.Ignored++
				continue
			}

			created, err := s.repo.Upsert(ctx, record)
			if err != nil {
				log.Error().Err(err).Str("neo_id", record.NeoID).Msg("Failed to store NEO")
				return summary, fmt.Errorf("store NEO %s: %w", record.NeoID, err)
			}
			if created {
				summary.Inserted++
			} else {
				summary.Updated++
			}
		}
	}

	summary.Outcome = OutcomeStored
	log.Info().Int("inserted", summary.Inserted).Int("updated", summary.Updated).Msg("NEO ingestion finished")
	return summary, nil
}

// mapNEO берёт только первое сближение из close_approach_data.
func mapNEO(obj clients.NearEarthObject) (*models.NeowsObject, bool) {
	id := obj.ReferenceID()
	if id == "" {
		return nil, false
	}

	record := &models.NeowsObject{
		NeoID:                  id,
		Name:                   obj.Name,
		EstimatedDiameter:      rawJSON(obj.EstimatedDiameter),
		IsPotentiallyHazardous: obj.IsPotentiallyHazardous,
		OrbitData:              rawJSON(obj.OrbitalData),
	}

	if len(obj.CloseApproachData) > 0 {
		first := obj.CloseApproachData[0]
		record.CloseApproach = rawJSON(first)

		var approach clients.CloseApproach
		if err := json.Unmarshal(first, &approach); err == nil {
			record.CloseApproachDate = approach.CloseApproachDate
			if km, err := strconv.ParseFloat(approach.MissDistance.Kilometers, 64); err == nil {
				record.MissDistanceKm = km
			}
		}
	}

	return record, true
}

func rawJSON(raw json.RawMessage) datatypes.JSON {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return datatypes.JSON(raw)
}

func (s *neoService) ListNearby(ctx context.Context, from, to string, page repository.PageRequest) ([]models.NeowsObject, int64, error) {
	return s.repo.ListByApproachWindow(ctx, from, to, page)
}

func (s *neoService) ExportNearby(ctx context.Context, from, to string) ([]models.NeowsObject, error) {
	return s.repo.AllByApproachWindow(ctx, from, to)
}
