package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"skystream/internal/cache"
	"skystream/internal/clients"
	"skystream/internal/logging"
	"skystream/internal/models"
	"skystream/internal/repository"
)

// DefaultMaxRoverPages ограничивает постраничный обход на случай, если API
// никогда не вернёт пустую страницу.
const DefaultMaxRoverPages = 50

// EnqueueFunc ставит задачу загрузки снимков (rover, sol) в очередь.
type EnqueueFunc func(ctx context.Context, rover string, sol int) error

type MarsService interface {
	Ingest(ctx context.Context, rover string, sol int) (Summary, error)
	// DispatchAll ставит по одной задаче на каждый отслеживаемый марсоход
	// для его последнего sol и возвращает количество поставленных задач.
	DispatchAll(ctx context.Context, enqueue EnqueueFunc) (int, error)
	ListPhotos(ctx context.Context, filter repository.MarsImageFilter, page repository.PageRequest) ([]models.MarsImage, int64, error)
}

type MarsConfig struct {
	Rovers   []string
	MaxPages int
	LockTTL  time.Duration
}

type marsService struct {
	client clients.NASAClient
	repo   repository.MarsImageRepository
	locker cache.Locker
	config MarsConfig
}

func NewMarsService(client clients.NASAClient, repo repository.MarsImageRepository, locker cache.Locker, config MarsConfig) MarsService {
	if config.MaxPages < 1 {
		config.MaxPages = DefaultMaxRoverPages
	}
	if len(config.Rovers) == 0 {
		config.Rovers = []string{"curiosity", "perseverance"}
	}
	return &marsService{
		client: client,
		repo:   repo,
		locker: locker,
		config: config,
	}
}

func (s *marsService) Ingest(ctx context.Context, rover string, sol int) (Summary, error) {
	rover = strings.ToLower(strings.TrimSpace(rover))
	summary := Summary{Job: "mars", Target: fmt.Sprintf("%s/%d", rover, sol)}
	if rover == "" || sol < 0 {
		return summary, fmt.Errorf("invalid mars target %q sol %d", rover, sol)
	}

	return withLock(ctx, s.locker, "ingest:mars:"+rover, s.config.LockTTL, summary, func() (Summary, error) {
		return s.ingest(ctx, rover, sol, summary)
	})
}

func (s *marsService) ingest(ctx context.Context, rover string, sol int, summary Summary) (Summary, error) {
	log := logging.Logger().With().Str("job", summary.Job).Str("rover", rover).Int("sol", sol).Logger()
	log.Info().Msg("Mars photos ingestion started")

	summary.Outcome = OutcomeStored

	page := 1
	for ; page <= s.config.MaxPages; page++ {
		resp, err := s.client.FetchRoverPhotos(ctx, rover, sol, page)
		if err != nil {
			if !clients.IsAPIError(err) {
				return summary, fmt.Errorf("fetch %s sol %d page %d: %w", rover, sol, page, err)
			}
			if page == 1 {
				log.Warn().Err(err).Msg("Rover photos fetch failed, skipping this cycle")
				return summary.skip(err.Error()), nil
			}
			// то, что уже записано, остаётся
			log.Warn().Err(err).Int("page", page).Msg("Rover photos fetch failed mid-way, stopping with partial results")
			summary.Reason = fmt.Sprintf("partial: page %d failed", page)
			break
		}

		if len(resp.Photos) == 0 {
			break
		}

		images := make([]models.MarsImage, 0, len(resp.Photos))
		for _, photo := range resp.Photos {
			images = append(images, models.MarsImage{
				NASAID:    photo.ID,
				Rover:     rover,
				Sol:       photo.Sol,
				Camera:    photo.Camera.Name,
				ImgSrc:    photo.ImgSrc,
				EarthDate: photo.EarthDate,
			})
		}

		inserted, err := s.repo.InsertIgnore(ctx, images)
		if err != nil {
			log.Error().Err(err).Int("page", page).Msg("Failed to store rover photos")
			return summary, fmt.Errorf("store %s sol %d page %d: %w", rover, sol, page, err)
		}
		summary.Inserted += int(inserted)
		summary.Ignored += len(images) - int(inserted)
	}

	if page > s.config.MaxPages {
		log.Warn().Int("max_pages", s.config.MaxPages).Msg("Rover photos page limit reached")
		summary.Reason = fmt.Sprintf("page limit %d reached", s.config.MaxPages)
	}

	log.Info().Int("inserted", summary.Inserted).Int("ignored", summary.Ignored).Msg("Mars photos ingestion finished")
	return summary, nil
}

func (s *marsService) DispatchAll(ctx context.Context, enqueue EnqueueFunc) (int, error) {
	dispatched := 0
	for _, rover := range s.config.Rovers {
		if err := ctx.Err(); err != nil {
			return dispatched, err
		}

		manifest, err := s.client.FetchRoverManifest(ctx, rover)
		if err != nil {
			logging.Warn().Err(err).Str("rover", rover).Msg("Could not fetch rover manifest")
			continue
		}
		if manifest.PhotoManifest == nil || manifest.PhotoManifest.MaxSol == nil {
			logging.Warn().Str("rover", rover).Msg("Rover manifest has no max_sol")
			continue
		}

		sol := *manifest.PhotoManifest.MaxSol
		if err := enqueue(ctx, rover, sol); err != nil {
			logging.Error().Err(err).Str("rover", rover).Int("sol", sol).Msg("Failed to enqueue rover photos job")
			continue
		}

		dispatched++
		logging.Info().Str("rover", rover).Int("sol", sol).Msg("Dispatched rover photos job")
	}

	return dispatched, nil
}

func (s *marsService) ListPhotos(ctx context.Context, filter repository.MarsImageFilter, page repository.PageRequest) ([]models.MarsImage, int64, error) {
	return s.repo.List(ctx, filter, page)
}
