package service

import (
	"context"
	"fmt"

	"skystream/internal/models"
	"skystream/internal/repository"
)

type Stats struct {
	APOD       int64              `json:"apod_mood"`
	NEO        int64              `json:"neows_objects"`
	Mars       int64              `json:"mars_images"`
	FailedJobs int64              `json:"failed_jobs"`
	LastFailed []models.FailedJob `json:"last_failed,omitempty"`
}

type StatsService interface {
	Stats(ctx context.Context) (*Stats, error)
}

type statsService struct {
	apodRepo   repository.APODRepository
	neoRepo    repository.NEORepository
	marsRepo   repository.MarsImageRepository
	failedRepo repository.FailedJobRepository
}

func NewStatsService(
	apodRepo repository.APODRepository,
	neoRepo repository.NEORepository,
	marsRepo repository.MarsImageRepository,
	failedRepo repository.FailedJobRepository,
) StatsService {
	return &statsService{
		apodRepo:   apodRepo,
		neoRepo:    neoRepo,
		marsRepo:   marsRepo,
		failedRepo: failedRepo,
	}
}

func (s *statsService) Stats(ctx context.Context) (*Stats, error) {
	var (
		stats Stats
		err   error
	)

	if stats.APOD, err = s.apodRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("count apod: %w", err)
	}
	if stats.NEO, err = s.neoRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("count neo: %w", err)
	}
	if stats.Mars, err = s.marsRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("count mars: %w", err)
	}
	if stats.FailedJobs, err = s.failedRepo.Count(ctx); err != nil {
		return nil, fmt.Errorf("count failed jobs: %w", err)
	}
	if stats.FailedJobs > 0 {
		if stats.LastFailed, err = s.failedRepo.Latest(ctx, 5); err != nil {
			return nil, fmt.Errorf("latest failed jobs: %w", err)
		}
	}

	return &stats, nil
}
