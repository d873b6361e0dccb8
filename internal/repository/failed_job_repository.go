package repository

import (
	"context"

	"skystream/internal/models"

	"gorm.io/gorm"
)

type FailedJobRepository interface {
	Create(ctx context.Context, job *models.FailedJob) error
	Latest(ctx context.Context, limit int) ([]models.FailedJob, error)
	Count(ctx context.Context) (int64, error)
}

type failedJobRepository struct {
	db *gorm.DB
}

func NewFailedJobRepository(db *gorm.DB) FailedJobRepository {
	return &failedJobRepository{db: db}
}

func (r *failedJobRepository) Create(ctx context.Context, job *models.FailedJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *failedJobRepository) Latest(ctx context.Context, limit int) ([]models.FailedJob, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	var jobs []models.FailedJob
	err := r.db.WithContext(ctx).
		Order("failed_at DESC").
		Limit(limit).
		Find(&jobs).
		Error
	return jobs, err
}

func (r *failedJobRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FailedJob{}).
		Count(&count).
		Error
	return count, err
}
