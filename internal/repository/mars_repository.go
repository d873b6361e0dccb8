package repository

import (
	"context"

	"skystream/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MarsImageFilter struct {
	Rover  string
	Camera string
	Sol    *int
}

type MarsImageRepository interface {
	InsertIgnore(ctx context.Context, images []models.MarsImage) (int64, error)
	List(ctx context.Context, filter MarsImageFilter, page PageRequest) ([]models.MarsImage, int64, error)
	Count(ctx context.Context) (int64, error)
}

type marsImageRepository struct {
	db *gorm.DB
}

func NewMarsImageRepository(db *gorm.DB) MarsImageRepository {
	return &marsImageRepository{db: db}
}

// InsertIgnore добавляет только новые снимки, дубликаты по nasa_id молча пропускаются.
// Возвращает количество реально вставленных строк.
func (r *marsImageRepository) InsertIgnore(ctx context.Context, images []models.MarsImage) (int64, error) {
	if len(images) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "nasa_id"}},
			DoNothing: true,
		}).
		Create(&images)
	return result.RowsAffected, result.Error
}

func (r *marsImageRepository) List(ctx context.Context, filter MarsImageFilter, page PageRequest) ([]models.MarsImage, int64, error) {
	query := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.MarsImage{})
		if filter.Rover != "" {
			q = q.Where("rover = ?", filter.Rover)
		}
		if filter.Camera != "" {
			q = q.Where("camera = ?", filter.Camera)
		}
		if filter.Sol != nil {
			q = q.Where("sol = ?", *filter.Sol)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var images []models.MarsImage
	err := query().
		Order("earth_date DESC").
		Order("nasa_id DESC").
		Offset(page.offset()).
		Limit(page.Limit).
		Find(&images).
		Error
	return images, total, err
}

func (r *marsImageRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MarsImage{}).
		Count(&count).
		Error
	return count, err
}
