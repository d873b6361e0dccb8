package repository

import (
	"context"

	"skystream/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type APODRepository interface {
	Upsert(ctx context.Context, record *models.APODMood) (created bool, err error)
	GetByDate(ctx context.Context, date string) (*models.APODMood, error)
	Count(ctx context.Context) (int64, error)
}

type apodRepository struct {
	db *gorm.DB
}

func NewAPODRepository(db *gorm.DB) APODRepository {
	return &apodRepository{db: db}
}

// Upsert вставляет запись или обновляет существующую по apod_date.
// apod_date и created_at при обновлении не меняются.
func (r *apodRepository) Upsert(ctx context.Context, record *models.APODMood) (bool, error) {
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.APODMood{}).Where("apod_date = ?", record.APODDate).Count(&existing).Error; err != nil {
			return err
		}
		created = existing == 0

		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "apod_date"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"nasa_id", "title", "url", "mood", "mood_score", "color_palette", "ai_summary", "updated_at",
			}),
		}).Create(record).Error
	})
	return created, err
}

func (r *apodRepository) GetByDate(ctx context.Context, date string) (*models.APODMood, error) {
	var record models.APODMood
	err := r.db.WithContext(ctx).Where("apod_date = ?", date).First(&record).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &record, nil
}

func (r *apodRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.APODMood{}).
		Count(&count).
		Error
	return count, err
}
