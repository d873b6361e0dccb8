package repository

import (
	"context"

	"skystream/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NEORepository interface {
	Upsert(ctx context.Context, object *models.NeowsObject) (created bool, err error)
	ListByApproachWindow(ctx context.Context, from, to string, page PageRequest) ([]models.NeowsObject, int64, error)
	AllByApproachWindow(ctx context.Context, from, to string) ([]models.NeowsObject, error)
	Count(ctx context.Context) (int64, error)
}

type neoRepository struct {
	db *gorm.DB
}

func NewNEORepository(db *gorm.DB) NEORepository {
	return &neoRepository{db: db}
}

func (r *neoRepository) Upsert(ctx context.Context, object *models.NeowsObject) (bool, error) {
	var created bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.NeowsObject{}).Where("neo_id = ?", object.NeoID).Count(&existing).Error; err != nil {
			return err
		}
		created = existing == 0

		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "neo_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "estimated_diameter", "is_potentially_hazardous", "close_approach",
				"orbit_data", "close_approach_date", "miss_distance_km", "updated_at",
			}),
		}).Create(object).Error
	})
	return created, err
}

func (r *neoRepository) window(ctx context.Context, from, to string) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.NeowsObject{}).
		Where("close_approach_date BETWEEN ? AND ?", from, to)
}

// ListByApproachWindow - объекты со сближением в [from, to], ближайшие первыми.
func (r *neoRepository) ListByApproachWindow(ctx context.Context, from, to string, page PageRequest) ([]models.NeowsObject, int64, error) {
	var total int64
	if err := r.window(ctx, from, to).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var objects []models.NeowsObject
	err := r.window(ctx, from, to).
		Order("miss_distance_km ASC").
		Order("neo_id ASC").
		Offset(page.offset()).
		Limit(page.Limit).
		Find(&objects).
		Error
	return objects, total, err
}

func (r *neoRepository) AllByApproachWindow(ctx context.Context, from, to string) ([]models.NeowsObject, error) {
	var objects []models.NeowsObject
	err := r.window(ctx, from, to).
		Order("miss_distance_km ASC").
		Find(&objects).
		Error
	return objects, err
}

func (r *neoRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.NeowsObject{}).
		Count(&count).
		Error
	return count, err
}
