package repository

import (
	"context"
	"errors"
	"time"

	"skystream/internal/cache"
	"skystream/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cacheRepository - кэш ответов NASA в таблице nasa_cache. Переживает рестарт
// процесса и общий для нескольких инстансов без Redis.
type cacheRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewCacheRepository(db *gorm.DB) cache.Store {
	return &cacheRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var entry models.CacheEntry
	err := r.db.WithContext(ctx).
		Where("cache_key = ? AND expires_at > ?", key, r.now()).
		First(&entry).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, cache.ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return entry.Payload, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := r.now()
	entry := models.CacheEntry{
		CacheKey:  key,
		Payload:   value,
		FetchedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cache_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at", "expires_at"}),
		}).
		Create(&entry).
		Error
}

// DeleteExpired чистит протухшие записи, вызывается периодически.
func DeleteExpired(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&models.CacheEntry{})
	return result.RowsAffected, result.Error
}
