package models

import (
	"time"

	"gorm.io/datatypes"
)

type CacheEntry struct {
	ID        uint           `gorm:"primaryKey"`
	CacheKey  string         `gorm:"uniqueIndex;not null"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
	FetchedAt time.Time      `gorm:"not null"`
	ExpiresAt time.Time      `gorm:"index;not null"`
}

func (CacheEntry) TableName() string { return "nasa_cache" }
