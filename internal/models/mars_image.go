package models

import (
	"time"

	"gorm.io/datatypes"
)

// MarsImage - снимок марсохода. После вставки не изменяется.
type MarsImage struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	NASAID    int64          `gorm:"column:nasa_id;uniqueIndex;not null" json:"nasa_id"`
	Rover     string         `gorm:"type:varchar(32);index" json:"rover"`
	Sol       int            `gorm:"index;not null" json:"sol"`
	Camera    string         `gorm:"type:varchar(50);index;not null" json:"camera"`
	ImgSrc    string         `gorm:"type:varchar(512);not null" json:"img_src"`
	Labels    datatypes.JSON `gorm:"type:jsonb" json:"labels"`
	EarthDate string         `gorm:"type:varchar(10);index" json:"earth_date"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
