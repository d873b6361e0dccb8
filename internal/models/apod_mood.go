package models

import (
	"time"

	"gorm.io/datatypes"
)

// APODMood - картинка дня (APOD) с эвристическим настроением. Одна запись на дату.
type APODMood struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	APODDate     string         `gorm:"column:apod_date;type:varchar(10);uniqueIndex;not null" json:"apod_date"`
	NASAID       string         `gorm:"column:nasa_id" json:"nasa_id"`
	Title        string         `gorm:"not null" json:"title"`
	URL          string         `gorm:"type:varchar(512);not null" json:"url"`
	Mood         string         `gorm:"type:varchar(64)" json:"mood"`
	MoodScore    float64        `json:"mood_score"`
	ColorPalette datatypes.JSON `gorm:"type:jsonb" json:"color_palette"`
	AISummary    *string        `gorm:"column:ai_summary;type:text" json:"ai_summary"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (APODMood) TableName() string { return "apod_mood" }
