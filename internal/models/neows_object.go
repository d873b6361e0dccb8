package models

import (
	"time"

	"gorm.io/datatypes"
)

// NeowsObject - околоземный объект с одним сближением.
// CloseApproachDate и MissDistanceKm дублируют поля close_approach для фильтрации и сортировки.
type NeowsObject struct {
	ID                     uint           `gorm:"primaryKey" json:"id"`
	NeoID                  string         `gorm:"column:neo_id;uniqueIndex;not null" json:"neo_id"`
	Name                   string         `gorm:"not null" json:"name"`
	EstimatedDiameter      datatypes.JSON `gorm:"type:jsonb" json:"estimated_diameter"`
	IsPotentiallyHazardous bool           `json:"is_potentially_hazardous"`
	CloseApproach          datatypes.JSON `gorm:"type:jsonb" json:"close_approach"`
	OrbitData              datatypes.JSON `gorm:"type:jsonb" json:"orbit_data"`
	CloseApproachDate      string         `gorm:"type:varchar(10);index" json:"close_approach_date"`
	MissDistanceKm         float64        `gorm:"index" json:"miss_distance_km"`
	CreatedAt              time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}
