package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// FailedJob - задача, исчерпавшая попытки в очереди (dead letter).
type FailedJob struct {
	ID       uint           `gorm:"primaryKey" json:"id"`
	UUID     uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Job      string         `gorm:"not null;index" json:"job"`
	Payload  datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	Error    string         `gorm:"type:text" json:"error"`
	Attempts int            `json:"attempts"`
	FailedAt time.Time      `gorm:"not null" json:"failed_at"`
}
