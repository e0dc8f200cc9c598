package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type InterviewSession struct {
	Id            uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionKey    string         `gorm:"type:text;not null;uniqueIndex"` // Chat identity, one live session per key
	Flow          string         `gorm:"type:text;not null"`
	StepIndex     int            `gorm:"not null;default:0"`
	Answers       datatypes.JSON `gorm:"type:jsonb"`
	Completed     bool           `gorm:"not null;default:false"`
	SchemaVersion string         `gorm:"type:text;not null"`
	CreatedAt     time.Time      `gorm:"autoCreateTime"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime"`
}

func (InterviewSession) TableName() string {
	return "interview_sessions"
}
