package model

import (
	"time"

	"github.com/google/uuid"
)

type QuestionRow struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Flow      string    `gorm:"type:text;not null;index"`
	OrderKey  string    `gorm:"column:order_key;type:text;not null"`
	Qid       string    `gorm:"type:text;not null"`
	Label     string    `gorm:"type:text;not null"`
	Type      string    `gorm:"type:text;not null"`
	Required  bool      `gorm:"not null;default:false"`
	MaxLen    int       `gorm:"not null;default:0"`
	Help      string    `gorm:"type:text"`
	Options   string    `gorm:"type:text"`
	Rules     string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (QuestionRow) TableName() string {
	return "question_rows"
}
