package specification

import (
	"gorm.io/gorm"
)

type BySessionKey struct {
	SessionKey string
}

func (s BySessionKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_key = ?", s.SessionKey)
}

type ByFlow struct {
	Flow string
}

func (s ByFlow) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("flow = ?", s.Flow)
}
