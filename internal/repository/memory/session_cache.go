package memory

import (
	"time"

	"interview-engine-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// SessionCache keeps recently touched interview sessions in memory so a chat
// exchange mid-interview does not hit the database on every message. The
// database row stays the source of truth; entries here are write-through.
type SessionCache struct {
	cache *cache.Cache
}

func NewSessionCache() *SessionCache {
	// Sessions idle for an hour fall back to the database; expired entries
	// are purged every 10 minutes.
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &SessionCache{
		cache: c,
	}
}

func (r *SessionCache) Save(session *entity.InterviewSession) {
	r.cache.Set(session.SessionKey, session, cache.DefaultExpiration)
}

func (r *SessionCache) Get(sessionKey string) (*entity.InterviewSession, bool) {
	if x, found := r.cache.Get(sessionKey); found {
		return x.(*entity.InterviewSession), true
	}
	return nil, false
}

func (r *SessionCache) Delete(sessionKey string) {
	r.cache.Delete(sessionKey)
}
