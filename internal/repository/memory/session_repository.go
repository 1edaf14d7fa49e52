package memory

import (
	"sync"
	"time"

	"legal-rag-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

// SessionRecord is the stored form of a session. Session and CitedDocuments
// are guarded by Mu; Turn is a one-slot semaphore that serializes whole
// question/answer exchanges on the session.
type SessionRecord struct {
	Mu             sync.Mutex
	Turn           chan struct{}
	Session        entity.Session
	CitedDocuments map[string]struct{}
}

func NewSessionRecord(session entity.Session) *SessionRecord {
	return &SessionRecord{
		Turn:           make(chan struct{}, 1),
		Session:        session,
		CitedDocuments: make(map[string]struct{}),
	}
}

type SessionRepository struct {
	mu    sync.Mutex
	cache *cache.Cache
}

// NewSessionRepository keeps sessions for ttl after their last write. A ttl of
// zero or less keeps them until deleted.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	expiration := cache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = ttl / 2
		if cleanup < time.Minute {
			cleanup = time.Minute
		}
	}
	return &SessionRepository{
		cache: cache.New(expiration, cleanup),
	}
}

func (r *SessionRepository) Save(record *SessionRecord) {
	r.cache.Set(record.Session.Id, record, cache.DefaultExpiration)
}

// Touch refreshes the expiry of an existing record.
func (r *SessionRepository) Touch(record *SessionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.cache.Get(record.Session.Id); found {
		r.cache.Set(record.Session.Id, record, cache.DefaultExpiration)
	}
}

func (r *SessionRepository) Get(sessionID string) (*SessionRecord, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*SessionRecord), true
	}
	return nil, false
}

// Delete reports whether the session existed.
func (r *SessionRepository) Delete(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.cache.Get(sessionID); !found {
		return false
	}
	r.cache.Delete(sessionID)
	return true
}

func (r *SessionRepository) List() []*SessionRecord {
	items := r.cache.Items()
	records := make([]*SessionRecord, 0, len(items))
	for _, item := range items {
		records = append(records, item.Object.(*SessionRecord))
	}
	return records
}
