package cache

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"touchline/backend/internal/model"
)

const (
	// DefaultSessionTTL is how long an idle browsing session keeps its cache.
	DefaultSessionTTL = 30 * time.Minute
	// DefaultMaxSessions caps live sessions; the least recently used is evicted.
	DefaultMaxSessions = 10000
)

type key struct {
	articleID string
	language  string
}

// TranslationCache holds resolved translations for one browsing session.
type TranslationCache struct {
	mu      sync.RWMutex
	entries map[key]model.Translation
}

func NewTranslationCache() *TranslationCache {
	return &TranslationCache{entries: make(map[key]model.Translation)}
}

// Get returns the cached translation for (articleID, language).
func (c *TranslationCache) Get(articleID, language string) (model.Translation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.entries[key{articleID, language}]
	return t, ok
}

// Set stores t under its article and language, replacing any previous entry.
func (c *TranslationCache) Set(t model.Translation) {
	c.mu.Lock()
	c.entries[key{t.ArticleID, t.Language}] = t
	c.mu.Unlock()
}

func (c *TranslationCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

type session struct {
	cache    *TranslationCache
	lastSeen time.Time
}

// Sessions keeps one TranslationCache per session ID. Sessions idle longer
// than the TTL are dropped, and at most maxSessions are kept.
type Sessions struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions *lru.Cache[string, *session]
}

func NewSessions(ttl time.Duration, maxSessions int) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	// New only fails for a non-positive size.
	sessions, _ := lru.New[string, *session](maxSessions)
	return &Sessions{
		ttl:      ttl,
		now:      time.Now,
		sessions: sessions,
	}
}

// Get returns the cache for id, creating it when the session is new or expired.
func (s *Sessions) Get(id string) *TranslationCache {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess, ok := s.sessions.Get(id)
	if !ok || now.Sub(sess.lastSeen) > s.ttl {
		sess = &session{cache: NewTranslationCache()}
		s.sessions.Add(id, sess)
	}
	sess.lastSeen = now
	return sess.cache
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *Sessions) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for _, id := range s.sessions.Keys() {
		sess, ok := s.sessions.Peek(id)
		if ok && now.Sub(sess.lastSeen) > s.ttl {
			s.sessions.Remove(id)
			removed++
		}
	}
	return removed
}

func (s *Sessions) Len() int {
	return s.sessions.Len()
}

// SetClockForTest overrides the clock used for expiry.
func (s *Sessions) SetClockForTest(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}
