package server

import (
	"sync"
	"time"

	"github.com/imgajeed76/pgrid/internal/grid"
	"github.com/imgajeed76/pgrid/internal/source"
)

// SessionHeader carries the session id in both directions.
const SessionHeader = "X-Grid-Session"

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 30 * time.Minute

// DefaultMaxSessions bounds the live sessions. When full, the least
// recently seen session is evicted to make room.
const DefaultMaxSessions = 1000

// session is one client's grid. The grid has a single writer, so every
// access goes through mu.
type session struct {
	id   string
	mu   sync.Mutex
	grid *grid.Grid[source.Record]
	seen time.Time
}

// locked runs fn holding mu. A panic in fn still releases the lock.
func (s *session) locked(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

type sessionTable struct {
	mu  sync.Mutex
	m   map[string]*session
	ttl time.Duration
	max int
	now func() time.Time
}

func newSessionTable(ttl time.Duration, limit int) *sessionTable {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if limit <= 0 {
		limit = DefaultMaxSessions
	}
	return &sessionTable{m: map[string]*session{}, ttl: ttl, max: limit, now: time.Now}
}

// get returns the live session id, or nil. Expired sessions are dropped.
func (t *sessionTable) get(id string) *session {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweep()
	s, ok := t.m[id]
	if !ok {
		return nil
	}
	s.seen = t.now()
	return s
}

// put stores s and reports the id of a session evicted to make room.
func (t *sessionTable) put(s *session) (evicted string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sweep()
	if len(t.m) >= t.max {
		var oldest *session
		for _, o := range t.m {
			if oldest == nil || o.seen.Before(oldest.seen) {
				oldest = o
			}
		}
		delete(t.m, oldest.id)
		evicted = oldest.id
	}
	s.seen = t.now()
	t.m[s.id] = s
	return evicted
}

func (t *sessionTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.m)
}

// sweep must be called with mu held.
func (t *sessionTable) sweep() {
	cutoff := t.now().Add(-t.ttl)
	for id, s := range t.m {
		if s.seen.Before(cutoff) {
			delete(t.m, id)
		}
	}
}
