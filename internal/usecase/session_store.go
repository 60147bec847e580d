package usecase

import (
	"sort"
	"sync"
)

// Bridge pairs a client with an administrator. Both sides carry a Bridge
// pointing at each other while the admin dialog is open.
type Bridge struct {
	Peer   int64
	LeadID int64
}

// SessionStore keeps conversation state in memory, keyed by chat id.
// Callers hold Lock for the whole turn so one user's messages never overlap.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[int64]Session
	locks    map[int64]*sync.Mutex
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[int64]Session),
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Lock acquires the per-user locks of ids in ascending order and returns the
// matching unlock func.
func (s *SessionStore) Lock(ids ...int64) func() {
	uniq := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	held := make([]*sync.Mutex, 0, len(uniq))
	for _, id := range uniq {
		m := s.userLock(id)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

func (s *SessionStore) userLock(id int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	return m
}

// Get returns the user's session, or a fresh one at service selection.
func (s *SessionStore) Get(id int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	return NewSession()
}

func (s *SessionStore) Put(id int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = sess
}

// Reset drops the flow but keeps an open admin bridge.
func (s *SessionStore) Reset(id int64) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := NewSession()
	if cur, ok := s.sessions[id]; ok {
		next.Bridge = cur.Bridge
	}
	s.sessions[id] = next
	return next
}
