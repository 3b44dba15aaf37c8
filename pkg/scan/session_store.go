package scan

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kazuki11111/expiry-tracker/domain"
	"github.com/kazuki11111/expiry-tracker/internal/utils/clock"
)

// SessionStore holds open scan sessions in memory. Callers only ever see
// copies; mutation goes through Update.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	clock    clock.Clock
}

func NewSessionStore(ttl time.Duration, clk clock.Clock) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		clock:    clk,
	}
}

// Put assigns a fresh id and expiry to s and stores it.
func (st *SessionStore) Put(s *Session) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	s = s.clone()
	s.ID = uuid.NewString()
	s.ExpiresAt = st.clock.Now().Add(st.ttl)
	st.sessions[s.ID] = s
	return s.clone()
}

func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, err := st.live(id)
	if err != nil {
		return nil, err
	}
	return s.clone(), nil
}

// Update applies fn to the stored session. A failing fn leaves it untouched.
func (st *SessionStore) Update(id string, fn func(*Session) error) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, err := st.live(id)
	if err != nil {
		return nil, err
	}
	working := s.clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	st.sessions[id] = working
	return working.clone(), nil
}

// Take removes and returns the session so only one caller can commit it.
func (st *SessionStore) Take(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, err := st.live(id)
	if err != nil {
		return nil, err
	}
	delete(st.sessions, id)
	return s, nil
}

// Restore puts back a session obtained from Take.
func (st *SessionStore) Restore(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

func (st *SessionStore) Delete(id string) bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	_, ok := st.sessions[id]
	delete(st.sessions, id)
	return ok
}

// Sweep drops expired sessions and reports how many were removed.
func (st *SessionStore) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.clock.Now()
	removed := 0
	for id, s := range st.sessions {
		if !now.Before(s.ExpiresAt) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *SessionStore) live(id string) (*Session, error) {
	s, ok := st.sessions[id]
	if !ok {
		return nil, domain.ErrScanSessionNotFound
	}
	if !st.clock.Now().Before(s.ExpiresAt) {
		delete(st.sessions, id)
		return nil, domain.ErrScanSessionNotFound
	}
	return s, nil
}
