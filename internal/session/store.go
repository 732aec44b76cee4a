package session

import (
	"sync"
	"time"
)

// Store maps user IDs to sessions. The store-wide mutex guards only the map
// itself; waiting for another event of the same user happens on the per-entry
// lock, so users never block each other.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[int64]*Session),
	}
}

// Acquire returns the session for userID with its per-user lock held,
// creating it in the idle state when absent. The caller must call Release
// once the event that triggered the acquisition is fully processed; until
// then further events for the same user block here.
func (s *Store) Acquire(userID int64) *Session {
	for {
		s.mu.Lock()
		sess, ok := s.sessions[userID]
		if !ok {
			sess = &Session{UserID: userID, State: StateIdle, LastActivity: time.Now()}
			s.sessions[userID] = sess
		}
		s.mu.Unlock()

		sess.mu.Lock()
		if sess.evicted {
			// Lost a race with EvictIdle between map lookup and lock.
			sess.mu.Unlock()
			continue
		}
		sess.LastActivity = time.Now()
		return sess
	}
}

// Release unlocks a session previously returned by Acquire.
func (s *Store) Release(sess *Session) {
	if sess == nil {
		return
	}
	sess.LastActivity = time.Now()
	sess.mu.Unlock()
}

// Reset returns the user's session to the idle state and discards the draft.
// Unknown users are a no-op; calling it twice is harmless.
func (s *Store) Reset(userID int64) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return
	}

	sess.mu.Lock()
	if !sess.evicted {
		sess.State = StateIdle
		sess.Draft.Clear()
		sess.LastActivity = time.Now()
	}
	sess.mu.Unlock()
}

// Peek reports the current state of a user's session without acquiring it.
// The second result is false when no session exists. A session whose lock is
// currently held by an in-flight event is reported as present with its state
// unknown (empty).
func (s *Store) Peek(userID int64) (State, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	s.mu.Unlock()
	if !ok {
		return "", false
	}
	if !sess.mu.TryLock() {
		return "", true
	}
	st := sess.State
	sess.mu.Unlock()
	return st, true
}

// EvictIdle removes sessions whose last activity is older than ttl and
// returns how many were dropped. Draft data in evicted sessions is lost;
// that is accepted, the next event simply starts a fresh session. Sessions
// with an in-flight event are skipped, they are not idle.
func (s *Store) EvictIdle(now time.Time, ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	candidates := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		candidates = append(candidates, sess)
	}
	s.mu.Unlock()

	evicted := 0
	for _, sess := range candidates {
		if !sess.mu.TryLock() {
			continue
		}
		if !sess.evicted && now.Sub(sess.LastActivity) > ttl {
			sess.evicted = true
			s.mu.Lock()
			delete(s.sessions, sess.UserID)
			s.mu.Unlock()
			evicted++
		}
		sess.mu.Unlock()
	}
	return evicted
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
