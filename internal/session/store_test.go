package session

import (
	"sync"
	"testing"
	"time"
)

func TestAcquireCreatesIdleSession(t *testing.T) {
	s := NewStore()
	sess := s.Acquire(42)
	defer s.Release(sess)

	if sess.UserID != 42 {
		t.Fatalf("UserID = %d, expected 42", sess.UserID)
	}
	if sess.State != StateIdle {
		t.Fatalf("State = %s, expected %s", sess.State, StateIdle)
	}
	if s.Len() != 1 {
		t.Fatalf("Len = %d, expected 1", s.Len())
	}
}

func TestAcquireBlocksSameUser(t *testing.T) {
	s := NewStore()
	first := s.Acquire(1)

	acquired := make(chan *Session)
	go func() {
		acquired <- s.Acquire(1)
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire returned while first was held")
	case <-time.After(50 * time.Millisecond):
	}

	first.State = StateMainMenu
	s.Release(first)

	select {
	case second := <-acquired:
		if second.State != StateMainMenu {
			t.Fatalf("State = %s, expected changes from first holder to be visible", second.State)
		}
		s.Release(second)
	case <-time.After(time.Second):
		t.Fatal("second Acquire never returned after Release")
	}
}

func TestAcquireDoesNotBlockOtherUsers(t *testing.T) {
	s := NewStore()
	first := s.Acquire(1)
	defer s.Release(first)

	done := make(chan struct{})
	go func() {
		other := s.Acquire(2)
		s.Release(other)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Acquire for another user blocked")
	}
}

func TestInterleavedUsersKeepStateIsolated(t *testing.T) {
	s := NewStore()
	const turns = 100

	var wg sync.WaitGroup
	for _, userID := range []int64{10, 20} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			for i := 0; i < turns; i++ {
				sess := s.Acquire(id)
				if sess.UserID != id {
					t.Errorf("session for %d has UserID %d", id, sess.UserID)
				}
				sess.Draft.Title = "user"
				s.Release(sess)
			}
		}(userID)
	}
	wg.Wait()

	if s.Len() != 2 {
		t.Fatalf("Len = %d, expected 2", s.Len())
	}
}

func TestResetReturnsToIdle(t *testing.T) {
	s := NewStore()
	sess := s.Acquire(7)
	sess.State = StateAddingDescription
	sess.Draft.Title = "buy milk"
	s.Release(sess)

	s.Reset(7)

	st, ok := s.Peek(7)
	if !ok {
		t.Fatal("session disappeared after Reset")
	}
	if st != StateIdle {
		t.Fatalf("State = %s, expected %s", st, StateIdle)
	}

	sess = s.Acquire(7)
	defer s.Release(sess)
	if sess.Draft.Title != "" {
		t.Fatalf("Draft survived Reset: %q", sess.Draft.Title)
	}
}

func TestResetUnknownUserIsNoop(t *testing.T) {
	s := NewStore()
	s.Reset(99)
	s.Reset(99)
	if s.Len() != 0 {
		t.Fatalf("Len = %d, expected 0", s.Len())
	}
}

func TestPeek(t *testing.T) {
	s := NewStore()

	if _, ok := s.Peek(5); ok {
		t.Fatal("Peek reported a session for an unknown user")
	}

	sess := s.Acquire(5)
	st, ok := s.Peek(5)
	if !ok {
		t.Fatal("Peek missed an in-flight session")
	}
	if st != "" {
		t.Fatalf("Peek of locked session returned state %q, expected empty", st)
	}
	sess.State = StateMainMenu
	s.Release(sess)

	st, ok = s.Peek(5)
	if !ok || st != StateMainMenu {
		t.Fatalf("Peek = (%q, %v), expected (%q, true)", st, ok, StateMainMenu)
	}
}

func TestEvictIdle(t *testing.T) {
	s := NewStore()
	for _, id := range []int64{1, 2, 3} {
		s.Release(s.Acquire(id))
	}

	ttl := 30 * time.Minute
	if n := s.EvictIdle(time.Now(), ttl); n != 0 {
		t.Fatalf("evicted %d fresh sessions", n)
	}

	future := time.Now().Add(time.Hour)
	if n := s.EvictIdle(future, ttl); n != 3 {
		t.Fatalf("evicted = %d, expected 3", n)
	}
	if s.Len() != 0 {
		t.Fatalf("Len = %d after eviction, expected 0", s.Len())
	}
}

func TestEvictIdleSkipsInFlightSessions(t *testing.T) {
	s := NewStore()
	held := s.Acquire(1)
	s.Release(s.Acquire(2))

	future := time.Now().Add(time.Hour)
	if n := s.EvictIdle(future, 30*time.Minute); n != 1 {
		t.Fatalf("evicted = %d, expected only the idle session", n)
	}
	if _, ok := s.Peek(1); !ok {
		t.Fatal("in-flight session was evicted")
	}
	s.Release(held)
}

func TestAcquireAfterEvictionStartsFresh(t *testing.T) {
	s := NewStore()
	sess := s.Acquire(1)
	sess.State = StateAddingTitle
	sess.Draft.Title = "stale"
	s.Release(sess)

	future := time.Now().Add(time.Hour)
	if n := s.EvictIdle(future, time.Minute); n != 1 {
		t.Fatalf("evicted = %d, expected 1", n)
	}

	sess = s.Acquire(1)
	defer s.Release(sess)
	if sess.State != StateIdle || sess.Draft.Title != "" {
		t.Fatalf("expected fresh session, got state %s draft %q", sess.State, sess.Draft.Title)
	}
}

func TestEvictIdleZeroTTLDisabled(t *testing.T) {
	s := NewStore()
	s.Release(s.Acquire(1))
	if n := s.EvictIdle(time.Now().Add(time.Hour), 0); n != 0 {
		t.Fatalf("evicted = %d with ttl 0, expected 0", n)
	}
}
