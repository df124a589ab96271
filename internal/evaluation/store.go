package evaluation

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/uccuyo/valorador/internal/extract"
	"github.com/uccuyo/valorador/internal/grading"
)

// Session is one evaluator's work on one report. It lives in memory only.
type Session struct {
	ID        string
	Evaluator string
	CreatedAt time.Time
	ExpiresAt time.Time

	Document  *extract.Document
	Suggested map[string]int
	Sheet     *grading.ScoreSheet
	Result    *grading.Result
}

// Store keeps live sessions keyed by ID; an evaluator has at most one.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

func NewStore(ttl time.Duration) *Store {
	return &Store{sessions: map[string]*Session{}, ttl: ttl, now: time.Now}
}

// Create opens a fresh session for evaluator, replacing any previous one.
func (s *Store) Create(evaluator string) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	for id, sess := range s.sessions {
		if sess.Evaluator == evaluator {
			delete(s.sessions, id)
		}
	}
	now := s.now()
	sess := &Session{
		ID:        uuid.NewString(),
		Evaluator: evaluator,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.sessions[sess.ID] = sess
	return *sess
}

func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return *sess, nil
}

// Update applies fn to the stored session under the lock. If fn fails the
// session is left untouched.
func (s *Store) Update(id string, fn func(*Session) error) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	draft := *sess
	if err := fn(&draft); err != nil {
		return *sess, err
	}
	*sess = draft
	return draft, nil
}

func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	return len(s.sessions)
}

func (s *Store) purgeLocked() {
	now := s.now()
	for id, sess := range s.sessions {
		if !now.Before(sess.ExpiresAt) {
			delete(s.sessions, id)
		}
	}
}
