// Package session tracks per-session working state: the active brief, mode,
// current selections, and the session's history stores.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dqalex/OmniSpark/internal/history"
	"github.com/dqalex/OmniSpark/internal/model"
)

// ErrNotFound is returned when a session id is unknown.
var ErrNotFound = errors.New("session not found")

// Session is one production run. History is session-scoped and append-only;
// the selection fields are the mutable working set.
type Session struct {
	ID    string             `json:"id"`
	Brief model.ProductBrief `json:"brief"`
	Mode  model.Mode         `json:"mode"`

	SelectedConceptID string       `json:"selected_concept_id,omitempty"`
	ActiveImageID     string       `json:"active_image_id,omitempty"`
	Shots             []model.Shot `json:"shots,omitempty"`

	History      *history.Store `json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	LastActivity time.Time      `json:"last_activity"`
}

// Store holds live sessions in memory.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewStore creates an empty session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Create starts a session for a brief.
func (s *Store) Create(brief model.ProductBrief, mode model.Mode) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	sess := &Session{
		ID:           uuid.New().String(),
		Brief:        brief,
		Mode:         mode,
		History:      history.NewStore(),
		CreatedAt:    now,
		LastActivity: now,
	}
	s.sessions[sess.ID] = sess
	return sess
}

// Get returns a snapshot of the session.
func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return *sess, nil
}

// Update applies fn to the session under the store lock and returns the
// resulting snapshot.
func (s *Store) Update(id string, fn func(*Session)) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	if fn != nil {
		fn(sess)
	}
	sess.LastActivity = time.Now()
	return *sess, nil
}

// SetMode switches the session mode. Changing modes invalidates the
// mode-scoped downstream selections (selected concept, active image, working
// shots) but never touches the brief or the history stores.
func (s *Store) SetMode(id string, mode model.Mode) (Session, error) {
	return s.Update(id, func(sess *Session) {
		if sess.Mode == mode {
			return
		}
		sess.Mode = mode
		sess.SelectedConceptID = ""
		sess.ActiveImageID = ""
		sess.Shots = nil
	})
}
