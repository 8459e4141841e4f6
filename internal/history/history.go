// Package history holds the session-scoped lineage stores. History is
// append-only: insertion at the front (most-recent-first) is the only
// mutation, and nothing is ever removed during a session.
package history

import (
	"sync"

	"github.com/dqalex/OmniSpark/internal/model"
)

// Store keeps the per-artifact-type collections for one session.
type Store struct {
	mu       sync.Mutex
	concepts []model.Concept
	images   []model.ImageArtifact
	videos   []model.VideoArtifact
}

// NewStore creates an empty history store.
func NewStore() *Store {
	return &Store{}
}

// AddConcept prepends a concept.
func (s *Store) AddConcept(c model.Concept) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.concepts = append([]model.Concept{c}, s.concepts...)
}

// AddImage prepends an image artifact.
func (s *Store) AddImage(a model.ImageArtifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images = append([]model.ImageArtifact{a}, s.images...)
}

// AddVideo prepends a video artifact.
func (s *Store) AddVideo(a model.VideoArtifact) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.videos = append([]model.VideoArtifact{a}, s.videos...)
}

// Concepts returns concepts for the (productName, mode) pair, newest first.
// An empty direction matches any; a set direction must match exactly.
func (s *Store) Concepts(productName, direction string, mode model.Mode) []model.Concept {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Concept, 0, len(s.concepts))
	for _, c := range s.concepts {
		if c.ProductName != productName || c.Mode != mode {
			continue
		}
		if direction != "" && c.Direction != direction {
			continue
		}
		out = append(out, c)
	}
	return out
}

// ConceptByID returns a concept by id.
func (s *Store) ConceptByID(id string) (model.Concept, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.concepts {
		if c.ID == id {
			return c, true
		}
	}
	return model.Concept{}, false
}

// Images returns image artifacts filtered by the strict conjunction of
// conceptID and mode. Cross-mode or cross-concept leakage is a correctness
// violation, so both must match.
func (s *Store) Images(conceptID string, mode model.Mode) []model.ImageArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.ImageArtifact, 0, len(s.images))
	for _, a := range s.images {
		if a.ConceptID != conceptID || a.Mode != mode {
			continue
		}
		out = append(out, a)
	}
	return out
}

// ImageByID returns an image artifact by id.
func (s *Store) ImageByID(id string) (model.ImageArtifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.images {
		if a.ID == id {
			return a, true
		}
	}
	return model.ImageArtifact{}, false
}

// Videos returns video artifacts grouped by (productName, conceptTitle).
// Videos carry no concept id, so this weaker join is the only video filter.
// An empty conceptTitle matches the whole product.
func (s *Store) Videos(productName, conceptTitle string) []model.VideoArtifact {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.VideoArtifact, 0, len(s.videos))
	for _, a := range s.videos {
		if a.ProductName != productName {
			continue
		}
		if conceptTitle != "" && a.ConceptTitle != conceptTitle {
			continue
		}
		out = append(out, a)
	}
	return out
}

// VideoByID returns a video artifact by id.
func (s *Store) VideoByID(id string) (model.VideoArtifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.videos {
		if a.ID == id {
			return a, true
		}
	}
	return model.VideoArtifact{}, false
}

// Counts returns the size of each collection. Sizes are non-decreasing for
// the lifetime of the session.
func (s *Store) Counts() (concepts, images, videos int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.concepts), len(s.images), len(s.videos)
}
