package comms

import (
	"sync"

	"github.com/careline/intake-platform/internal/domain"
)

// TemplateStore is a concurrent catalog of communication templates.
// Insertion order is preserved so "first matching template" selection
// is deterministic across runs.
type TemplateStore struct {
	mu    sync.RWMutex
	byID  map[string]domain.CommunicationTemplate
	order []string
}

// NewTemplateStore creates an empty template store.
func NewTemplateStore() *TemplateStore {
	return &TemplateStore{byID: make(map[string]domain.CommunicationTemplate)}
}

// Seed loads a catalog of templates, replacing existing entries with the
// same ID. Intended for process start.
func (s *TemplateStore) Seed(templates []domain.CommunicationTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range templates {
		if _, exists := s.byID[t.ID]; !exists {
			s.order = append(s.order, t.ID)
		}
		s.byID[t.ID] = t
	}
}

// Put inserts or replaces a single template.
func (s *TemplateStore) Put(t domain.CommunicationTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[t.ID]; !exists {
		s.order = append(s.order, t.ID)
	}
	s.byID[t.ID] = t
}

// Get returns a template by ID or ErrTemplateNotFound.
func (s *TemplateStore) Get(id string) (domain.CommunicationTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byID[id]
	if !ok {
		return domain.CommunicationTemplate{}, ErrTemplateNotFound
	}
	return t, nil
}

// Delete removes a template by ID. Unknown IDs are a no-op.
func (s *TemplateStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// List returns all templates in insertion order.
func (s *TemplateStore) List() []domain.CommunicationTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CommunicationTemplate, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// FirstForStage returns the first active template targeting the given
// lifecycle stage, in insertion order. The second return is false when
// no active template matches.
func (s *TemplateStore) FirstForStage(stage domain.LifecycleStage) (domain.CommunicationTemplate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		t := s.byID[id]
		if t.IsActive && t.Stage == stage {
			return t, true
		}
	}
	return domain.CommunicationTemplate{}, false
}
