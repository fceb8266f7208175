package rules

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/careline/intake-platform/internal/domain"
)

// Store is the concurrent automation rule catalog. Rules are held in
// insertion order and only removed by explicit Delete calls.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]domain.AutomationRule
	order []string
	now   func() time.Time
}

// NewStore creates an empty rule catalog.
func NewStore() *Store {
	return &Store{byID: make(map[string]domain.AutomationRule), now: time.Now}
}

// Seed loads a rule catalog at process start. Rules failing validation
// are rejected with an error naming the offender.
func (s *Store) Seed(rules []domain.AutomationRule) error {
	for _, r := range rules {
		if _, err := s.Create(r); err != nil {
			return fmt.Errorf("seed rule %q: %w", r.Name, err)
		}
	}
	return nil
}

// Create validates and inserts a rule. An empty ID gets a generated
// UUID. Returns the stored rule.
func (s *Store) Create(r domain.AutomationRule) (domain.AutomationRule, error) {
	if err := validateRule(r); err != nil {
		return domain.AutomationRule{}, err
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[r.ID]; exists {
		return domain.AutomationRule{}, fmt.Errorf("%w: rule %s already exists", ErrValidation, r.ID)
	}
	s.byID[r.ID] = r
	s.order = append(s.order, r.ID)
	return r, nil
}

// Update replaces an existing rule's definition. Execution bookkeeping
// (counter, last-executed stamp) is preserved.
func (s *Store) Update(r domain.AutomationRule) error {
	if err := validateRule(r); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byID[r.ID]
	if !ok {
		return ErrRuleNotFound
	}
	r.CreatedAt = existing.CreatedAt
	r.ExecutionCount = existing.ExecutionCount
	r.LastExecuted = existing.LastExecuted
	s.byID[r.ID] = r
	return nil
}

// Delete removes a rule from the catalog.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrRuleNotFound
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns one rule by ID.
func (s *Store) Get(id string) (domain.AutomationRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return domain.AutomationRule{}, ErrRuleNotFound
	}
	return r, nil
}

// List returns all rules in insertion order.
func (s *Store) List() []domain.AutomationRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.AutomationRule, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// ActiveForTrigger returns active rules matching the trigger type, or
// all active rules when triggerType is empty.
func (s *Store) ActiveForTrigger(triggerType domain.TriggerType) []domain.AutomationRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.AutomationRule
	for _, id := range s.order {
		r := s.byID[id]
		if !r.IsActive {
			continue
		}
		if triggerType != "" && r.Trigger.Type != triggerType {
			continue
		}
		out = append(out, r)
	}
	return out
}

// MarkExecuted atomically increments the execution counter and stamps
// the last-executed time.
func (s *Store) MarkExecuted(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[id]
	if !ok {
		return
	}
	r.ExecutionCount++
	r.LastExecuted = &at
	s.byID[id] = r
}

func validateRule(r domain.AutomationRule) error {
	if r.Name == "" {
		return fmt.Errorf("%w: rule name is required", ErrValidation)
	}
	if err := r.Trigger.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	for i, c := range r.Conditions {
		switch c.Operator {
		case domain.OpEquals, domain.OpNotEquals, domain.OpGreaterThan,
			domain.OpLessThan, domain.OpContains, domain.OpInRange:
		default:
			return fmt.Errorf("%w: condition %d has unknown operator %q", ErrValidation, i, c.Operator)
		}
		if c.Field == "" {
			return fmt.Errorf("%w: condition %d has no field path", ErrValidation, i)
		}
	}
	for i, a := range r.Actions {
		if a == nil {
			return fmt.Errorf("%w: action %d is nil", ErrValidation, i)
		}
	}
	return nil
}
