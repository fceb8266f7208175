package comms

import (
	"context"
	"sync"
	"time"

	"github.com/careline/intake-platform/internal/domain"
)

// LogStore records dispatch attempts. Entries are append-only; the only
// permitted mutation is the sent -> delivered status transition.
type LogStore interface {
	Append(ctx context.Context, entry domain.CommunicationLog) error
	MarkDelivered(ctx context.Context, id string, at time.Time) error
	ForCustomer(ctx context.Context, customerID string) ([]domain.CommunicationLog, error)
}

// MemoryLogStore is an in-memory LogStore for tests and single-process
// deployments.
type MemoryLogStore struct {
	mu      sync.RWMutex
	entries []domain.CommunicationLog
	index   map[string]int
}

// NewMemoryLogStore creates an empty in-memory log store.
func NewMemoryLogStore() *MemoryLogStore {
	return &MemoryLogStore{index: make(map[string]int)}
}

func (s *MemoryLogStore) Append(_ context.Context, entry domain.CommunicationLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index[entry.ID] = len(s.entries)
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryLogStore) MarkDelivered(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return ErrLogNotFound
	}
	if s.entries[i].Status != domain.LogSent {
		return nil
	}
	s.entries[i].Status = domain.LogDelivered
	s.entries[i].DeliveredAt = &at
	return nil
}

func (s *MemoryLogStore) ForCustomer(_ context.Context, customerID string) ([]domain.CommunicationLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.CommunicationLog
	for _, e := range s.entries {
		if e.CustomerID == customerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// All returns every entry in append order. Test helper.
func (s *MemoryLogStore) All() []domain.CommunicationLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CommunicationLog, len(s.entries))
	copy(out, s.entries)
	return out
}
