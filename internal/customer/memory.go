package customer

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/careline/intake-platform/internal/domain"
)

// MemoryRepo is an in-memory Repository for tests and local runs.
// Safe for concurrent use.
type MemoryRepo struct {
	mu        sync.RWMutex
	customers map[string]domain.Customer
	cases     map[string][]domain.Case // keyed by customer id
}

// NewMemoryRepo creates an empty in-memory repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		customers: make(map[string]domain.Customer),
		cases:     make(map[string][]domain.Case),
	}
}

// Put inserts or replaces a customer.
func (m *MemoryRepo) Put(c domain.Customer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customers[c.ID] = c
}

// AddCase appends a case to a customer's history.
func (m *MemoryRepo) AddCase(cs domain.Case) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases[cs.CustomerID] = append(m.cases[cs.CustomerID], cs)
}

func (m *MemoryRepo) FindByID(_ context.Context, id string) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.customers[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := c
	return &cp, nil
}

func (m *MemoryRepo) FindByEmail(_ context.Context, email string) (*domain.Customer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.customers {
		if strings.EqualFold(c.Email, email) {
			cp := c
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryRepo) FindAll(_ context.Context, f ListFilter) ([]domain.Customer, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Customer
	for _, c := range m.customers {
		if f.Search != "" {
			needle := strings.ToLower(f.Search)
			hay := strings.ToLower(c.Email + " " + c.FirstName + " " + c.LastName)
			if !strings.Contains(hay, needle) {
				continue
			}
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })

	total := len(out)
	if f.Offset >= len(out) {
		return nil, total, nil
	}
	end := f.Offset + f.Limit
	if f.Limit <= 0 || end > len(out) {
		end = len(out)
	}
	return out[f.Offset:end], total, nil
}

func (m *MemoryRepo) CasesForCustomer(_ context.Context, customerID string) ([]domain.Case, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cs := make([]domain.Case, len(m.cases[customerID]))
	copy(cs, m.cases[customerID])
	sort.Slice(cs, func(i, j int) bool { return cs[i].CreatedAt.After(cs[j].CreatedAt) })
	return cs, nil
}

func (m *MemoryRepo) CountCases(_ context.Context, customerID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cases[customerID]), nil
}
