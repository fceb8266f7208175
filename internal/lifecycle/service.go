package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/careline/intake-platform/internal/customer"
	"github.com/careline/intake-platform/internal/domain"
	"github.com/careline/intake-platform/internal/pkg/logger"
)

// Stage recency thresholds, in days since last activity.
const (
	activeWindowDays   = 30
	inactiveWindowDays = 90
)

// StageWriter persists explicit stage overrides. Writes are fire-and-forget;
// the engine does not require read-after-write.
type StageWriter interface {
	WriteStage(ctx context.Context, customerID string, stage domain.LifecycleStage) error
}

// Service derives journeys and health scores from the customer repository.
// Safe for concurrent use.
type Service struct {
	repo   customer.Repository
	writer StageWriter
	now    func() time.Time

	mu        sync.RWMutex
	overrides map[string]domain.LifecycleStage
	visits    map[string][]domain.StageVisit
}

// Option configures a Service.
type Option func(*Service)

// WithStageWriter attaches a persistence hook for stage overrides.
func WithStageWriter(w StageWriter) Option {
	return func(s *Service) { s.writer = w }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a lifecycle service over the given repository.
func NewService(repo customer.Repository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		now:       time.Now,
		overrides: make(map[string]domain.LifecycleStage),
		visits:    make(map[string][]domain.StageVisit),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Journey returns the derived journey view for a customer. Returns
// customer.ErrNotFound if the customer does not exist.
func (s *Service) Journey(ctx context.Context, customerID string) (*domain.CustomerJourney, error) {
	c, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	cases, err := s.repo.CasesForCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("derive journey: %w", err)
	}

	last := c.CreatedAt
	var ltv float64
	for _, cs := range cases {
		ltv += cs.Value
		if cs.UpdatedAt.After(last) {
			last = cs.UpdatedAt
		}
		if cs.CreatedAt.After(last) {
			last = cs.CreatedAt
		}
	}

	j := &domain.CustomerJourney{
		CustomerID:    customerID,
		TotalCases:    len(cases),
		LastActivity:  last,
		LifetimeValue: ltv,
	}

	s.mu.RLock()
	j.Stages = append(j.Stages, s.visits[customerID]...)
	override, hasOverride := s.overrides[customerID]
	s.mu.RUnlock()

	if hasOverride {
		j.CurrentStage = override
	} else {
		j.CurrentStage = stageFromRecency(j.DaysSinceActivity(s.now()))
	}
	return j, nil
}

// UpdateStage records an explicit stage override and notifies the
// persistence hook. Hook failures are logged, never surfaced.
func (s *Service) UpdateStage(ctx context.Context, customerID string, stage domain.LifecycleStage) error {
	switch stage {
	case domain.StageOnboarding, domain.StageActive, domain.StageInactive,
		domain.StageChurned, domain.StageReactivated:
	default:
		return fmt.Errorf("invalid lifecycle stage %q", stage)
	}

	if _, err := s.repo.FindByID(ctx, customerID); err != nil {
		return err
	}

	s.mu.Lock()
	s.overrides[customerID] = stage
	s.visits[customerID] = append(s.visits[customerID], domain.StageVisit{
		Stage:     stage,
		EnteredAt: s.now(),
	})
	s.mu.Unlock()

	if s.writer != nil {
		if err := s.writer.WriteStage(ctx, customerID, stage); err != nil {
			logger.Warn("stage write hook failed",
				"customer_id", customerID, "stage", string(stage), "error", err.Error())
		}
	}
	return nil
}

// ClearOverride removes an explicit stage override so the derived view
// takes effect again.
func (s *Service) ClearOverride(customerID string) {
	s.mu.Lock()
	delete(s.overrides, customerID)
	s.mu.Unlock()
}

// Seeded reports whether the customer's journey has any recorded stage
// history. Used by the portal layer to seed first contacts exactly once.
func (s *Service) Seeded(customerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.visits[customerID]) > 0
}

func stageFromRecency(daysSince int) domain.LifecycleStage {
	switch {
	case daysSince < activeWindowDays:
		return domain.StageActive
	case daysSince < inactiveWindowDays:
		return domain.StageInactive
	default:
		return domain.StageChurned
	}
}
