package portal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/careline/intake-platform/internal/domain"
	"github.com/careline/intake-platform/internal/pkg/logger"
)

// JourneyService is the lifecycle surface the portal needs.
type JourneyService interface {
	Journey(ctx context.Context, customerID string) (*domain.CustomerJourney, error)
	UpdateStage(ctx context.Context, customerID string, stage domain.LifecycleStage) error
	Seeded(customerID string) bool
}

// PersonaService classifies customers for personalization.
type PersonaService interface {
	Classify(ctx context.Context, customerID string) (*domain.CustomerPersona, error)
}

// EventTrigger feeds portal events into the automation engine.
type EventTrigger interface {
	TriggerEventAutomation(ctx context.Context, eventName string, payload map[string]interface{}) error
}

// PortalEvent is one observed customer interaction.
type PortalEvent struct {
	CustomerID string                 `json:"customer_id"`
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at,omitempty"`
}

// TrackResult reports the outcome of event tracking. Error is a
// human-readable reason when Tracked is false.
type TrackResult struct {
	Tracked bool   `json:"tracked"`
	Error   string `json:"error,omitempty"`
}

// Session is the personalization bundle handed to the portal on login.
type Session struct {
	Journey         *domain.CustomerJourney `json:"journey"`
	Persona         *domain.CustomerPersona `json:"persona"`
	Recommendations []string                `json:"recommendations"`
}

// Service is the portal adapter over the lifecycle, persona, and
// automation layers.
type Service struct {
	journeys JourneyService
	personas PersonaService
	engine   EventTrigger

	mu       sync.Mutex
	lastSeen map[string]time.Time
	now      func() time.Time
}

// NewService wires the portal adapter.
func NewService(journeys JourneyService, personas PersonaService, engine EventTrigger) *Service {
	return &Service{
		journeys: journeys,
		personas: personas,
		engine:   engine,
		lastSeen: make(map[string]time.Time),
		now:      time.Now,
	}
}

// InitializeCustomerSession derives the personalization bundle for a
// portal login. First contacts are seeded at the onboarding stage
// exactly once.
func (s *Service) InitializeCustomerSession(ctx context.Context, customerID string) (*Session, error) {
	if !s.journeys.Seeded(customerID) {
		if err := s.journeys.UpdateStage(ctx, customerID, domain.StageOnboarding); err != nil {
			return nil, fmt.Errorf("seed onboarding stage: %w", err)
		}
	}

	j, err := s.journeys.Journey(ctx, customerID)
	if err != nil {
		return nil, err
	}
	p, err := s.personas.Classify(ctx, customerID)
	if err != nil {
		return nil, err
	}

	return &Session{
		Journey:         j,
		Persona:         p,
		Recommendations: recommendationsFor(p, j),
	}, nil
}

// TrackPortalEvent routes one event into the engine. Failures are
// reported in the result and never returned as errors.
func (s *Service) TrackPortalEvent(ctx context.Context, event PortalEvent) TrackResult {
	if event.CustomerID == "" {
		return TrackResult{Error: "event has no customer id"}
	}

	s.mu.Lock()
	s.lastSeen[event.CustomerID] = s.now()
	s.mu.Unlock()

	payload := map[string]interface{}{"customer_id": event.CustomerID}
	for k, v := range event.Data {
		payload[k] = v
	}

	switch event.Type {
	case "case_status_check", "support_request", "form_submit":
		if err := s.engine.TriggerEventAutomation(ctx, event.Type, payload); err != nil {
			logger.Warn("portal event trigger failed",
				"event", event.Type, "customer_id", event.CustomerID, "error", err.Error())
			return TrackResult{Error: err.Error()}
		}
	case "page_view":
		// Recency signal only; no engine trigger per page view.
	default:
		return TrackResult{Error: fmt.Sprintf("unknown event type %q", event.Type)}
	}

	return TrackResult{Tracked: true}
}

// LastSeen returns the most recent tracked activity for a customer.
func (s *Service) LastSeen(customerID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastSeen[customerID]
	return t, ok
}

func recommendationsFor(p *domain.CustomerPersona, j *domain.CustomerJourney) []string {
	var out []string

	switch p.Type {
	case domain.PersonaCautiousResearcher:
		out = append(out,
			"Read the step-by-step case process guide",
			"Schedule a call with your care coordinator")
	case domain.PersonaTechSavvyOptimizer:
		out = append(out,
			"Enable push notifications for instant status updates",
			"Upload supporting documents from the portal")
	default:
		out = append(out,
			"Review your detailed case timeline",
			"Explore resources for family advocates")
	}

	switch j.CurrentStage {
	case domain.StageOnboarding:
		out = append(out, "Complete your intake profile")
	case domain.StageInactive, domain.StageChurned:
		out = append(out, "Check whether your case details are still current")
	}
	return out
}
