package portal

import (
	"context"

	"github.com/careline/intake-platform/internal/domain"
)

// DashboardConfig drives persona-aware portal rendering. Widgets are
// ordered by display priority.
type DashboardConfig struct {
	Theme              string   `json:"theme"`
	Widgets            []string `json:"widgets"`
	SupportLevel       string   `json:"support_level"`
	CommunicationStyle string   `json:"communication_style"`
	ShowHealthBanner   bool     `json:"show_health_banner"`
}

// GetPersonalizedDashboard builds the dashboard configuration for a
// customer from their persona and journey.
func (s *Service) GetPersonalizedDashboard(ctx context.Context, customerID string) (*DashboardConfig, error) {
	p, err := s.personas.Classify(ctx, customerID)
	if err != nil {
		return nil, err
	}
	j, err := s.journeys.Journey(ctx, customerID)
	if err != nil {
		return nil, err
	}

	cfg := &DashboardConfig{
		SupportLevel:       p.Experience.SupportLevel,
		CommunicationStyle: p.Experience.CommunicationStyle,
	}

	switch p.Type {
	case domain.PersonaCautiousResearcher:
		cfg.Theme = "calm"
		cfg.Widgets = []string{"case_status", "care_team_contacts", "document_guide", "faq"}
	case domain.PersonaTechSavvyOptimizer:
		cfg.Theme = "compact"
		cfg.Widgets = []string{"case_status", "quick_actions", "document_upload", "notifications"}
	default:
		cfg.Theme = "standard"
		cfg.Widgets = []string{"case_timeline", "case_status", "resources", "care_team_contacts"}
	}

	// Customers drifting away get the re-engagement banner regardless
	// of persona.
	cfg.ShowHealthBanner = j.CurrentStage == domain.StageInactive || j.CurrentStage == domain.StageChurned

	return cfg, nil
}
