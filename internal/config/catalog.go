package config

import (
	"fmt"

	"github.com/careline/intake-platform/internal/domain"
	"github.com/careline/intake-platform/internal/rules"
)

// CatalogConfig carries the seedable rule and template catalogs. Empty
// sections fall back to the built-in defaults.
type CatalogConfig struct {
	Rules     []RuleSpec                     `yaml:"rules"`
	Templates []domain.CommunicationTemplate `yaml:"templates"`
}

// RuleSpec is the YAML shape of one automation rule. Actions use the
// wire form shared with the HTTP API.
type RuleSpec struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Trigger     domain.Trigger     `yaml:"trigger"`
	Conditions  []domain.Condition `yaml:"conditions"`
	Actions     []rules.ActionSpec `yaml:"actions"`
	Active      bool               `yaml:"active"`
}

// SeedRules returns the configured rule catalog, or the built-in
// defaults when the config carries none.
func (c *Config) SeedRules() ([]domain.AutomationRule, error) {
	if len(c.Catalog.Rules) == 0 {
		return rules.DefaultRules(), nil
	}

	out := make([]domain.AutomationRule, 0, len(c.Catalog.Rules))
	for _, spec := range c.Catalog.Rules {
		r := domain.AutomationRule{
			ID:          spec.ID,
			Name:        spec.Name,
			Description: spec.Description,
			Trigger:     spec.Trigger,
			Conditions:  spec.Conditions,
			IsActive:    spec.Active,
		}
		for _, as := range spec.Actions {
			action, err := rules.ParseAction(as)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", spec.Name, err)
			}
			r.Actions = append(r.Actions, action)
		}
		out = append(out, r)
	}
	return out, nil
}

// SeedTemplates returns the configured template catalog, or the
// built-in defaults when the config carries none.
func (c *Config) SeedTemplates() []domain.CommunicationTemplate {
	if len(c.Catalog.Templates) == 0 {
		return rules.DefaultTemplates()
	}
	return c.Catalog.Templates
}
