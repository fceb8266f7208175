package api

import (
	"time"

	"github.com/careline/intake-platform/internal/domain"
	"github.com/careline/intake-platform/internal/rules"
)

// ruleDTO is the wire form of an automation rule. Actions travel as
// tagged specs rather than Go sum-type values.
type ruleDTO struct {
	ID             string             `json:"id,omitempty"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Trigger        domain.Trigger     `json:"trigger"`
	Conditions     []domain.Condition `json:"conditions,omitempty"`
	Actions        []rules.ActionSpec `json:"actions"`
	IsActive       bool               `json:"is_active"`
	CreatedAt      *time.Time         `json:"created_at,omitempty"`
	LastExecuted   *time.Time         `json:"last_executed,omitempty"`
	ExecutionCount int64              `json:"execution_count,omitempty"`
}

func (d ruleDTO) toDomain() (domain.AutomationRule, error) {
	rule := domain.AutomationRule{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Trigger:     d.Trigger,
		Conditions:  d.Conditions,
		IsActive:    d.IsActive,
	}
	for _, spec := range d.Actions {
		action, err := rules.ParseAction(spec)
		if err != nil {
			return domain.AutomationRule{}, err
		}
		rule.Actions = append(rule.Actions, action)
	}
	return rule, nil
}

func toRuleDTO(rule domain.AutomationRule) ruleDTO {
	dto := ruleDTO{
		ID:             rule.ID,
		Name:           rule.Name,
		Description:    rule.Description,
		Trigger:        rule.Trigger,
		Conditions:     rule.Conditions,
		Actions:        make([]rules.ActionSpec, 0, len(rule.Actions)),
		IsActive:       rule.IsActive,
		LastExecuted:   rule.LastExecuted,
		ExecutionCount: rule.ExecutionCount,
	}
	if !rule.CreatedAt.IsZero() {
		created := rule.CreatedAt
		dto.CreatedAt = &created
	}
	for _, a := range rule.Actions {
		dto.Actions = append(dto.Actions, rules.EncodeAction(a))
	}
	return dto
}
