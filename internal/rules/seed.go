package rules

import "github.com/careline/intake-platform/internal/domain"

// DefaultRules is the built-in rule catalog loaded at process start when
// no external catalog overrides it.
func DefaultRules() []domain.AutomationRule {
	return []domain.AutomationRule{
		{
			ID:          "welcome-new-customer",
			Name:        "Welcome new customer",
			Description: "Sends the onboarding message when a customer registers.",
			Trigger:     domain.Trigger{Type: domain.TriggerEventBased, Event: "customer_registered"},
			Actions: []domain.Action{
				domain.SendCommunication{Stage: domain.StageOnboarding},
				domain.AssignSegment{Segment: "new_customers"},
			},
			IsActive: true,
		},
		{
			ID:          "inactive-reengagement",
			Name:        "Re-engage inactive customers",
			Description: "Daily nudge for customers who drifted into the inactive stage.",
			Trigger:     domain.Trigger{Type: domain.TriggerTimeBased, Schedule: "daily"},
			Conditions: []domain.Condition{
				{Field: "journey.current_stage", Operator: domain.OpEquals, Value: "inactive"},
			},
			Actions: []domain.Action{
				domain.SendCommunication{Stage: domain.StageInactive},
			},
			IsActive: true,
		},
		{
			ID:          "churn-risk-escalation",
			Name:        "Escalate churn risk",
			Description: "Opens a retention task when the health score drops to 40 or below.",
			Trigger:     domain.Trigger{Type: domain.TriggerScoreBased, Threshold: 40},
			Conditions: []domain.Condition{
				{Field: "journey.current_stage", Operator: domain.OpNotEquals, Value: "churned"},
			},
			Actions: []domain.Action{
				domain.CreateTask{Title: "Retention outreach call", Assignee: "care-team", DueInDays: 2},
				domain.SendCommunication{
					Message:  "We noticed you have an open case. Your care team is here if you have questions.",
					Priority: domain.PriorityMedium,
				},
			},
			IsActive: true,
		},
		{
			ID:          "case-submitted-followup",
			Name:        "Case submission follow-up",
			Description: "Confirms receipt after a customer submits a case form.",
			Trigger:     domain.Trigger{Type: domain.TriggerEventBased, Event: "form_submit"},
			Conditions: []domain.Condition{
				{Field: "form_type", Operator: domain.OpEquals, Value: "case_intake"},
			},
			Actions: []domain.Action{
				domain.SendCommunication{Stage: domain.StageActive},
			},
			IsActive: true,
		},
	}
}

// DefaultTemplates is the built-in communication template catalog.
func DefaultTemplates() []domain.CommunicationTemplate {
	return []domain.CommunicationTemplate{
		{
			ID:      "onboarding-welcome-email",
			Channel: domain.ChannelEmail,
			Stage:   domain.StageOnboarding,
			Subject: "Welcome, {{first_name}}",
			Body: "Hi {{ first_name | default: \"there\" }},\n\n" +
				"Thanks for trusting us with your case. Your care team will review your " +
				"submission and reach out within one business day.\n\n" +
				"You can check your case status any time from your portal dashboard.",
			Variables: []string{"first_name"},
			IsActive:  true,
		},
		{
			ID:      "active-case-update-email",
			Channel: domain.ChannelEmail,
			Stage:   domain.StageActive,
			Subject: "Your case update",
			Body: "Hi {{ first_name | default: \"there\" }},\n\n" +
				"{{ update | default: \"There is new activity on your case.\" }}\n\n" +
				"Log in to your portal for the full details.",
			Variables: []string{"first_name", "update"},
			IsActive:  true,
		},
		{
			ID:      "inactive-checkin-email",
			Channel: domain.ChannelEmail,
			Stage:   domain.StageInactive,
			Subject: "Checking in on your case, {{first_name}}",
			Body: "Hi {{ first_name | default: \"there\" }},\n\n" +
				"It has been a while since your last visit. If anything changed with your " +
				"situation, your care team is ready to help.",
			Variables: []string{"first_name"},
			IsActive:  true,
		},
		{
			ID:        "reactivated-sms",
			Channel:   domain.ChannelSMS,
			Stage:     domain.StageReactivated,
			Body:      "Welcome back {{first_name}}! Your case file has been reopened. Reply HELP for assistance.",
			Variables: []string{"first_name"},
			IsActive:  true,
		},
	}
}
