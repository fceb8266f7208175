package domain

import "time"

// LifecycleStage is a coarse bucket describing a customer's current
// relationship phase.
type LifecycleStage string

const (
	StageOnboarding  LifecycleStage = "onboarding"
	StageActive      LifecycleStage = "active"
	StageInactive    LifecycleStage = "inactive"
	StageChurned     LifecycleStage = "churned"
	StageReactivated LifecycleStage = "reactivated"
)

// NotificationPreferences holds a customer's channel opt-ins.
type NotificationPreferences struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
}

// Customer represents a case-intake customer. Read-only from the engine's
// point of view; mutation happens in the surrounding application.
type Customer struct {
	ID          string                  `json:"id" db:"id"`
	Email       string                  `json:"email" db:"email"`
	FirstName   string                  `json:"first_name" db:"first_name"`
	LastName    string                  `json:"last_name" db:"last_name"`
	Phone       string                  `json:"phone" db:"phone"`
	Age         int                     `json:"age" db:"age"`
	Preferences NotificationPreferences `json:"notification_preferences" db:"notification_preferences"`
	CreatedAt   time.Time               `json:"created_at" db:"created_at"`
}

// FullName returns the customer's display name, falling back to the email
// local part when no name is on file.
func (c *Customer) FullName() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	default:
		return c.Email
	}
}

// CaseStatus enumerates the states of an intake case.
type CaseStatus string

const (
	CaseSubmitted CaseStatus = "submitted"
	CaseInReview  CaseStatus = "in_review"
	CaseAccepted  CaseStatus = "accepted"
	CaseClosed    CaseStatus = "closed"
)

// Case is a single medical-intake case submitted by a customer.
type Case struct {
	ID         string     `json:"id" db:"id"`
	CustomerID string     `json:"customer_id" db:"customer_id"`
	Status     CaseStatus `json:"status" db:"status"`
	Value      float64    `json:"value" db:"value"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// StageVisit records one lifecycle stage a customer passed through.
type StageVisit struct {
	Stage     LifecycleStage `json:"stage"`
	EnteredAt time.Time      `json:"entered_at"`
}

// CustomerJourney is a derived view of a customer's relationship history.
// CurrentStage is recomputed from activity recency on every read; it is not
// a stored state machine, except for explicit overrides.
type CustomerJourney struct {
	CustomerID    string         `json:"customer_id"`
	Stages        []StageVisit   `json:"stages"`
	CurrentStage  LifecycleStage `json:"current_stage"`
	TotalCases    int            `json:"total_cases"`
	LastActivity  time.Time      `json:"last_activity"`
	LifetimeValue float64        `json:"lifetime_value"`
}

// DaysSinceActivity returns whole days since the journey's last activity,
// measured against now.
func (j *CustomerJourney) DaysSinceActivity(now time.Time) int {
	if j.LastActivity.IsZero() {
		return int(now.Sub(time.Time{}).Hours() / 24)
	}
	return int(now.Sub(j.LastActivity).Hours() / 24)
}
