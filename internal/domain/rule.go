package domain

import (
	"fmt"
	"time"
)

// TriggerType tags the variant of a rule trigger.
type TriggerType string

const (
	TriggerTimeBased  TriggerType = "time_based"
	TriggerEventBased TriggerType = "event_based"
	TriggerScoreBased TriggerType = "score_based"
)

// Trigger is a tagged union over the three trigger variants. Exactly one
// variant's payload is meaningful, selected by Type.
type Trigger struct {
	Type TriggerType `json:"type" yaml:"type"`

	// Schedule holds a recurrence expression for time_based triggers,
	// e.g. "daily" or "0 9 * * 1".
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty"`

	// Event holds the event name for event_based triggers.
	Event string `json:"event,omitempty" yaml:"event,omitempty"`

	// Threshold holds the score threshold for score_based triggers.
	Threshold float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// Validate checks that the populated payload matches the tag.
func (t Trigger) Validate() error {
	switch t.Type {
	case TriggerTimeBased:
		if t.Schedule == "" {
			return fmt.Errorf("time_based trigger requires a schedule")
		}
	case TriggerEventBased:
		if t.Event == "" {
			return fmt.Errorf("event_based trigger requires an event name")
		}
	case TriggerScoreBased:
		// Zero is a legal threshold.
	default:
		return fmt.Errorf("unknown trigger type %q", t.Type)
	}
	return nil
}

// Operator is a condition comparison operator.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpContains    Operator = "contains"
	OpInRange     Operator = "in_range"
)

// LogicOperator combines adjacent conditions in a chain.
type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// Condition is a single comparison against derived customer state.
//
// Logical describes how this condition combines with the NEXT condition in
// the chain, not with the previous one. Evaluation is strictly left to
// right and non-short-circuiting; see rules.EvaluateChain for the exact
// algorithm.
type Condition struct {
	Field    string        `json:"field" yaml:"field"`
	Operator Operator      `json:"operator" yaml:"operator"`
	Value    any           `json:"value" yaml:"value"`
	Logical  LogicOperator `json:"logical_operator,omitempty" yaml:"logical_operator,omitempty"`
}

// ActionKind tags the variant of a rule action.
type ActionKind string

const (
	ActionSendCommunication ActionKind = "send_communication"
	ActionUpdateStage       ActionKind = "update_stage"
	ActionCreateTask        ActionKind = "create_task"
	ActionTriggerWebhook    ActionKind = "trigger_webhook"
	ActionAssignSegment     ActionKind = "assign_segment"
)

// Action is the sum type over rule actions. Each variant carries a typed
// payload; the dispatcher switches exhaustively on the concrete type so a
// new action kind is a compile-time-checked addition.
type Action interface {
	Kind() ActionKind
}

// SendCommunication dispatches a lifecycle message or a multi-channel
// notification, depending on which fields are set.
type SendCommunication struct {
	Stage     LifecycleStage    `json:"stage,omitempty"`
	Message   string            `json:"message,omitempty"`
	Priority  Priority          `json:"priority,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
	Override  bool              `json:"override_preferences,omitempty"`
}

func (SendCommunication) Kind() ActionKind { return ActionSendCommunication }

// UpdateStage overrides a customer's lifecycle stage.
type UpdateStage struct {
	Stage LifecycleStage `json:"stage"`
}

func (UpdateStage) Kind() ActionKind { return ActionUpdateStage }

// CreateTask enqueues a follow-up task for the operations team.
type CreateTask struct {
	Title     string `json:"title"`
	Assignee  string `json:"assignee,omitempty"`
	DueInDays int    `json:"due_in_days,omitempty"`
}

func (CreateTask) Kind() ActionKind { return ActionCreateTask }

// TriggerWebhook calls an external HTTP endpoint with the customer context.
type TriggerWebhook struct {
	URL     string         `json:"url"`
	Payload map[string]any `json:"payload,omitempty"`
}

func (TriggerWebhook) Kind() ActionKind { return ActionTriggerWebhook }

// AssignSegment places the customer into a named marketing segment.
type AssignSegment struct {
	Segment string `json:"segment"`
}

func (AssignSegment) Kind() ActionKind { return ActionAssignSegment }

// AutomationRule couples a trigger, a condition chain, and an ordered list
// of actions. A rule with an empty condition list is unconditionally
// eligible whenever its trigger fires. Rules are never implicitly deleted.
type AutomationRule struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description,omitempty"`
	Trigger        Trigger     `json:"trigger"`
	Conditions     []Condition `json:"conditions"`
	Actions        []Action    `json:"actions"`
	IsActive       bool        `json:"is_active"`
	CreatedAt      time.Time   `json:"created_at"`
	LastExecuted   *time.Time  `json:"last_executed,omitempty"`
	ExecutionCount int64       `json:"execution_count"`
}
