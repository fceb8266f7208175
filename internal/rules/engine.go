package rules

import (
	"context"
	"fmt"
	"time"

	"github.com/careline/intake-platform/internal/customer"
	"github.com/careline/intake-platform/internal/domain"
	"github.com/careline/intake-platform/internal/pkg/httpretry"
	"github.com/careline/intake-platform/internal/pkg/logger"
)

// JourneyReader is the narrow lifecycle surface the engine depends on.
type JourneyReader interface {
	Journey(ctx context.Context, customerID string) (*domain.CustomerJourney, error)
	HealthScore(ctx context.Context, customerID string) (int, error)
}

// PersonaReader classifies customers for condition state.
type PersonaReader interface {
	Classify(ctx context.Context, customerID string) (*domain.CustomerPersona, error)
}

const defaultActionTimeout = 10 * time.Second

// Engine evaluates the rule catalog against customer state and executes
// matched actions.
type Engine struct {
	rules    *Store
	repo     customer.Repository
	journeys JourneyReader
	personas PersonaReader
	sender   MessageSender
	stages   StageUpdater

	tasks     TaskCreator
	segments  SegmentAssigner
	webhooks  httpretry.HTTPDoer
	scheduler Scheduler

	actionTimeout time.Duration
	now           func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithTaskCreator replaces the log-only task hook.
func WithTaskCreator(t TaskCreator) EngineOption {
	return func(e *Engine) { e.tasks = t }
}

// WithSegmentAssigner replaces the log-only segment hook.
func WithSegmentAssigner(s SegmentAssigner) EngineOption {
	return func(e *Engine) { e.segments = s }
}

// WithWebhookClient replaces the outbound webhook HTTP client.
func WithWebhookClient(c httpretry.HTTPDoer) EngineOption {
	return func(e *Engine) { e.webhooks = c }
}

// WithScheduler replaces the in-process timer used for deferred events.
func WithScheduler(s Scheduler) EngineOption {
	return func(e *Engine) { e.scheduler = s }
}

// WithActionTimeout bounds each action invocation. Timeout counts as
// action failure.
func WithActionTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.actionTimeout = d }
}

// WithEngineClock overrides the time source, for tests.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine wires the engine. All collaborators are injected; the engine
// owns no global state beyond the rule catalog it is given.
func NewEngine(rules *Store, repo customer.Repository, journeys JourneyReader, personas PersonaReader, sender MessageSender, stages StageUpdater, opts ...EngineOption) *Engine {
	e := &Engine{
		rules:         rules,
		repo:          repo,
		journeys:      journeys,
		personas:      personas,
		sender:        sender,
		stages:        stages,
		tasks:         logTaskCreator{},
		segments:      logSegmentAssigner{},
		webhooks:      httpretry.NewRetryClient(nil, 3),
		scheduler:     NewTimerScheduler(),
		actionTimeout: defaultActionTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateRule adds a rule to the catalog.
func (e *Engine) CreateRule(r domain.AutomationRule) (domain.AutomationRule, error) {
	return e.rules.Create(r)
}

// UpdateRule replaces a rule definition.
func (e *Engine) UpdateRule(r domain.AutomationRule) error {
	return e.rules.Update(r)
}

// DeleteRule removes a rule.
func (e *Engine) DeleteRule(id string) error {
	return e.rules.Delete(id)
}

// ListRules returns the catalog in insertion order.
func (e *Engine) ListRules() []domain.AutomationRule {
	return e.rules.List()
}

// ExecuteAutomations runs batch evaluation for active rules, optionally
// filtered by trigger type (empty means all). Returns the number of
// rules that executed for at least one customer. Per-customer failures
// are logged and skipped; they never abort the batch.
func (e *Engine) ExecuteAutomations(ctx context.Context, triggerType domain.TriggerType) (int, error) {
	active := e.rules.ActiveForTrigger(triggerType)
	if len(active) == 0 {
		return 0, nil
	}

	customers, err := e.allCustomers(ctx)
	if err != nil {
		return 0, fmt.Errorf("load customers: %w", err)
	}

	executed := 0
	for _, rule := range active {
		matched := 0
		for i := range customers {
			if e.evaluateForCustomer(ctx, rule, &customers[i]) {
				matched++
			}
		}
		if matched > 0 {
			e.rules.MarkExecuted(rule.ID, e.now())
			executed++
			logger.Info("rule executed",
				"rule_id", rule.ID, "rule", rule.Name, "customers", matched)
		}
	}
	return executed, nil
}

// evaluateForCustomer runs one rule against one customer. Returns true
// only when conditions passed and every action succeeded.
func (e *Engine) evaluateForCustomer(ctx context.Context, rule domain.AutomationRule, c *domain.Customer) bool {
	state, err := e.buildState(ctx, c)
	if err != nil {
		logger.Warn("state derivation failed",
			"rule_id", rule.ID, "customer_id", c.ID, "error", err.Error())
		return false
	}

	if rule.Trigger.Type == domain.TriggerScoreBased {
		score, _ := state["health_score"].(int)
		if float64(score) > rule.Trigger.Threshold {
			return false
		}
	}

	pass, err := EvaluateChain(rule.Conditions, state)
	if err != nil {
		logger.Warn("condition evaluation failed",
			"rule_id", rule.ID, "customer_id", c.ID, "error", err.Error())
		return false
	}
	if !pass {
		return false
	}

	if err := e.executeActions(ctx, c.ID, rule.Actions); err != nil {
		logger.Warn("action execution failed",
			"rule_id", rule.ID, "customer_id", c.ID, "error", err.Error())
		return false
	}
	return true
}

// TriggerEventAutomation evaluates event_based rules matching eventName
// against the event payload itself and executes actions synchronously.
// The payload's customer_id field, when present, provides the action
// context.
func (e *Engine) TriggerEventAutomation(ctx context.Context, eventName string, payload map[string]interface{}) error {
	customerID, _ := payload["customer_id"].(string)

	for _, rule := range e.rules.ActiveForTrigger(domain.TriggerEventBased) {
		if rule.Trigger.Event != eventName {
			continue
		}

		pass, err := EvaluateChain(rule.Conditions, payload)
		if err != nil {
			logger.Warn("event condition evaluation failed",
				"rule_id", rule.ID, "event", eventName, "error", err.Error())
			continue
		}
		if !pass {
			continue
		}

		if err := e.executeActions(ctx, customerID, rule.Actions); err != nil {
			logger.Warn("event action execution failed",
				"rule_id", rule.ID, "event", eventName, "error", err.Error())
			continue
		}
		e.rules.MarkExecuted(rule.ID, e.now())
	}
	return nil
}

// ScheduleEventAutomation defers an event trigger until the payload's
// execute_at timestamp. Past or absent timestamps execute immediately.
// Deferral is in-process and fire-and-forget: pending events do not
// survive a restart, so callers needing durability must layer a durable
// queue under the Scheduler interface.
func (e *Engine) ScheduleEventAutomation(ctx context.Context, eventName string, payload map[string]interface{}) {
	at, ok := executeAt(payload)
	delay := time.Duration(0)
	if ok {
		delay = at.Sub(e.now())
	}

	if delay <= 0 {
		if err := e.TriggerEventAutomation(ctx, eventName, payload); err != nil {
			logger.Warn("immediate event execution failed",
				"event", eventName, "error", err.Error())
		}
		return
	}

	logger.Debug("event deferred", "event", eventName, "delay", delay.String())
	e.scheduler.Schedule(delay, func() {
		if err := e.TriggerEventAutomation(context.Background(), eventName, payload); err != nil {
			logger.Warn("deferred event execution failed",
				"event", eventName, "error", err.Error())
		}
	})
}

// executeActions runs a rule's actions in order, each under the bounded
// action timeout. The first failure aborts the remaining actions for
// this customer.
func (e *Engine) executeActions(ctx context.Context, customerID string, actions []domain.Action) error {
	for _, action := range actions {
		if err := e.executeAction(ctx, customerID, action); err != nil {
			return fmt.Errorf("action %s: %w", action.Kind(), err)
		}
	}
	return nil
}

// executeAction applies the per-action timeout. A handler that outlives
// the deadline is abandoned and counted as failed so a hung webhook
// cannot stall unrelated evaluation.
func (e *Engine) executeAction(ctx context.Context, customerID string, action domain.Action) error {
	ctx, cancel := context.WithTimeout(ctx, e.actionTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- e.runAction(ctx, customerID, action) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("timed out after %s", e.actionTimeout)
	}
}

// buildState derives the condition-evaluation state for one customer.
// See the package documentation for the path layout.
func (e *Engine) buildState(ctx context.Context, c *domain.Customer) (map[string]interface{}, error) {
	j, err := e.journeys.Journey(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	health, err := e.journeys.HealthScore(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	p, err := e.personas.Classify(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"customer": map[string]interface{}{
			"id":         c.ID,
			"email":      c.Email,
			"first_name": c.FirstName,
			"last_name":  c.LastName,
			"phone":      c.Phone,
			"age":        c.Age,
			"preferences": map[string]interface{}{
				"email": c.Preferences.Email,
				"sms":   c.Preferences.SMS,
				"push":  c.Preferences.Push,
			},
		},
		"journey": map[string]interface{}{
			"current_stage":       string(j.CurrentStage),
			"total_cases":         j.TotalCases,
			"lifetime_value":      j.LifetimeValue,
			"days_since_activity": j.DaysSinceActivity(e.now()),
		},
		"health_score": health,
		"persona": map[string]interface{}{
			"type":       string(p.Type),
			"confidence": p.Confidence,
		},
	}, nil
}

// allCustomers pages through the repository until the full set is loaded.
func (e *Engine) allCustomers(ctx context.Context) ([]domain.Customer, error) {
	const pageSize = 200
	var out []domain.Customer
	offset := 0
	for {
		page, total, err := e.repo.FindAll(ctx, customer.ListFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		offset += len(page)
		if len(page) == 0 || offset >= total {
			return out, nil
		}
	}
}

// executeAt extracts a deferral timestamp from an event payload. Both
// time.Time values and RFC 3339 strings are accepted.
func executeAt(payload map[string]interface{}) (time.Time, bool) {
	raw, ok := payload["execute_at"]
	if !ok {
		return time.Time{}, false
	}
	switch v := raw.(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}
