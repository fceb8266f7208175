package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/careline/intake-platform/internal/comms"
	"github.com/careline/intake-platform/internal/customer"
	"github.com/careline/intake-platform/internal/domain"
	"github.com/careline/intake-platform/internal/lifecycle"
	"github.com/careline/intake-platform/internal/metrics"
	"github.com/careline/intake-platform/internal/persona"
	"github.com/careline/intake-platform/internal/pkg/httputil"
	"github.com/careline/intake-platform/internal/portal"
	"github.com/careline/intake-platform/internal/rules"
)

// Handlers carries the service layer for all HTTP endpoints.
type Handlers struct {
	lifecycle  *lifecycle.Service
	personas   *persona.Classifier
	dispatcher *comms.Dispatcher
	engine     *rules.Engine
	portal     *portal.Service
	tracker    metrics.Tracker
}

// NewHandlers wires the handler set.
func NewHandlers(lc *lifecycle.Service, personas *persona.Classifier, dispatcher *comms.Dispatcher, engine *rules.Engine, portalSvc *portal.Service, tracker metrics.Tracker) *Handlers {
	return &Handlers{
		lifecycle:  lc,
		personas:   personas,
		dispatcher: dispatcher,
		engine:     engine,
		portal:     portalSvc,
		tracker:    tracker,
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// AnalyzePersona returns the derived persona for a customer.
func (h *Handlers) AnalyzePersona(w http.ResponseWriter, r *http.Request) {
	p, err := h.personas.Classify(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.OK(w, p)
}

// GetJourney returns the derived lifecycle journey.
func (h *Handlers) GetJourney(w http.ResponseWriter, r *http.Request) {
	j, err := h.lifecycle.Journey(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.OK(w, j)
}

// GetHealthScore returns the current engagement score.
func (h *Handlers) GetHealthScore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "customerID")
	score, err := h.lifecycle.HealthScore(r.Context(), id)
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"customer_id":  id,
		"health_score": score,
	})
}

// UpdateStage records an explicit lifecycle stage override.
func (h *Handlers) UpdateStage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stage string `json:"stage"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "customerID")
	if err := h.lifecycle.UpdateStage(r.Context(), id, domain.LifecycleStage(req.Stage)); err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			httputil.NotFound(w, err.Error())
			return
		}
		httputil.BadRequest(w, err.Error())
		return
	}
	httputil.NoContent(w)
}

// GetDashboard returns the persona-driven dashboard configuration.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.portal.GetPersonalizedDashboard(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.OK(w, cfg)
}

// InitializeSession seeds and returns the portal personalization bundle.
func (h *Handlers) InitializeSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string `json:"customer_id"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.CustomerID == "" {
		httputil.BadRequest(w, "customer_id is required")
		return
	}
	sess, err := h.portal.InitializeCustomerSession(r.Context(), req.CustomerID)
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.OK(w, sess)
}

// TrackEvent records one portal interaction. Tracking problems are
// reported in the body, never as an error status.
func (h *Handlers) TrackEvent(w http.ResponseWriter, r *http.Request) {
	var event portal.PortalEvent
	if !httputil.Decode(w, r, &event) {
		return
	}
	httputil.OK(w, h.portal.TrackPortalEvent(r.Context(), event))
}

// ListRules returns the rule catalog.
func (h *Handlers) ListRules(w http.ResponseWriter, r *http.Request) {
	list := h.engine.ListRules()
	out := make([]ruleDTO, 0, len(list))
	for _, rule := range list {
		out = append(out, toRuleDTO(rule))
	}
	httputil.OK(w, out)
}

// CreateRule adds a rule to the catalog.
func (h *Handlers) CreateRule(w http.ResponseWriter, r *http.Request) {
	var dto ruleDTO
	if !httputil.Decode(w, r, &dto) {
		return
	}
	rule, err := dto.toDomain()
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	created, err := h.engine.CreateRule(rule)
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.Created(w, toRuleDTO(created))
}

// UpdateRule replaces a rule definition.
func (h *Handlers) UpdateRule(w http.ResponseWriter, r *http.Request) {
	var dto ruleDTO
	if !httputil.Decode(w, r, &dto) {
		return
	}
	dto.ID = chi.URLParam(r, "ruleID")
	rule, err := dto.toDomain()
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := h.engine.UpdateRule(rule); err != nil {
		respondErr(w, err)
		return
	}
	httputil.OK(w, toRuleDTO(rule))
}

// DeleteRule removes a rule from the catalog.
func (h *Handlers) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteRule(chi.URLParam(r, "ruleID")); err != nil {
		respondErr(w, err)
		return
	}
	httputil.NoContent(w)
}

// ExecuteAutomations runs batch rule evaluation. The optional trigger
// query parameter restricts evaluation to one trigger type.
func (h *Handlers) ExecuteAutomations(w http.ResponseWriter, r *http.Request) {
	trigger := domain.TriggerType(r.URL.Query().Get("trigger"))
	executed, err := h.engine.ExecuteAutomations(r.Context(), trigger)
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"trigger":        string(trigger),
		"rules_executed": executed,
	})
}

// TriggerEvent fires event-based rules for a named event.
func (h *Handlers) TriggerEvent(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{}
	if !httputil.Decode(w, r, &payload) {
		return
	}
	name := chi.URLParam(r, "eventName")
	if err := h.engine.TriggerEventAutomation(r.Context(), name, payload); err != nil {
		respondErr(w, err)
		return
	}
	httputil.OK(w, map[string]string{"event": name, "status": "triggered"})
}

// ScheduleEvent defers an event trigger to the payload's execute_at
// timestamp. Accepted immediately regardless of deferral.
func (h *Handlers) ScheduleEvent(w http.ResponseWriter, r *http.Request) {
	payload := map[string]interface{}{}
	if !httputil.Decode(w, r, &payload) {
		return
	}
	name := chi.URLParam(r, "eventName")
	h.engine.ScheduleEventAutomation(r.Context(), name, payload)
	httputil.JSON(w, http.StatusAccepted, map[string]string{"event": name, "status": "scheduled"})
}

// SendLifecycleMessage dispatches the stage-matched template for a
// customer.
func (h *Handlers) SendLifecycleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID          string                 `json:"customer_id"`
		Stage               string                 `json:"stage"`
		Variables           map[string]interface{} `json:"variables"`
		OverridePreferences bool                   `json:"override_preferences"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.CustomerID == "" || req.Stage == "" {
		httputil.BadRequest(w, "customer_id and stage are required")
		return
	}
	sent, err := h.dispatcher.SendLifecycleMessage(r.Context(), req.CustomerID,
		domain.LifecycleStage(req.Stage), req.Variables, req.OverridePreferences)
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.OK(w, map[string]bool{"sent": sent})
}

// SendNotification dispatches a priority-routed notification.
func (h *Handlers) SendNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID string `json:"customer_id"`
		Subject    string `json:"subject"`
		Body       string `json:"body"`
		Priority   string `json:"priority"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.CustomerID == "" || req.Body == "" {
		httputil.BadRequest(w, "customer_id and body are required")
		return
	}
	priority := domain.Priority(req.Priority)
	if priority == "" {
		priority = domain.PriorityMedium
	}
	sent, err := h.dispatcher.SendMultiChannelNotification(r.Context(), req.CustomerID,
		comms.Message{Subject: req.Subject, Body: req.Body}, priority)
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.OK(w, map[string]bool{"sent": sent})
}

// StartCampaign begins metric tracking for a campaign. Restarting an
// already tracked campaign is a no-op.
func (h *Handlers) StartCampaign(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "campaignID")
	if err := h.tracker.StartCampaignTracking(r.Context(), id); err != nil {
		respondErr(w, err)
		return
	}
	httputil.Created(w, map[string]string{"campaign_id": id, "status": "tracking"})
}

// UpdateCampaignMetric increments one campaign counter.
func (h *Handlers) UpdateCampaignMetric(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string  `json:"field"`
		Value float64 `json:"value"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "campaignID")
	if err := h.tracker.UpdateCampaignMetric(r.Context(), id, domain.MetricField(req.Field), req.Value); err != nil {
		respondErr(w, err)
		return
	}
	httputil.NoContent(w)
}

// GetCampaignMetrics returns the accumulated counters plus derived rates.
func (h *Handlers) GetCampaignMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := h.tracker.GetCampaignMetrics(r.Context(), chi.URLParam(r, "campaignID"))
	if err != nil {
		respondErr(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"metrics":           m,
		"open_rate":         m.OpenRate(),
		"clickthrough_rate": m.ClickthroughRate(),
	})
}

// respondErr maps service errors onto HTTP statuses.
func respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, customer.ErrNotFound),
		errors.Is(err, rules.ErrRuleNotFound),
		errors.Is(err, metrics.ErrCampaignNotFound):
		httputil.NotFound(w, err.Error())
	case errors.Is(err, rules.ErrValidation),
		errors.Is(err, metrics.ErrUnknownField):
		httputil.BadRequest(w, err.Error())
	default:
		httputil.InternalError(w, err)
	}
}
