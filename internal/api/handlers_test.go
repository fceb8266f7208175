package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/careline/intake-platform/internal/comms"
	"github.com/careline/intake-platform/internal/customer"
	"github.com/careline/intake-platform/internal/domain"
	"github.com/careline/intake-platform/internal/lifecycle"
	"github.com/careline/intake-platform/internal/metrics"
	"github.com/careline/intake-platform/internal/persona"
	"github.com/careline/intake-platform/internal/portal"
	"github.com/careline/intake-platform/internal/rules"
)

type testEnv struct {
	router http.Handler
	repo   *customer.MemoryRepo
	logs   *comms.MemoryLogStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo := customer.NewMemoryRepo()
	repo.Put(domain.Customer{
		ID:        "c1",
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Phone:     "+15125550167",
		Age:       42,
		Preferences: domain.NotificationPreferences{
			Email: true, SMS: true, Push: true,
		},
		CreatedAt: time.Now().Add(-40 * 24 * time.Hour),
	})
	repo.AddCase(domain.Case{
		ID:         "case-1",
		CustomerID: "c1",
		Status:     domain.CaseAccepted,
		Value:      1200,
		CreatedAt:  time.Now().Add(-3 * 24 * time.Hour),
		UpdatedAt:  time.Now().Add(-2 * 24 * time.Hour),
	})

	lc := lifecycle.NewService(repo)
	classifier := persona.NewClassifier(repo)

	templates := comms.NewTemplateStore()
	templates.Seed(rules.DefaultTemplates())
	logs := comms.NewMemoryLogStore()
	dispatcher := comms.NewDispatcher(repo, templates, logs, []comms.Sender{
		comms.NewLogSender(domain.ChannelEmail),
		comms.NewLogSender(domain.ChannelSMS),
		comms.NewLogSender(domain.ChannelPush),
	})

	store := rules.NewStore()
	if err := store.Seed(rules.DefaultRules()); err != nil {
		t.Fatalf("seed rules: %v", err)
	}
	engine := rules.NewEngine(store, repo, lc, classifier, dispatcher, lc)
	portalSvc := portal.NewService(lc, classifier, engine)

	h := NewHandlers(lc, classifier, dispatcher, engine, portalSvc, metrics.NewMemoryTracker())
	return &testEnv{router: SetupRoutes(h, nil), repo: repo, logs: logs}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}

func TestPersonaEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/customers/c1/persona", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var p domain.CustomerPersona
	decode(t, rec, &p)
	if p.Type == "" || p.Confidence <= 0 {
		t.Errorf("incomplete persona: %+v", p)
	}

	rec = env.do(t, http.MethodGet, "/api/customers/ghost/persona", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown customer status = %d", rec.Code)
	}
}

func TestJourneyAndHealthScoreEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/customers/c1/journey", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("journey status = %d", rec.Code)
	}
	var j domain.CustomerJourney
	decode(t, rec, &j)
	if j.CurrentStage != domain.StageActive || j.TotalCases != 1 {
		t.Errorf("unexpected journey: %+v", j)
	}

	rec = env.do(t, http.MethodGet, "/api/customers/c1/health-score", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health-score status = %d", rec.Code)
	}
	var score struct {
		HealthScore int `json:"health_score"`
	}
	decode(t, rec, &score)
	// Recent activity (40) + one case (10) + LTV over 1000 (30).
	if score.HealthScore != 80 {
		t.Errorf("health score = %d, want 80", score.HealthScore)
	}
}

func TestUpdateStageEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPut, "/api/customers/c1/stage", map[string]string{"stage": "inactive"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/customers/c1/journey", nil)
	var j domain.CustomerJourney
	decode(t, rec, &j)
	if j.CurrentStage != domain.StageInactive {
		t.Errorf("override not applied: %+v", j)
	}

	rec = env.do(t, http.MethodPut, "/api/customers/c1/stage", map[string]string{"stage": "limbo"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid stage status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodPut, "/api/customers/ghost/stage", map[string]string{"stage": "active"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown customer status = %d", rec.Code)
	}
}

func TestRuleCRUDEndpoints(t *testing.T) {
	env := newTestEnv(t)

	var before []ruleDTO
	rec := env.do(t, http.MethodGet, "/api/rules/", nil)
	decode(t, rec, &before)

	create := map[string]interface{}{
		"name":    "quiet hours escalation",
		"trigger": map[string]interface{}{"type": "event_based", "event": "support_request"},
		"actions": []map[string]interface{}{
			{"type": "create_task", "params": map[string]interface{}{"title": "Call back customer"}},
		},
		"is_active": true,
	}
	rec = env.do(t, http.MethodPost, "/api/rules/", create)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created ruleDTO
	decode(t, rec, &created)
	if created.ID == "" {
		t.Fatal("created rule has no generated id")
	}

	var after []ruleDTO
	rec = env.do(t, http.MethodGet, "/api/rules/", nil)
	decode(t, rec, &after)
	if len(after) != len(before)+1 {
		t.Errorf("list size = %d, want %d", len(after), len(before)+1)
	}

	create["name"] = "renamed escalation"
	rec = env.do(t, http.MethodPut, "/api/rules/"+created.ID, create)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodDelete, "/api/rules/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, "/api/rules/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("double delete status = %d", rec.Code)
	}
}

func TestCreateRuleRejectsBadAction(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/rules/", map[string]interface{}{
		"name":      "broken",
		"trigger":   map[string]interface{}{"type": "event_based", "event": "x"},
		"actions":   []map[string]interface{}{{"type": "launch_rocket"}},
		"is_active": true,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestExecuteAutomationsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/automations/execute?trigger=time_based", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Trigger       string `json:"trigger"`
		RulesExecuted int    `json:"rules_executed"`
	}
	decode(t, rec, &out)
	if out.Trigger != "time_based" {
		t.Errorf("trigger echo = %q", out.Trigger)
	}
	// c1 is active, so the inactive re-engagement rule must not fire.
	if out.RulesExecuted != 0 {
		t.Errorf("rules_executed = %d, want 0", out.RulesExecuted)
	}
}

func TestSendLifecycleMessageEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/communications/lifecycle", map[string]interface{}{
		"customer_id": "c1",
		"stage":       "onboarding",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Sent bool `json:"sent"`
	}
	decode(t, rec, &out)
	if !out.Sent {
		t.Fatal("expected message to go out")
	}
	entries := env.logs.All()
	if len(entries) != 1 || entries[0].Status != domain.LogSent {
		t.Errorf("unexpected log entries: %+v", entries)
	}

	rec = env.do(t, http.MethodPost, "/api/communications/lifecycle", map[string]interface{}{
		"customer_id": "c1",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing stage status = %d", rec.Code)
	}
}

func TestSendNotificationEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/communications/notify", map[string]interface{}{
		"customer_id": "c1",
		"subject":     "Case update",
		"body":        "Your case moved to review.",
		"priority":    "high",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	// High priority fans out to all three enabled channels.
	if got := len(env.logs.All()); got != 3 {
		t.Errorf("log entries = %d, want 3", got)
	}

	rec = env.do(t, http.MethodPost, "/api/communications/notify", map[string]interface{}{
		"customer_id": "ghost",
		"body":        "hello",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown customer status = %d", rec.Code)
	}
}

func TestCampaignMetricsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/campaigns/fall-awareness/start", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("start status = %d", rec.Code)
	}

	for i, upd := range []map[string]interface{}{
		{"field": "sent", "value": 100},
		{"field": "delivered", "value": 90},
		{"field": "opened", "value": 45},
		{"field": "revenue", "value": 249.50},
	} {
		rec = env.do(t, http.MethodPut, "/api/campaigns/fall-awareness/metrics", upd)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("update %d status = %d, body %s", i, rec.Code, rec.Body.String())
		}
	}

	rec = env.do(t, http.MethodGet, "/api/campaigns/fall-awareness/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	var out struct {
		Metrics  domain.CampaignMetrics `json:"metrics"`
		OpenRate float64                `json:"open_rate"`
	}
	decode(t, rec, &out)
	if out.Metrics.Sent != 100 || out.Metrics.Revenue != 249.50 {
		t.Errorf("unexpected metrics: %+v", out.Metrics)
	}
	if want := 0.5; out.OpenRate != want {
		t.Errorf("open rate = %v, want %v", out.OpenRate, want)
	}

	rec = env.do(t, http.MethodGet, "/api/campaigns/nonexistent/metrics", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown campaign status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodPut, "/api/campaigns/fall-awareness/metrics",
		map[string]interface{}{"field": "vibes", "value": 1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field status = %d", rec.Code)
	}
}

func TestPortalEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/portal/sessions", map[string]string{"customer_id": "c1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("session status = %d, body %s", rec.Code, rec.Body.String())
	}
	var sess portal.Session
	decode(t, rec, &sess)
	if sess.Journey == nil || sess.Persona == nil || len(sess.Recommendations) == 0 {
		t.Errorf("incomplete session: %+v", sess)
	}

	rec = env.do(t, http.MethodPost, "/api/portal/events", portal.PortalEvent{
		CustomerID: "c1",
		Type:       "page_view",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("event status = %d", rec.Code)
	}
	var res portal.TrackResult
	decode(t, rec, &res)
	if !res.Tracked {
		t.Errorf("page_view not tracked: %+v", res)
	}

	// Tracking failures surface in the body, never as HTTP errors.
	rec = env.do(t, http.MethodPost, "/api/portal/events", portal.PortalEvent{
		CustomerID: "c1",
		Type:       "interpretive_dance",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("unknown event status = %d", rec.Code)
	}
	decode(t, rec, &res)
	if res.Tracked || res.Error == "" {
		t.Errorf("unknown event result: %+v", res)
	}

	rec = env.do(t, http.MethodGet, "/api/customers/c1/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rec.Code)
	}
	var cfg portal.DashboardConfig
	decode(t, rec, &cfg)
	if cfg.Theme == "" || len(cfg.Widgets) == 0 {
		t.Errorf("incomplete dashboard config: %+v", cfg)
	}
}

func TestEventTriggerEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/events/customer_registered/trigger",
		map[string]interface{}{"customer_id": "c1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("trigger status = %d, body %s", rec.Code, rec.Body.String())
	}
	// The welcome rule dispatches the onboarding template.
	if got := len(env.logs.All()); got != 1 {
		t.Errorf("log entries = %d, want 1", got)
	}

	rec = env.do(t, http.MethodPost, "/api/events/customer_registered/schedule",
		map[string]interface{}{
			"customer_id": "c1",
			"execute_at":  time.Now().Add(time.Hour).Format(time.RFC3339),
		})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("schedule status = %d", rec.Code)
	}
	// Deferred an hour out, so nothing new in the log yet.
	if got := len(env.logs.All()); got != 1 {
		t.Errorf("log entries after schedule = %d, want 1", got)
	}
}

func TestRuleListEncodesActions(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/rules/", nil)
	var list []ruleDTO
	decode(t, rec, &list)
	if len(list) == 0 {
		t.Fatal("expected seeded rules")
	}
	for _, r := range list {
		if len(r.Actions) == 0 {
			t.Errorf("rule %s has no encoded actions", r.Name)
		}
		for _, a := range r.Actions {
			if a.Type == "" {
				t.Errorf("rule %s has an untyped action: %+v", r.Name, a)
			}
		}
	}
}
