package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/careline/intake-platform/internal/customer"
	"github.com/careline/intake-platform/internal/domain"
)

var testNow = time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func repoWithCustomer(id string, lastActivityDaysAgo int, cases int, caseValue float64) *customer.MemoryRepo {
	repo := customer.NewMemoryRepo()
	created := testNow.AddDate(-1, 0, 0)
	repo.Put(domain.Customer{ID: id, Email: id + "@example.com", CreatedAt: created})
	for i := 0; i < cases; i++ {
		when := testNow.AddDate(0, 0, -lastActivityDaysAgo-i)
		repo.AddCase(domain.Case{
			ID:         id + "-case-" + string(rune('a'+i)),
			CustomerID: id,
			Status:     domain.CaseClosed,
			Value:      caseValue,
			CreatedAt:  when,
			UpdatedAt:  when,
		})
	}
	return repo
}

func TestJourneyStageDerivation(t *testing.T) {
	tests := []struct {
		name    string
		daysAgo int
		want    domain.LifecycleStage
	}{
		{"recent activity is active", 5, domain.StageActive},
		{"just under a month is active", 29, domain.StageActive},
		{"mid range is inactive", 45, domain.StageInactive},
		{"old activity is churned", 120, domain.StageChurned},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repoWithCustomer("c1", tt.daysAgo, 1, 100)
			svc := NewService(repo, WithClock(fixedClock))
			j, err := svc.Journey(context.Background(), "c1")
			if err != nil {
				t.Fatalf("journey: %v", err)
			}
			if j.CurrentStage != tt.want {
				t.Errorf("expected stage %s, got %s", tt.want, j.CurrentStage)
			}
		})
	}
}

func TestJourneyAggregates(t *testing.T) {
	repo := repoWithCustomer("c1", 3, 3, 400)
	svc := NewService(repo, WithClock(fixedClock))
	j, err := svc.Journey(context.Background(), "c1")
	if err != nil {
		t.Fatalf("journey: %v", err)
	}
	if j.TotalCases != 3 {
		t.Errorf("expected 3 cases, got %d", j.TotalCases)
	}
	if j.LifetimeValue != 1200 {
		t.Errorf("expected LTV 1200, got %.0f", j.LifetimeValue)
	}
}

func TestJourneyNotFound(t *testing.T) {
	svc := NewService(customer.NewMemoryRepo(), WithClock(fixedClock))
	_, err := svc.Journey(context.Background(), "ghost")
	if err != customer.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStageOverridesDerivedView(t *testing.T) {
	repo := repoWithCustomer("c1", 200, 1, 50)
	svc := NewService(repo, WithClock(fixedClock))

	if err := svc.UpdateStage(context.Background(), "c1", domain.StageReactivated); err != nil {
		t.Fatalf("update stage: %v", err)
	}

	j, _ := svc.Journey(context.Background(), "c1")
	if j.CurrentStage != domain.StageReactivated {
		t.Errorf("expected override reactivated, got %s", j.CurrentStage)
	}
	if len(j.Stages) != 1 || j.Stages[0].Stage != domain.StageReactivated {
		t.Errorf("expected recorded visit, got %v", j.Stages)
	}

	svc.ClearOverride("c1")
	j, _ = svc.Journey(context.Background(), "c1")
	if j.CurrentStage != domain.StageChurned {
		t.Errorf("expected derived churned after clear, got %s", j.CurrentStage)
	}
}

func TestUpdateStageInvalid(t *testing.T) {
	repo := repoWithCustomer("c1", 1, 0, 0)
	svc := NewService(repo, WithClock(fixedClock))
	if err := svc.UpdateStage(context.Background(), "c1", "vip"); err == nil {
		t.Fatal("expected error for invalid stage")
	}
}

type captureWriter struct {
	customerID string
	stage      domain.LifecycleStage
}

func (w *captureWriter) WriteStage(_ context.Context, id string, st domain.LifecycleStage) error {
	w.customerID = id
	w.stage = st
	return nil
}

func TestUpdateStageNotifiesWriter(t *testing.T) {
	repo := repoWithCustomer("c1", 1, 0, 0)
	w := &captureWriter{}
	svc := NewService(repo, WithClock(fixedClock), WithStageWriter(w))

	if err := svc.UpdateStage(context.Background(), "c1", domain.StageActive); err != nil {
		t.Fatalf("update stage: %v", err)
	}
	if w.customerID != "c1" || w.stage != domain.StageActive {
		t.Errorf("writer not notified: %+v", w)
	}
}

func TestHealthScoreBounds(t *testing.T) {
	tests := []struct {
		name    string
		daysAgo int
		cases   int
		value   float64
		want    int
	}{
		{"max engagement", 2, 5, 400, 40 + 30 + 30},        // 2000 LTV
		{"min engagement", 365, 0, 0, 10 + 10 + 10},
		{"mid engagement", 20, 2, 300, 30 + 20 + 20},        // 600 LTV
		{"stale but valuable", 100, 4, 300, 10 + 30 + 30},   // 1200 LTV
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := repoWithCustomer("c1", tt.daysAgo, tt.cases, tt.value)
			svc := NewService(repo, WithClock(fixedClock))
			got, err := svc.HealthScore(context.Background(), "c1")
			if err != nil {
				t.Fatalf("health score: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
			if got < 0 || got > 100 {
				t.Errorf("score out of range: %d", got)
			}
		})
	}
}

func TestHealthScoreDeterministic(t *testing.T) {
	repo := repoWithCustomer("c1", 10, 2, 100)
	svc := NewService(repo, WithClock(fixedClock))
	a, _ := svc.HealthScore(context.Background(), "c1")
	b, _ := svc.HealthScore(context.Background(), "c1")
	if a != b {
		t.Errorf("score not deterministic: %d vs %d", a, b)
	}
}
