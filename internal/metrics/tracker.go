package metrics

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/careline/intake-platform/internal/domain"
)

var (
	// ErrCampaignNotFound is returned for campaigns that were never
	// started.
	ErrCampaignNotFound = errors.New("campaign not tracked")

	// ErrUnknownField is returned for metric fields outside the fixed set.
	ErrUnknownField = errors.New("unknown metric field")
)

// Tracker accumulates campaign counters. Implementations must support
// concurrent read/insert/update.
type Tracker interface {
	StartCampaignTracking(ctx context.Context, campaignID string) error
	UpdateCampaignMetric(ctx context.Context, campaignID string, field domain.MetricField, value float64) error
	GetCampaignMetrics(ctx context.Context, campaignID string) (*domain.CampaignMetrics, error)
}

// MemoryTracker is an in-process Tracker for tests and single-node runs.
type MemoryTracker struct {
	mu        sync.RWMutex
	campaigns map[string]*domain.CampaignMetrics
	now       func() time.Time
}

// NewMemoryTracker creates an empty in-memory tracker.
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{
		campaigns: make(map[string]*domain.CampaignMetrics),
		now:       time.Now,
	}
}

// StartCampaignTracking registers a campaign. Restarting an existing
// campaign is a no-op so counters are never reset by accident.
func (t *MemoryTracker) StartCampaignTracking(_ context.Context, campaignID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.campaigns[campaignID]; ok {
		return nil
	}
	t.campaigns[campaignID] = &domain.CampaignMetrics{
		CampaignID: campaignID,
		StartedAt:  t.now(),
	}
	return nil
}

func (t *MemoryTracker) UpdateCampaignMetric(_ context.Context, campaignID string, field domain.MetricField, value float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.campaigns[campaignID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrCampaignNotFound, campaignID)
	}
	return applyField(m, field, value)
}

func (t *MemoryTracker) GetCampaignMetrics(_ context.Context, campaignID string) (*domain.CampaignMetrics, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	m, ok := t.campaigns[campaignID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCampaignNotFound, campaignID)
	}
	out := *m
	return &out, nil
}

func applyField(m *domain.CampaignMetrics, field domain.MetricField, value float64) error {
	switch field {
	case domain.MetricSent:
		m.Sent += int64(value)
	case domain.MetricDelivered:
		m.Delivered += int64(value)
	case domain.MetricOpened:
		m.Opened += int64(value)
	case domain.MetricClicked:
		m.Clicked += int64(value)
	case domain.MetricConverted:
		m.Converted += int64(value)
	case domain.MetricUnsubscribed:
		m.Unsubscribed += int64(value)
	case domain.MetricBounced:
		m.Bounced += int64(value)
	case domain.MetricRevenue:
		m.Revenue += value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return nil
}
