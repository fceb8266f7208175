package domain

import "time"

// MetricField names a single campaign counter.
type MetricField string

const (
	MetricSent         MetricField = "sent"
	MetricDelivered    MetricField = "delivered"
	MetricOpened       MetricField = "opened"
	MetricClicked      MetricField = "clicked"
	MetricConverted    MetricField = "converted"
	MetricUnsubscribed MetricField = "unsubscribed"
	MetricBounced      MetricField = "bounced"
	MetricRevenue      MetricField = "revenue"
)

// CounterFields lists the integer counters in reporting order.
func CounterFields() []MetricField {
	return []MetricField{
		MetricSent, MetricDelivered, MetricOpened, MetricClicked,
		MetricConverted, MetricUnsubscribed, MetricBounced,
	}
}

// CampaignMetrics holds the aggregate counters for one outbound campaign.
// Counters only ever increase; campaigns are never deleted.
type CampaignMetrics struct {
	CampaignID   string    `json:"campaign_id"`
	Sent         int64     `json:"sent"`
	Delivered    int64     `json:"delivered"`
	Opened       int64     `json:"opened"`
	Clicked      int64     `json:"clicked"`
	Converted    int64     `json:"converted"`
	Unsubscribed int64     `json:"unsubscribed"`
	Bounced      int64     `json:"bounced"`
	Revenue      float64   `json:"revenue"`
	StartedAt    time.Time `json:"started_at"`
}

// OpenRate returns opened/delivered, or zero before any deliveries.
func (m *CampaignMetrics) OpenRate() float64 {
	if m.Delivered == 0 {
		return 0
	}
	return float64(m.Opened) / float64(m.Delivered)
}

// ClickthroughRate returns clicked/opened, or zero before any opens.
func (m *CampaignMetrics) ClickthroughRate() float64 {
	if m.Opened == 0 {
		return 0
	}
	return float64(m.Clicked) / float64(m.Opened)
}
