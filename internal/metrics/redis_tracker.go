package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careline/intake-platform/internal/domain"
)

// RedisTracker stores campaign counters in a Redis hash per campaign so
// multiple instances share one view. Keys: campaign:metrics:<id>.
type RedisTracker struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisTracker creates a tracker over the given Redis client.
func NewRedisTracker(client *redis.Client) *RedisTracker {
	return &RedisTracker{client: client, now: time.Now}
}

func campaignKey(id string) string {
	return "campaign:metrics:" + id
}

// StartCampaignTracking registers the campaign hash if it does not
// exist. Existing campaigns keep their counters.
func (t *RedisTracker) StartCampaignTracking(ctx context.Context, campaignID string) error {
	err := t.client.HSetNX(ctx, campaignKey(campaignID), "started_at",
		t.now().UTC().Format(time.RFC3339)).Err()
	if err != nil {
		return fmt.Errorf("start campaign %s: %w", campaignID, err)
	}
	return nil
}

func (t *RedisTracker) UpdateCampaignMetric(ctx context.Context, campaignID string, field domain.MetricField, value float64) error {
	key := campaignKey(campaignID)

	exists, err := t.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("check campaign %s: %w", campaignID, err)
	}
	if exists == 0 {
		return fmt.Errorf("%w: %s", ErrCampaignNotFound, campaignID)
	}

	switch field {
	case domain.MetricRevenue:
		err = t.client.HIncrByFloat(ctx, key, string(field), value).Err()
	case domain.MetricSent, domain.MetricDelivered, domain.MetricOpened,
		domain.MetricClicked, domain.MetricConverted,
		domain.MetricUnsubscribed, domain.MetricBounced:
		err = t.client.HIncrBy(ctx, key, string(field), int64(value)).Err()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	if err != nil {
		return fmt.Errorf("update campaign %s: %w", campaignID, err)
	}
	return nil
}

func (t *RedisTracker) GetCampaignMetrics(ctx context.Context, campaignID string) (*domain.CampaignMetrics, error) {
	fields, err := t.client.HGetAll(ctx, campaignKey(campaignID)).Result()
	if err != nil {
		return nil, fmt.Errorf("load campaign %s: %w", campaignID, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCampaignNotFound, campaignID)
	}

	m := &domain.CampaignMetrics{CampaignID: campaignID}
	if raw, ok := fields["started_at"]; ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			m.StartedAt = ts
		}
	}
	for _, f := range domain.CounterFields() {
		n, _ := strconv.ParseInt(fields[string(f)], 10, 64)
		switch f {
		case domain.MetricSent:
			m.Sent = n
		case domain.MetricDelivered:
			m.Delivered = n
		case domain.MetricOpened:
			m.Opened = n
		case domain.MetricClicked:
			m.Clicked = n
		case domain.MetricConverted:
			m.Converted = n
		case domain.MetricUnsubscribed:
			m.Unsubscribed = n
		case domain.MetricBounced:
			m.Bounced = n
		}
	}
	m.Revenue, _ = strconv.ParseFloat(fields[string(domain.MetricRevenue)], 64)
	return m, nil
}
