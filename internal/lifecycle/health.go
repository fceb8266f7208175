package lifecycle

import (
	"context"
	"time"

	"github.com/careline/intake-platform/internal/domain"
)

// HealthScore derives a 0-100 engagement score from the current journey
// snapshot. Deterministic and recomputed on every call; never cached.
// Returns customer.ErrNotFound when the journey cannot be derived.
func (s *Service) HealthScore(ctx context.Context, customerID string) (int, error) {
	j, err := s.Journey(ctx, customerID)
	if err != nil {
		return 0, err
	}
	return scoreJourney(j, s.now()), nil
}

func scoreJourney(j *domain.CustomerJourney, now time.Time) int {
	return recencyComponent(j.DaysSinceActivity(now)) +
		volumeComponent(j.TotalCases) +
		valueComponent(j.LifetimeValue)
}

func recencyComponent(daysSince int) int {
	switch {
	case daysSince <= 7:
		return 40
	case daysSince <= 30:
		return 30
	case daysSince <= 90:
		return 20
	default:
		return 10
	}
}

func volumeComponent(cases int) int {
	switch {
	case cases > 3:
		return 30
	case cases > 1:
		return 20
	default:
		return 10
	}
}

func valueComponent(ltv float64) int {
	switch {
	case ltv > 1000:
		return 30
	case ltv > 500:
		return 20
	default:
		return 10
	}
}
