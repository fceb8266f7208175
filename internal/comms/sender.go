package comms

import (
	"context"

	"github.com/careline/intake-platform/internal/domain"
	"github.com/careline/intake-platform/internal/pkg/logger"
)

// Message is fully rendered content ready for a channel provider.
type Message struct {
	Subject string
	Body    string
}

// Sender delivers a rendered message to one customer over one channel.
// Implementations must be safe for concurrent use.
type Sender interface {
	Channel() domain.Channel
	Send(ctx context.Context, c *domain.Customer, msg Message) error
}

// LogSender is a no-op sender that only writes a log line. Used for the
// push channel (no provider integrated yet) and as the dev-mode fallback
// for email and SMS when provider credentials are absent.
type LogSender struct {
	channel domain.Channel
}

// NewLogSender creates a log-only sender for the given channel.
func NewLogSender(channel domain.Channel) *LogSender {
	return &LogSender{channel: channel}
}

func (s *LogSender) Channel() domain.Channel { return s.channel }

func (s *LogSender) Send(_ context.Context, c *domain.Customer, msg Message) error {
	logger.Info("dry-run dispatch",
		"channel", string(s.channel),
		"customer_id", c.ID,
		"email", c.Email,
		"subject", msg.Subject)
	return nil
}
