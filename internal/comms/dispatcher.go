package comms

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/careline/intake-platform/internal/customer"
	"github.com/careline/intake-platform/internal/domain"
	"github.com/careline/intake-platform/internal/pkg/logger"
)

// Dispatcher selects templates, personalizes them, and emits messages
// through the registered channel senders. Every dispatch attempt is
// appended to the communication log, success or failure.
type Dispatcher struct {
	repo      customer.Repository
	templates *TemplateStore
	renderer  *Renderer
	logs      LogStore
	senders   map[domain.Channel]Sender
	now       func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherClock overrides the time source, for tests.
func WithDispatcherClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a dispatcher. Channels without a registered
// sender fail dispatch attempts rather than silently dropping them.
func NewDispatcher(repo customer.Repository, templates *TemplateStore, logs LogStore, senders []Sender, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		repo:      repo,
		templates: templates,
		renderer:  NewRenderer(),
		logs:      logs,
		senders:   make(map[domain.Channel]Sender),
		now:       time.Now,
	}
	for _, s := range senders {
		d.senders[s.Channel()] = s
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SendLifecycleMessage picks the first active template for the stage,
// personalizes it, and dispatches on the template's channel. Returns
// false with no error when no template matches or the channel is gated
// by customer preferences. The returned boolean reports whether the
// message went out.
func (d *Dispatcher) SendLifecycleMessage(ctx context.Context, customerID string, stage domain.LifecycleStage, vars map[string]interface{}, overridePreferences bool) (bool, error) {
	c, err := d.repo.FindByID(ctx, customerID)
	if err != nil {
		return false, err
	}

	tpl, ok := d.templates.FirstForStage(stage)
	if !ok {
		logger.Debug("no active template for stage",
			"customer_id", customerID, "stage", string(stage))
		return false, nil
	}

	if !overridePreferences && !channelEnabled(c, tpl.Channel) {
		logger.Debug("dispatch suppressed by preferences",
			"customer_id", customerID, "channel", string(tpl.Channel))
		return false, nil
	}

	merged := d.buildVariables(c, vars)
	msg := Message{
		Subject: d.renderer.Render(tpl.ID+":subject", tpl.Subject, merged),
		Body:    d.renderer.Render(tpl.ID+":body", tpl.Body, merged),
	}

	return d.attempt(ctx, c, tpl.Channel, msg, map[string]string{
		"template_id": tpl.ID,
		"stage":       string(stage),
	}), nil
}

// SendMultiChannelNotification emits a notification according to
// priority. High priority fans out to every enabled channel; medium and
// low pick exactly one channel in email, SMS, push preference order.
// Returns true when at least one channel dispatched successfully.
func (d *Dispatcher) SendMultiChannelNotification(ctx context.Context, customerID string, msg Message, priority domain.Priority) (bool, error) {
	c, err := d.repo.FindByID(ctx, customerID)
	if err != nil {
		return false, err
	}

	meta := map[string]string{"priority": string(priority)}

	if priority == domain.PriorityHigh {
		any := false
		for _, ch := range []domain.Channel{domain.ChannelEmail, domain.ChannelSMS, domain.ChannelPush} {
			if !channelEnabled(c, ch) {
				continue
			}
			if d.attempt(ctx, c, ch, msg, meta) {
				any = true
			}
		}
		return any, nil
	}

	for _, ch := range []domain.Channel{domain.ChannelEmail, domain.ChannelSMS, domain.ChannelPush} {
		if channelEnabled(c, ch) {
			return d.attempt(ctx, c, ch, msg, meta), nil
		}
	}

	logger.Debug("no enabled channel for notification", "customer_id", customerID)
	return false, nil
}

// attempt dispatches on one channel and appends the log entry.
func (d *Dispatcher) attempt(ctx context.Context, c *domain.Customer, channel domain.Channel, msg Message, meta map[string]string) bool {
	entry := domain.CommunicationLog{
		ID:         uuid.New().String(),
		CustomerID: c.ID,
		TemplateID: meta["template_id"],
		Channel:    channel,
		Content:    msg.Body,
		Metadata:   meta,
		SentAt:     d.now(),
	}

	var sendErr error
	sender, ok := d.senders[channel]
	if !ok {
		sendErr = fmt.Errorf("no sender registered for channel %s", channel)
	} else {
		sendErr = sender.Send(ctx, c, msg)
	}

	if sendErr != nil {
		entry.Status = domain.LogFailed
		if entry.Metadata == nil {
			entry.Metadata = map[string]string{}
		}
		entry.Metadata["error"] = sendErr.Error()
		logger.Warn("dispatch failed",
			"customer_id", c.ID, "channel", string(channel), "error", sendErr.Error())
	} else {
		entry.Status = domain.LogSent
	}

	if err := d.logs.Append(ctx, entry); err != nil {
		logger.Error("communication log append failed",
			"customer_id", c.ID, "error", err.Error())
	}

	return sendErr == nil
}

// buildVariables merges customer identity fields with caller variables.
// Identity fields win; caller values never override first_name, email,
// and the other fields set here.
func (d *Dispatcher) buildVariables(c *domain.Customer, vars map[string]interface{}) map[string]interface{} {
	merged := map[string]interface{}{
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"full_name":  c.FullName(),
		"email":      c.Email,
		"phone":      c.Phone,
	}
	for k, v := range vars {
		if _, taken := merged[k]; !taken {
			merged[k] = v
		}
	}
	return merged
}

func channelEnabled(c *domain.Customer, ch domain.Channel) bool {
	switch ch {
	case domain.ChannelEmail:
		return c.Preferences.Email && c.Email != ""
	case domain.ChannelSMS:
		return c.Preferences.SMS && c.Phone != ""
	case domain.ChannelPush:
		return c.Preferences.Push
	}
	return false
}
