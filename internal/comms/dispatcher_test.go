package comms

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/careline/intake-platform/internal/customer"
	"github.com/careline/intake-platform/internal/domain"
)

type recordSender struct {
	channel domain.Channel
	fail    bool
	sent    []Message
}

func (s *recordSender) Channel() domain.Channel { return s.channel }

func (s *recordSender) Send(_ context.Context, _ *domain.Customer, msg Message) error {
	if s.fail {
		return errors.New("provider unavailable")
	}
	s.sent = append(s.sent, msg)
	return nil
}

func allChannelsCustomer() domain.Customer {
	return domain.Customer{
		ID:        "c1",
		Email:     "jane@example.com",
		FirstName: "Jane",
		LastName:  "Doe",
		Phone:     "+15550001111",
		Preferences: domain.NotificationPreferences{
			Email: true, SMS: true, Push: true,
		},
	}
}

func testDispatcher(c domain.Customer, templates []domain.CommunicationTemplate, senders ...Sender) (*Dispatcher, *MemoryLogStore) {
	repo := customer.NewMemoryRepo()
	repo.Put(c)
	store := NewTemplateStore()
	store.Seed(templates)
	logs := NewMemoryLogStore()
	return NewDispatcher(repo, store, logs, senders), logs
}

func TestLifecycleMessageNoTemplate(t *testing.T) {
	d, logs := testDispatcher(allChannelsCustomer(), nil,
		&recordSender{channel: domain.ChannelEmail})

	sent, err := d.SendLifecycleMessage(context.Background(), "c1", domain.StageActive, nil, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sent {
		t.Error("expected false when no template matches")
	}
	if len(logs.All()) != 0 {
		t.Errorf("no-op must not append log entries, got %d", len(logs.All()))
	}
}

func TestLifecycleMessagePersonalization(t *testing.T) {
	email := &recordSender{channel: domain.ChannelEmail}
	d, logs := testDispatcher(allChannelsCustomer(), []domain.CommunicationTemplate{
		{
			ID: "welcome", Channel: domain.ChannelEmail, Stage: domain.StageOnboarding,
			Subject: "Welcome {{first_name}}", Body: "Hi {{first_name}}, {{topic}}.",
			IsActive: true,
		},
	}, email)

	// Caller-supplied first_name must not override the identity field.
	vars := map[string]interface{}{"topic": "your case is in review", "first_name": "Imposter"}
	sent, err := d.SendLifecycleMessage(context.Background(), "c1", domain.StageOnboarding, vars, false)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !sent {
		t.Fatal("expected dispatch")
	}
	if len(email.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(email.sent))
	}
	if email.sent[0].Subject != "Welcome Jane" {
		t.Errorf("subject: got %q", email.sent[0].Subject)
	}
	if email.sent[0].Body != "Hi Jane, your case is in review." {
		t.Errorf("body: got %q", email.sent[0].Body)
	}

	entries := logs.All()
	if len(entries) != 1 || entries[0].Status != domain.LogSent {
		t.Fatalf("expected one sent log entry, got %+v", entries)
	}
	if entries[0].Metadata["template_id"] != "welcome" {
		t.Errorf("expected template metadata, got %v", entries[0].Metadata)
	}
}

func TestLifecycleMessagePreferenceGate(t *testing.T) {
	c := allChannelsCustomer()
	c.Preferences.Email = false
	email := &recordSender{channel: domain.ChannelEmail}
	d, _ := testDispatcher(c, []domain.CommunicationTemplate{
		{ID: "t1", Channel: domain.ChannelEmail, Stage: domain.StageActive, Body: "hi", IsActive: true},
	}, email)

	sent, err := d.SendLifecycleMessage(context.Background(), "c1", domain.StageActive, nil, false)
	if err != nil || sent {
		t.Fatalf("expected suppressed send, got sent=%v err=%v", sent, err)
	}

	sent, err = d.SendLifecycleMessage(context.Background(), "c1", domain.StageActive, nil, true)
	if err != nil || !sent {
		t.Fatalf("override should bypass preferences, got sent=%v err=%v", sent, err)
	}
}

func TestLifecycleMessageSMSRequiresPhone(t *testing.T) {
	c := allChannelsCustomer()
	c.Phone = ""
	sms := &recordSender{channel: domain.ChannelSMS}
	d, _ := testDispatcher(c, []domain.CommunicationTemplate{
		{ID: "t1", Channel: domain.ChannelSMS, Stage: domain.StageActive, Body: "hi", IsActive: true},
	}, sms)

	sent, err := d.SendLifecycleMessage(context.Background(), "c1", domain.StageActive, nil, false)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if sent || len(sms.sent) != 0 {
		t.Error("SMS without phone must be suppressed")
	}
}

func TestLifecycleMessageInactiveTemplateSkipped(t *testing.T) {
	email := &recordSender{channel: domain.ChannelEmail}
	d, _ := testDispatcher(allChannelsCustomer(), []domain.CommunicationTemplate{
		{ID: "old", Channel: domain.ChannelEmail, Stage: domain.StageActive, Body: "old", IsActive: false},
		{ID: "new", Channel: domain.ChannelEmail, Stage: domain.StageActive, Body: "new", IsActive: true},
	}, email)

	sent, err := d.SendLifecycleMessage(context.Background(), "c1", domain.StageActive, nil, false)
	if err != nil || !sent {
		t.Fatalf("send: sent=%v err=%v", sent, err)
	}
	if email.sent[0].Body != "new" {
		t.Errorf("expected first active template, got %q", email.sent[0].Body)
	}
}

func TestLifecycleMessageNotFound(t *testing.T) {
	d, _ := testDispatcher(allChannelsCustomer(), nil)
	_, err := d.SendLifecycleMessage(context.Background(), "ghost", domain.StageActive, nil, false)
	if err != customer.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMultiChannelHighFansOut(t *testing.T) {
	email := &recordSender{channel: domain.ChannelEmail}
	sms := &recordSender{channel: domain.ChannelSMS}
	push := &recordSender{channel: domain.ChannelPush}
	d, logs := testDispatcher(allChannelsCustomer(), nil, email, sms, push)

	ok, err := d.SendMultiChannelNotification(context.Background(), "c1",
		Message{Subject: "Update", Body: "Case update"}, domain.PriorityHigh)
	if err != nil || !ok {
		t.Fatalf("notify: ok=%v err=%v", ok, err)
	}
	if len(email.sent) != 1 || len(sms.sent) != 1 || len(push.sent) != 1 {
		t.Errorf("high priority must hit all enabled channels: email=%d sms=%d push=%d",
			len(email.sent), len(sms.sent), len(push.sent))
	}
	if len(logs.All()) != 3 {
		t.Errorf("expected 3 log entries, got %d", len(logs.All()))
	}
}

func TestMultiChannelLowPicksOne(t *testing.T) {
	email := &recordSender{channel: domain.ChannelEmail}
	sms := &recordSender{channel: domain.ChannelSMS}
	push := &recordSender{channel: domain.ChannelPush}
	d, logs := testDispatcher(allChannelsCustomer(), nil, email, sms, push)

	ok, err := d.SendMultiChannelNotification(context.Background(), "c1",
		Message{Body: "ping"}, domain.PriorityLow)
	if err != nil || !ok {
		t.Fatalf("notify: ok=%v err=%v", ok, err)
	}
	total := len(email.sent) + len(sms.sent) + len(push.sent)
	if total != 1 {
		t.Fatalf("low priority must dispatch exactly once, got %d", total)
	}
	if len(email.sent) != 1 {
		t.Error("email is first in preference order and was enabled")
	}
	if len(logs.All()) != 1 {
		t.Errorf("expected 1 log entry, got %d", len(logs.All()))
	}
}

func TestMultiChannelPreferenceOrderFallback(t *testing.T) {
	c := allChannelsCustomer()
	c.Preferences.Email = false
	sms := &recordSender{channel: domain.ChannelSMS}
	push := &recordSender{channel: domain.ChannelPush}
	d, _ := testDispatcher(c, nil, sms, push)

	ok, err := d.SendMultiChannelNotification(context.Background(), "c1",
		Message{Body: "ping"}, domain.PriorityMedium)
	if err != nil || !ok {
		t.Fatalf("notify: ok=%v err=%v", ok, err)
	}
	if len(sms.sent) != 1 || len(push.sent) != 0 {
		t.Errorf("expected SMS fallback, got sms=%d push=%d", len(sms.sent), len(push.sent))
	}
}

func TestDispatchFailureLogsFailed(t *testing.T) {
	email := &recordSender{channel: domain.ChannelEmail, fail: true}
	d, logs := testDispatcher(allChannelsCustomer(), []domain.CommunicationTemplate{
		{ID: "t1", Channel: domain.ChannelEmail, Stage: domain.StageActive, Body: "hi", IsActive: true},
	}, email)

	sent, err := d.SendLifecycleMessage(context.Background(), "c1", domain.StageActive, nil, false)
	if err != nil {
		t.Fatalf("dispatch failure must not surface as error, got %v", err)
	}
	if sent {
		t.Error("expected false on provider failure")
	}

	entries := logs.All()
	if len(entries) != 1 || entries[0].Status != domain.LogFailed {
		t.Fatalf("expected one failed log entry, got %+v", entries)
	}
	if entries[0].Metadata["error"] == "" {
		t.Error("expected error recorded in metadata")
	}
}

func TestMemoryLogMarkDelivered(t *testing.T) {
	logs := NewMemoryLogStore()
	ctx := context.Background()
	logs.Append(ctx, domain.CommunicationLog{ID: "l1", CustomerID: "c1", Status: domain.LogSent})

	if err := logs.MarkDelivered(ctx, "l1", time.Now()); err != nil {
		t.Fatalf("mark delivered: %v", err)
	}
	entries, _ := logs.ForCustomer(ctx, "c1")
	if entries[0].Status != domain.LogDelivered || entries[0].DeliveredAt == nil {
		t.Errorf("expected delivered transition, got %+v", entries[0])
	}

	if err := logs.MarkDelivered(ctx, "missing", time.Now()); err != ErrLogNotFound {
		t.Errorf("expected ErrLogNotFound, got %v", err)
	}
}
