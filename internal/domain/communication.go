package domain

import "time"

// Channel enumerates the communication channels the dispatcher can emit on.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

// Priority controls multi-channel fan-out. High fans out to every enabled
// channel; medium and low pick exactly one by preference order.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// CommunicationTemplate is a reusable message body with {{variable}}
// placeholders, targeted at one channel and one lifecycle stage.
type CommunicationTemplate struct {
	ID        string         `json:"id" yaml:"id"`
	Channel   Channel        `json:"channel" yaml:"channel"`
	Stage     LifecycleStage `json:"stage" yaml:"stage"`
	Subject   string         `json:"subject,omitempty" yaml:"subject,omitempty"`
	Body      string         `json:"body" yaml:"body"`
	Variables []string       `json:"variables,omitempty" yaml:"variables,omitempty"`
	IsActive  bool           `json:"is_active" yaml:"is_active"`
}

// LogStatus is the delivery status of one dispatch attempt.
type LogStatus string

const (
	LogSent      LogStatus = "sent"
	LogDelivered LogStatus = "delivered"
	LogFailed    LogStatus = "failed"
	LogPending   LogStatus = "pending"
)

// CommunicationLog is an append-only record of one dispatch attempt. Once
// written it is never mutated except for the sent -> delivered transition.
type CommunicationLog struct {
	ID          string            `json:"id"`
	CustomerID  string            `json:"customer_id"`
	TemplateID  string            `json:"template_id,omitempty"`
	Channel     Channel           `json:"channel"`
	Status      LogStatus         `json:"status"`
	Content     string            `json:"content"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	SentAt      time.Time         `json:"sent_at"`
	DeliveredAt *time.Time        `json:"delivered_at,omitempty"`
}
