package rules

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/careline/intake-platform/internal/comms"
	"github.com/careline/intake-platform/internal/domain"
	"github.com/careline/intake-platform/internal/pkg/logger"
)

// MessageSender is the dispatch surface the engine needs from the
// communication layer.
type MessageSender interface {
	SendLifecycleMessage(ctx context.Context, customerID string, stage domain.LifecycleStage, vars map[string]interface{}, overridePreferences bool) (bool, error)
	SendMultiChannelNotification(ctx context.Context, customerID string, msg comms.Message, priority domain.Priority) (bool, error)
}

// StageUpdater writes explicit lifecycle-stage overrides.
type StageUpdater interface {
	UpdateStage(ctx context.Context, customerID string, stage domain.LifecycleStage) error
}

// TaskCreator receives follow-up tasks produced by create_task actions.
// The platform's case-management system implements this; the default is
// a log-only hook.
type TaskCreator interface {
	CreateTask(ctx context.Context, customerID string, task domain.CreateTask) error
}

// SegmentAssigner receives segment assignments produced by
// assign_segment actions.
type SegmentAssigner interface {
	AssignSegment(ctx context.Context, customerID, segment string) error
}

type logTaskCreator struct{}

func (logTaskCreator) CreateTask(_ context.Context, customerID string, task domain.CreateTask) error {
	logger.Info("task created",
		"customer_id", customerID, "title", task.Title, "assignee", task.Assignee)
	return nil
}

type logSegmentAssigner struct{}

func (logSegmentAssigner) AssignSegment(_ context.Context, customerID, segment string) error {
	logger.Info("segment assigned", "customer_id", customerID, "segment", segment)
	return nil
}

// runAction dispatches exhaustively on the action's concrete type.
func (e *Engine) runAction(ctx context.Context, customerID string, action domain.Action) error {
	switch a := action.(type) {
	case domain.SendCommunication:
		return e.runSendCommunication(ctx, customerID, a)
	case domain.UpdateStage:
		return e.stages.UpdateStage(ctx, customerID, a.Stage)
	case domain.CreateTask:
		return e.tasks.CreateTask(ctx, customerID, a)
	case domain.AssignSegment:
		return e.segments.AssignSegment(ctx, customerID, a.Segment)
	case domain.TriggerWebhook:
		return e.callWebhook(ctx, customerID, a)
	default:
		return fmt.Errorf("%w: unknown action kind %T", ErrValidation, action)
	}
}

// runSendCommunication routes to the lifecycle or multi-channel path. A
// suppressed or unmatched send is a logged no-op, not an action failure.
func (e *Engine) runSendCommunication(ctx context.Context, customerID string, a domain.SendCommunication) error {
	if a.Stage != "" {
		vars := make(map[string]interface{}, len(a.Variables))
		for k, v := range a.Variables {
			vars[k] = v
		}
		sent, err := e.sender.SendLifecycleMessage(ctx, customerID, a.Stage, vars, a.Override)
		if err != nil {
			return err
		}
		if !sent {
			logger.Debug("lifecycle message not dispatched",
				"customer_id", customerID, "stage", string(a.Stage))
		}
		return nil
	}

	priority := a.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	_, err := e.sender.SendMultiChannelNotification(ctx, customerID,
		comms.Message{Body: a.Message}, priority)
	return err
}

// callWebhook posts the action payload plus customer context to the
// configured URL through the retrying client.
func (e *Engine) callWebhook(ctx context.Context, customerID string, a domain.TriggerWebhook) error {
	if a.URL == "" {
		return fmt.Errorf("%w: webhook action has no URL", ErrValidation)
	}

	body := map[string]any{"customer_id": customerID}
	for k, v := range a.Payload {
		body[k] = v
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.URL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.webhooks.Do(req)
	if err != nil {
		return fmt.Errorf("webhook %s: %w", a.URL, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook %s returned status %d", a.URL, resp.StatusCode)
	}
	return nil
}
