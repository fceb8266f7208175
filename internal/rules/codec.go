package rules

import (
	"fmt"

	"github.com/careline/intake-platform/internal/domain"
)

// ActionSpec is the wire form of an action, used by the HTTP API and the
// YAML rule catalog. Type selects the variant; Params carries its fields.
type ActionSpec struct {
	Type   string         `json:"type" yaml:"type"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// ParseAction converts a wire spec into the typed action variant.
func ParseAction(spec ActionSpec) (domain.Action, error) {
	p := params(spec.Params)
	switch domain.ActionKind(spec.Type) {
	case domain.ActionSendCommunication:
		a := domain.SendCommunication{
			Stage:    domain.LifecycleStage(p.str("stage")),
			Message:  p.str("message"),
			Priority: domain.Priority(p.str("priority")),
			Override: p.boolean("override_preferences"),
		}
		if vars, ok := spec.Params["variables"].(map[string]any); ok {
			a.Variables = make(map[string]string, len(vars))
			for k, v := range vars {
				a.Variables[k] = fmt.Sprintf("%v", v)
			}
		}
		return a, nil
	case domain.ActionUpdateStage:
		stage := p.str("stage")
		if stage == "" {
			return nil, fmt.Errorf("%w: update_stage requires a stage", ErrValidation)
		}
		return domain.UpdateStage{Stage: domain.LifecycleStage(stage)}, nil
	case domain.ActionCreateTask:
		title := p.str("title")
		if title == "" {
			return nil, fmt.Errorf("%w: create_task requires a title", ErrValidation)
		}
		return domain.CreateTask{
			Title:     title,
			Assignee:  p.str("assignee"),
			DueInDays: p.integer("due_in_days"),
		}, nil
	case domain.ActionTriggerWebhook:
		url := p.str("url")
		if url == "" {
			return nil, fmt.Errorf("%w: trigger_webhook requires a url", ErrValidation)
		}
		payload, _ := spec.Params["payload"].(map[string]any)
		return domain.TriggerWebhook{URL: url, Payload: payload}, nil
	case domain.ActionAssignSegment:
		segment := p.str("segment")
		if segment == "" {
			return nil, fmt.Errorf("%w: assign_segment requires a segment", ErrValidation)
		}
		return domain.AssignSegment{Segment: segment}, nil
	default:
		return nil, fmt.Errorf("%w: unknown action type %q", ErrValidation, spec.Type)
	}
}

// EncodeAction converts a typed action back to its wire form.
func EncodeAction(a domain.Action) ActionSpec {
	switch v := a.(type) {
	case domain.SendCommunication:
		params := map[string]any{}
		if v.Stage != "" {
			params["stage"] = string(v.Stage)
		}
		if v.Message != "" {
			params["message"] = v.Message
		}
		if v.Priority != "" {
			params["priority"] = string(v.Priority)
		}
		if v.Override {
			params["override_preferences"] = true
		}
		if len(v.Variables) > 0 {
			vars := make(map[string]any, len(v.Variables))
			for k, val := range v.Variables {
				vars[k] = val
			}
			params["variables"] = vars
		}
		return ActionSpec{Type: string(domain.ActionSendCommunication), Params: params}
	case domain.UpdateStage:
		return ActionSpec{Type: string(domain.ActionUpdateStage),
			Params: map[string]any{"stage": string(v.Stage)}}
	case domain.CreateTask:
		return ActionSpec{Type: string(domain.ActionCreateTask), Params: map[string]any{
			"title": v.Title, "assignee": v.Assignee, "due_in_days": v.DueInDays}}
	case domain.TriggerWebhook:
		return ActionSpec{Type: string(domain.ActionTriggerWebhook), Params: map[string]any{
			"url": v.URL, "payload": v.Payload}}
	case domain.AssignSegment:
		return ActionSpec{Type: string(domain.ActionAssignSegment),
			Params: map[string]any{"segment": v.Segment}}
	default:
		return ActionSpec{Type: fmt.Sprintf("%T", a)}
	}
}

type params map[string]any

func (p params) str(key string) string {
	if v, ok := p[key]; ok {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

func (p params) boolean(key string) bool {
	b, _ := p[key].(bool)
	return b
}

func (p params) integer(key string) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
