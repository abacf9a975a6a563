package cognition

import (
	"context"

	"agentmind/core/logging"
)

const (
	// EventStateChanged is emitted when an agent swaps its current policy.
	EventStateChanged logging.EventType = "cognition.state_changed"
	// EventActionCompleted is emitted when an actuator completes an action.
	EventActionCompleted logging.EventType = "cognition.action_completed"
	// EventActionStalled is emitted when a pending action survives a full
	// tick without any attached actuator recognizing it.
	EventActionStalled logging.EventType = "cognition.action_stalled"
)

// StateChangedPayload records a policy transition.
type StateChangedPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// StateChanged publishes a debug event for a state transition.
func StateChanged(ctx context.Context, pub logging.Publisher, tick uint64, agentID string, payload StateChangedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventStateChanged,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: agentID, Kind: logging.EntityKindAgent},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCognition,
		Payload:  payload,
	})
}

// ActionPayload identifies an action by kind and target.
type ActionPayload struct {
	Kind   string `json:"kind"`
	Target string `json:"target,omitempty"`
}

// ActionCompleted publishes a debug event for a completed action.
func ActionCompleted(ctx context.Context, pub logging.Publisher, tick uint64, agentID string, payload ActionPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventActionCompleted,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: agentID, Kind: logging.EntityKindAgent},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCognition,
		Payload:  payload,
	})
}

// ActionStalled publishes a warning for an action no actuator recognizes.
func ActionStalled(ctx context.Context, pub logging.Publisher, tick uint64, agentID string, payload ActionPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventActionStalled,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: agentID, Kind: logging.EntityKindAgent},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryCognition,
		Payload:  payload,
	})
}
