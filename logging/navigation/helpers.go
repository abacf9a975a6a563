package navigation

import (
	"context"

	"agentmind/core/logging"
)

const (
	// EventPathResolved is emitted when a movement target resolves to a path.
	EventPathResolved logging.EventType = "navigation.path_resolved"
	// EventPathFailed is emitted when no path exists to a movement target.
	EventPathFailed logging.EventType = "navigation.path_failed"
	// EventTableRebuilt is emitted after the manager replaces the lookup table.
	EventTableRebuilt logging.EventType = "navigation.table_rebuilt"
)

// PathResolvedPayload describes a resolved route.
type PathResolvedPayload struct {
	Origin      int     `json:"origin"`
	Destination int     `json:"destination"`
	Cost        float64 `json:"cost"`
	Hops        int     `json:"hops"`
	FromTable   bool    `json:"fromTable"`
}

// PathResolved publishes a debug event for a successful route resolution.
func PathResolved(ctx context.Context, pub logging.Publisher, tick uint64, agentID string, payload PathResolvedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPathResolved,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: agentID, Kind: logging.EntityKindAgent},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryNavigation,
		Payload:  payload,
	})
}

// PathFailedPayload describes an unreachable movement target.
type PathFailedPayload struct {
	Origin      int `json:"origin"`
	Destination int `json:"destination"`
}

// PathFailed publishes a warning for an unreachable target. Search failure is
// a legitimate outcome; the warning exists for operators, not control flow.
func PathFailed(ctx context.Context, pub logging.Publisher, tick uint64, agentID string, payload PathFailedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventPathFailed,
		Tick:     tick,
		Actor:    logging.EntityRef{ID: agentID, Kind: logging.EntityKindAgent},
		Severity: logging.SeverityWarn,
		Category: logging.CategoryNavigation,
		Payload:  payload,
	})
}

// TableRebuiltPayload summarizes a lookup table rebuild.
type TableRebuiltPayload struct {
	Nodes  int `json:"nodes"`
	Routes int `json:"routes"`
}

// TableRebuilt publishes an info event after a wholesale table replacement.
func TableRebuilt(ctx context.Context, pub logging.Publisher, tick uint64, payload TableRebuiltPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTableRebuilt,
		Tick:     tick,
		Actor:    logging.EntityRef{Kind: logging.EntityKindManager},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryNavigation,
		Payload:  payload,
	})
}
