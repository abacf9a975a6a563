package mind

// EventType names a class of event delivered to agent state machines.
type EventType string

// Event is a typed message routed to an agent by the manager. Events are
// plain values; routing is explicit, there is no broadcast registry.
type Event struct {
	Type    EventType
	Source  string
	Payload any
}
