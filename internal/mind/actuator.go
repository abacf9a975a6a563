package mind

// ActionKind names a class of intent.
type ActionKind string

// Action describes an intent emitted by a decision policy for an actuator to
// fulfill. The completion flag is set at most once; completed actions are
// discarded at the end of the tick while incomplete ones are retried.
type Action struct {
	Kind       ActionKind
	TargetNode int
	TargetID   string
	Payload    any

	complete bool
}

// NewAction constructs an incomplete action of the provided kind.
func NewAction(kind ActionKind) *Action {
	return &Action{Kind: kind, TargetNode: -1}
}

// Complete marks the action done. Idempotent.
func (a *Action) Complete() {
	if a == nil {
		return
	}
	a.complete = true
}

// Completed reports whether some actuator already finished the action.
func (a *Action) Completed() bool {
	return a != nil && a.complete
}

// Actuator attempts to execute a requested action against the world. An
// actuator offered an action kind it does not recognize returns false without
// side effects; the first actuator to return true owns the completion.
type Actuator interface {
	Name() string
	Act(agent *Agent, action *Action) bool
}
