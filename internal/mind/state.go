package mind

// State is a decision policy. States are logically stateless singletons:
// per-agent variability lives on the agent's blackboard, so one State value
// may serve many agents concurrently under the single-threaded tick model.
//
// Enter and Exit run exactly once around a policy's time as the current
// state; neither is ever invoked for an agent's global state. HandleEvent
// reports whether the event was consumed.
type State interface {
	Name() string
	Enter(agent *Agent)
	Execute(agent *Agent)
	Exit(agent *Agent)
	HandleEvent(agent *Agent, event Event) bool
}

// NopState provides no-op lifecycle methods for embedding in policies that
// only care about Execute.
type NopState struct{}

func (NopState) Enter(*Agent)                  {}
func (NopState) Execute(*Agent)                {}
func (NopState) Exit(*Agent)                   {}
func (NopState) HandleEvent(*Agent, Event) bool { return false }
