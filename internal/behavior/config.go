package behavior

// Config is the authoring format for a data-driven policy. Files are YAML;
// the JSON tags drive the published schema.
type Config struct {
	AgentType string        `yaml:"agent_type" json:"agent_type"`
	Initial   string        `yaml:"initial,omitempty" json:"initial,omitempty"`
	Defaults  Defaults      `yaml:"blackboard_defaults,omitempty" json:"blackboard_defaults,omitempty"`
	States    []StateConfig `yaml:"states" json:"states"`
}

// Defaults seeds an agent's blackboard at spawn. Only keys the agent has not
// already set are applied.
type Defaults struct {
	Timers   map[string]uint64 `yaml:"timers,omitempty" json:"timers,omitempty"`
	Counters map[string]int    `yaml:"counters,omitempty" json:"counters,omitempty"`
}

// StateConfig authors one named state. OnEnter actions run once per entry;
// Actions run every decision; Transitions are checked in order before the
// actions run.
type StateConfig struct {
	ID          string             `yaml:"id" json:"id"`
	OnEnter     []ActionConfig     `yaml:"on_enter,omitempty" json:"on_enter,omitempty"`
	Actions     []ActionConfig     `yaml:"actions,omitempty" json:"actions,omitempty"`
	Transitions []TransitionConfig `yaml:"transitions,omitempty" json:"transitions,omitempty"`
}

// ActionConfig authors one action. Do selects the operation; the remaining
// fields parameterize it.
type ActionConfig struct {
	Do     string `yaml:"do" json:"do"`
	Node   *int   `yaml:"node,omitempty" json:"node,omitempty"`
	Sensor string `yaml:"sensor,omitempty" json:"sensor,omitempty"`
	Kind   string `yaml:"kind,omitempty" json:"kind,omitempty"`
	Timer  string `yaml:"timer,omitempty" json:"timer,omitempty"`
	Ticks  uint64 `yaml:"ticks,omitempty" json:"ticks,omitempty"`
}

// TransitionConfig authors one transition. Exactly one of If (a guard
// expression checked every decision) and On (an event type) selects the
// trigger; To names the destination state.
type TransitionConfig struct {
	If string `yaml:"if,omitempty" json:"if,omitempty"`
	On string `yaml:"on,omitempty" json:"on,omitempty"`
	To string `yaml:"to" json:"to"`
}
