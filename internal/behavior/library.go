package behavior

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/expr-lang/expr"
	"gopkg.in/yaml.v3"

	"agentmind/core/internal/mind"
)

//go:embed configs/*.yaml
var embeddedConfigs embed.FS

// GlobalLibrary provides the default authoring configs bundled with the
// module.
var GlobalLibrary = MustLoadLibrary()

// Library stores compiled policy configurations indexed by agent type.
type Library struct {
	byType map[string]*CompiledConfig
}

// MustLoadLibrary loads the embedded authoring configs or panics on failure.
func MustLoadLibrary() *Library {
	lib, err := LoadLibrary()
	if err != nil {
		panic(fmt.Errorf("behavior: load library: %w", err))
	}
	return lib
}

// LoadLibrary compiles the embedded authoring configs into a library.
func LoadLibrary() (*Library, error) {
	lib := &Library{byType: make(map[string]*CompiledConfig)}
	if err := lib.loadFS(embeddedConfigs, "configs"); err != nil {
		return nil, err
	}
	return lib, nil
}

// LoadLibraryDir compiles every *.yaml file in an external authoring
// directory. Entries with an agent type already present replace the earlier
// compilation.
func LoadLibraryDir(dir string) (*Library, error) {
	lib := &Library{byType: make(map[string]*CompiledConfig)}
	if err := lib.loadFS(os.DirFS(dir), "."); err != nil {
		return nil, err
	}
	return lib, nil
}

// Merge overlays another library's configs on top of this one.
func (l *Library) Merge(other *Library) {
	if l == nil || other == nil {
		return
	}
	for agentType, compiled := range other.byType {
		l.byType[agentType] = compiled
	}
}

// Clone returns an independent library with the same compiled configs.
// Compiled configs are immutable after load, so sharing them is safe; the
// index itself is copied so overlays never touch the source library.
func (l *Library) Clone() *Library {
	clone := &Library{byType: make(map[string]*CompiledConfig)}
	if l == nil {
		return clone
	}
	for agentType, compiled := range l.byType {
		clone.byType[agentType] = compiled
	}
	return clone
}

func (l *Library) loadFS(fsys fs.FS, root string) error {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return fmt.Errorf("behavior: read configs: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		name := entry.Name()
		path := name
		if root != "." {
			path = root + "/" + name
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("behavior: read %q: %w", name, err)
		}
		authoring, err := ParseConfig(data)
		if err != nil {
			return fmt.Errorf("behavior: decode %q: %w", name, err)
		}
		compiled, err := Compile(authoring)
		if err != nil {
			return fmt.Errorf("behavior: compile %q: %w", name, err)
		}
		l.byType[compiled.agentType] = compiled
	}
	return nil
}

// ConfigForType retrieves the compiled configuration for an agent type.
func (l *Library) ConfigForType(t string) *CompiledConfig {
	if l == nil {
		return nil
	}
	return l.byType[normalizeName(t)]
}

// Types lists the known agent types in sorted order.
func (l *Library) Types() []string {
	if l == nil {
		return nil
	}
	out := make([]string, 0, len(l.byType))
	for agentType := range l.byType {
		out = append(out, agentType)
	}
	sort.Strings(out)
	return out
}

// ParseConfig decodes one YAML authoring document.
func ParseConfig(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// CompiledConfig is the runtime state machine produced from one authoring
// configuration. Its states are shared across every agent of the type;
// per-agent values live on the agent's blackboard.
type CompiledConfig struct {
	agentType string
	initial   int
	states    []*Scripted
	defaults  Defaults
}

// Compile validates an authoring config and compiles its guard expressions.
// Any unknown action, dangling state reference, or guard that fails to
// compile rejects the whole config.
func Compile(cfg Config) (*CompiledConfig, error) {
	agentType := normalizeName(cfg.AgentType)
	if agentType == "" {
		return nil, fmt.Errorf("missing agent_type")
	}
	if len(cfg.States) == 0 {
		return nil, fmt.Errorf("no states defined")
	}

	compiled := &CompiledConfig{
		agentType: agentType,
		defaults:  cfg.Defaults,
		states:    make([]*Scripted, 0, len(cfg.States)),
	}

	stateIndex := make(map[string]int, len(cfg.States))
	for idx, state := range cfg.States {
		name := normalizeName(state.ID)
		if name == "" {
			return nil, fmt.Errorf("state %d missing id", idx)
		}
		if _, exists := stateIndex[name]; exists {
			return nil, fmt.Errorf("duplicate state %q", state.ID)
		}
		stateIndex[name] = idx
	}

	compiled.initial = 0
	if cfg.Initial != "" {
		idx, ok := stateIndex[normalizeName(cfg.Initial)]
		if !ok {
			return nil, fmt.Errorf("initial references unknown state %q", cfg.Initial)
		}
		compiled.initial = idx
	}

	for _, state := range cfg.States {
		scripted := &Scripted{
			name:   normalizeName(state.ID),
			config: compiled,
		}
		for _, action := range state.OnEnter {
			op, err := compileAction(action)
			if err != nil {
				return nil, fmt.Errorf("state %q on_enter: %w", state.ID, err)
			}
			scripted.onEnter = append(scripted.onEnter, op)
		}
		for _, action := range state.Actions {
			op, err := compileAction(action)
			if err != nil {
				return nil, fmt.Errorf("state %q action: %w", state.ID, err)
			}
			scripted.actions = append(scripted.actions, op)
		}
		for _, transition := range state.Transitions {
			compiledTr, err := compileTransition(transition, stateIndex)
			if err != nil {
				return nil, fmt.Errorf("state %q transition: %w", state.ID, err)
			}
			scripted.transitions = append(scripted.transitions, compiledTr)
		}
		compiled.states = append(compiled.states, scripted)
	}

	return compiled, nil
}

func compileAction(cfg ActionConfig) (compiledAction, error) {
	op, err := parseActionOp(cfg.Do)
	if err != nil {
		return compiledAction{}, err
	}
	action := compiledAction{op: op, node: -1}
	switch op {
	case opMoveToNode:
		if cfg.Node == nil {
			return compiledAction{}, fmt.Errorf("move_to_node requires a node")
		}
		action.node = *cfg.Node
	case opMoveToNearest:
		if cfg.Sensor == "" {
			return compiledAction{}, fmt.Errorf("move_to_nearest requires a sensor")
		}
		action.sensor = cfg.Sensor
	case opPerform:
		if cfg.Kind == "" {
			return compiledAction{}, fmt.Errorf("perform requires a kind")
		}
		action.kind = mind.ActionKind(cfg.Kind)
	case opWait:
		if cfg.Timer == "" {
			return compiledAction{}, fmt.Errorf("wait requires a timer name")
		}
		action.timer = cfg.Timer
		action.ticks = cfg.Ticks
	}
	return action, nil
}

func compileTransition(cfg TransitionConfig, stateIndex map[string]int) (compiledTransition, error) {
	target := normalizeName(cfg.To)
	if target == "" {
		return compiledTransition{}, fmt.Errorf("missing target")
	}
	toState, ok := stateIndex[target]
	if !ok {
		return compiledTransition{}, fmt.Errorf("references unknown state %q", cfg.To)
	}

	hasGuard := strings.TrimSpace(cfg.If) != ""
	hasEvent := strings.TrimSpace(cfg.On) != ""
	if hasGuard == hasEvent {
		return compiledTransition{}, fmt.Errorf("needs exactly one of if and on")
	}

	transition := compiledTransition{toState: toState}
	if hasEvent {
		transition.event = mind.EventType(strings.TrimSpace(cfg.On))
		return transition, nil
	}

	program, err := expr.Compile(cfg.If, expr.Env(GuardEnv{}), expr.AsBool())
	if err != nil {
		return compiledTransition{}, fmt.Errorf("guard %q: %w", cfg.If, err)
	}
	transition.guard = program
	return transition, nil
}

func parseActionOp(name string) (actionOp, error) {
	switch normalizeName(name) {
	case "move_to_node":
		return opMoveToNode, nil
	case "move_to_nearest":
		return opMoveToNearest, nil
	case "perform":
		return opPerform, nil
	case "wait":
		return opWait, nil
	case "clear_target":
		return opClearTarget, nil
	default:
		return 0, fmt.Errorf("unknown action %q", name)
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// AgentType reports the agent type the config was authored for.
func (c *CompiledConfig) AgentType() string {
	if c == nil {
		return ""
	}
	return c.agentType
}

// Initial returns the entry state, ready to hand to the agent manager.
func (c *CompiledConfig) Initial() mind.State {
	if c == nil || len(c.states) == 0 {
		return nil
	}
	return c.states[c.initial]
}

// State looks up a compiled state by name.
func (c *CompiledConfig) State(name string) (mind.State, bool) {
	if c == nil {
		return nil, false
	}
	key := normalizeName(name)
	for _, state := range c.states {
		if state.name == key {
			return state, true
		}
	}
	return nil, false
}

// StateNames lists the compiled state names in authoring order.
func (c *CompiledConfig) StateNames() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.states))
	for _, state := range c.states {
		out = append(out, state.name)
	}
	return out
}

// ApplyDefaults seeds the blackboard with the authored defaults. Keys the
// agent already carries are left alone.
func (c *CompiledConfig) ApplyDefaults(bb *mind.Blackboard) {
	if c == nil || bb == nil {
		return
	}
	for name, ticks := range c.defaults.Timers {
		if _, exists := bb.Timers[name]; !exists {
			bb.Timers[name] = ticks
		}
	}
	for name, value := range c.defaults.Counters {
		if _, exists := bb.Counters[name]; !exists {
			bb.Counters[name] = value
		}
	}
}
