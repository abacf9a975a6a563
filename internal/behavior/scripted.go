package behavior

import (
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"agentmind/core/internal/mind"
)

type actionOp uint8

const (
	opMoveToNode actionOp = iota
	opMoveToNearest
	opPerform
	opWait
	opClearTarget
)

type compiledAction struct {
	op     actionOp
	node   int
	sensor string
	kind   mind.ActionKind
	timer  string
	ticks  uint64
}

type compiledTransition struct {
	guard   *vm.Program
	event   mind.EventType
	toState int
}

// NodePercept lets domain percepts expose the graph node they refer to, so
// move_to_nearest can navigate toward whatever a sensor reported. A plain int
// percept is accepted as a node index directly.
type NodePercept interface {
	NodeIndex() int
}

// Scripted is a compiled authoring state. It holds no per-agent data and is
// shared by every agent running the same config; per-agent values live on the
// blackboard.
type Scripted struct {
	name        string
	config      *CompiledConfig
	onEnter     []compiledAction
	actions     []compiledAction
	transitions []compiledTransition
}

// Ensure Scripted implements mind.State.
var _ mind.State = (*Scripted)(nil)

func (s *Scripted) Name() string { return s.name }

func (s *Scripted) Enter(agent *mind.Agent) {
	for _, action := range s.onEnter {
		s.runAction(agent, action)
	}
}

// Execute checks the guard transitions in authoring order; the first guard
// that evaluates true wins and the per-tick actions of the old state are
// skipped. With no transition fired, the per-tick actions run.
func (s *Scripted) Execute(agent *mind.Agent) {
	for _, transition := range s.transitions {
		if transition.guard == nil {
			continue
		}
		fired, err := evalGuard(transition.guard, agent)
		if err != nil {
			agent.Logf("guard error in state %s: %v", s.name, err)
			continue
		}
		if fired {
			agent.ChangeState(s.config.states[transition.toState])
			return
		}
	}
	for _, action := range s.actions {
		s.runAction(agent, action)
	}
}

func (s *Scripted) Exit(*mind.Agent) {}

// HandleEvent consumes events that an authored transition names; everything
// else is left for the global state.
func (s *Scripted) HandleEvent(agent *mind.Agent, event mind.Event) bool {
	for _, transition := range s.transitions {
		if transition.event == "" || transition.event != event.Type {
			continue
		}
		agent.ChangeState(s.config.states[transition.toState])
		return true
	}
	return false
}

func (s *Scripted) runAction(agent *mind.Agent, action compiledAction) {
	switch action.op {
	case opMoveToNode:
		agent.Blackboard.TargetNode = action.node
		agent.SetMoveTarget(action.node)
	case opMoveToNearest:
		percept, ok := agent.Sense(action.sensor)
		if !ok {
			return
		}
		node, ok := perceptNode(percept)
		if !ok {
			agent.Logf("sensor %s percept carries no node", action.sensor)
			return
		}
		agent.Blackboard.TargetNode = node
		agent.SetMoveTarget(node)
	case opPerform:
		if hasPending(agent, action.kind) {
			return
		}
		intent := mind.NewAction(action.kind)
		intent.TargetNode = agent.Blackboard.TargetNode
		intent.TargetID = agent.Blackboard.TargetID
		agent.EmitAction(intent)
	case opWait:
		agent.Blackboard.SetTimer(action.timer, action.ticks)
	case opClearTarget:
		agent.ClearMoveTarget()
		agent.Blackboard.TargetID = ""
		agent.Blackboard.TargetNode = -1
	}
}

func perceptNode(percept mind.Percept) (int, bool) {
	switch v := percept.(type) {
	case int:
		return v, true
	case NodePercept:
		return v.NodeIndex(), true
	default:
		return 0, false
	}
}

func hasPending(agent *mind.Agent, kind mind.ActionKind) bool {
	for _, action := range agent.PendingActions() {
		if action != nil && action.Kind == kind {
			return true
		}
	}
	return false
}

// GuardEnv is the evaluation environment visible to transition guards. Every
// exported method can be called from a guard expression.
type GuardEnv struct {
	agent *mind.Agent
}

func evalGuard(program *vm.Program, agent *mind.Agent) (bool, error) {
	result, err := expr.Run(program, GuardEnv{agent: agent})
	if err != nil {
		return false, err
	}
	fired, ok := result.(bool)
	return ok && fired, nil
}

// Tick reports the most recently processed tick number.
func (e GuardEnv) Tick() uint64 {
	return e.agent.Manager().CurrentTick()
}

// TimerExpired reports whether a named blackboard timer reached zero.
func (e GuardEnv) TimerExpired(name string) bool {
	return e.agent.Blackboard.TimerExpired(name)
}

// Counter reads a named blackboard counter.
func (e GuardEnv) Counter(name string) int {
	return e.agent.Blackboard.Counters[name]
}

// Data reads a free-form blackboard value; absent keys yield nil.
func (e GuardEnv) Data(name string) any {
	return e.agent.Blackboard.Data[name]
}

// Sense queries a named sensor; absence yields nil.
func (e GuardEnv) Sense(name string) any {
	percept, ok := e.agent.Sense(name)
	if !ok {
		return nil
	}
	return percept
}

// HasPercept reports whether a named sensor currently produces data.
func (e GuardEnv) HasPercept(name string) bool {
	_, ok := e.agent.Sense(name)
	return ok
}

// Moving reports whether the agent has an active navigation target.
func (e GuardEnv) Moving() bool {
	_, moving := e.agent.MoveTarget()
	return moving
}

// HasTarget reports whether the blackboard points at a target of any kind.
func (e GuardEnv) HasTarget() bool {
	return e.agent.Blackboard.TargetID != "" || e.agent.Blackboard.TargetNode >= 0
}

// HasPending reports whether an action of the given kind is still awaiting an
// actuator.
func (e GuardEnv) HasPending(kind string) bool {
	return hasPending(e.agent, mind.ActionKind(kind))
}

// TargetCost reports the route cost from the agent to the blackboard target
// node, or -1 when there is no target or no route.
func (e GuardEnv) TargetCost() float64 {
	target := e.agent.Blackboard.TargetNode
	if target < 0 {
		return -1
	}
	manager := e.agent.Manager()
	origin, ok := manager.NearestNode(e.agent.Position())
	if !ok {
		return -1
	}
	cost, ok := manager.RouteCost(origin, target)
	if !ok {
		return -1
	}
	return cost
}
