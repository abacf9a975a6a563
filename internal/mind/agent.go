package mind

import (
	"context"
	"fmt"

	"agentmind/core/internal/nav"
	"agentmind/core/logging/cognition"
	"agentmind/core/logging/navigation"
)

const (
	defaultArriveEpsilon = 0.05
	diagnosticsCapacity  = 64
)

// Blackboard is the agent's working memory: timers decremented once per tick,
// counters, the current focus of attention, and free-form policy data. All
// per-agent state that would otherwise live on a (shared) State value belongs
// here.
type Blackboard struct {
	Timers     map[string]uint64
	Counters   map[string]int
	TargetID   string
	TargetNode int
	Data       map[string]any
}

func newBlackboard() Blackboard {
	return Blackboard{
		Timers:     make(map[string]uint64),
		Counters:   make(map[string]int),
		TargetNode: -1,
		Data:       make(map[string]any),
	}
}

// SetTimer arms a named tick-countdown timer.
func (b *Blackboard) SetTimer(name string, ticks uint64) {
	if b == nil || b.Timers == nil {
		return
	}
	b.Timers[name] = ticks
}

// TimerExpired reports whether a named timer has counted down to zero. An
// unarmed timer counts as expired.
func (b *Blackboard) TimerExpired(name string) bool {
	if b == nil || b.Timers == nil {
		return true
	}
	return b.Timers[name] == 0
}

func (b *Blackboard) tickTimers() {
	for name, remaining := range b.Timers {
		if remaining > 0 {
			b.Timers[name] = remaining - 1
		}
	}
}

// Hooks bundles the callbacks through which an agent reads and mutates its
// world representation. The cognition core never owns geometry; the scene
// collaborator that spawned the agent does.
type Hooks struct {
	Position    func() nav.Vec3
	SetPosition func(nav.Vec3)
}

// AgentConfig describes a new agent. Sensors and actuators are fixed at
// setup; the initial state becomes current without an Exit of a predecessor.
type AgentConfig struct {
	ID        string
	Hooks     Hooks
	Sensors   []Sensor
	Actuators []Actuator
	Initial   State
	Global    State
	Speed     float64
}

// Agent owns the current policy, an optional always-active global policy, a
// movement target, and the fixed sets of attached sensors and actuators. One
// Sense -> Decide -> Act cycle runs per tick.
type Agent struct {
	id      string
	manager *Manager

	current State
	global  State

	sensors   []Sensor
	actuators []Actuator

	pending []*Action

	Blackboard Blackboard
	hooks      Hooks
	speed      float64

	moveTarget    int
	hasMoveTarget bool
	route         []int
	routeStep     int

	diagnostics []string
}

// ID returns the agent's stable identity.
func (a *Agent) ID() string {
	if a == nil {
		return ""
	}
	return a.id
}

// Manager returns the manager that ticks this agent.
func (a *Agent) Manager() *Manager {
	if a == nil {
		return nil
	}
	return a.manager
}

// Position reads the agent's world position through its hooks.
func (a *Agent) Position() nav.Vec3 {
	if a == nil || a.hooks.Position == nil {
		return nav.Vec3{}
	}
	return a.hooks.Position()
}

// CurrentState exposes the active policy, primarily for diagnostics.
func (a *Agent) CurrentState() State {
	if a == nil {
		return nil
	}
	return a.current
}

// ChangeState swaps the current policy: Exit on the old state exactly once,
// then Enter on the new one. Re-entering the same state type is legal and
// re-runs both hooks.
func (a *Agent) ChangeState(next State) {
	if a == nil || next == nil {
		return
	}
	from := ""
	if a.current != nil {
		from = a.current.Name()
		a.current.Exit(a)
	}
	a.current = next
	a.current.Enter(a)

	if a.manager != nil {
		cognition.StateChanged(context.Background(), a.manager.publisher, a.manager.tick.Load(), a.id, cognition.StateChangedPayload{
			From: from,
			To:   next.Name(),
		})
	}
	a.Logf("state %s -> %s", from, next.Name())
}

// Sense invokes the named attached sensor. Absence of data reports false.
func (a *Agent) Sense(name string) (Percept, bool) {
	if a == nil {
		return nil, false
	}
	for _, sensor := range a.sensors {
		if sensor != nil && sensor.Name() == name {
			return sensor.Sense(a)
		}
	}
	return nil, false
}

// EmitAction queues an intent for the actuator pass of the current tick. The
// action stays pending until some actuator completes it.
func (a *Agent) EmitAction(action *Action) {
	if a == nil || action == nil {
		return
	}
	a.pending = append(a.pending, action)
}

// PendingActions returns the not-yet-discarded actions, for tests and
// diagnostics.
func (a *Agent) PendingActions() []*Action {
	if a == nil {
		return nil
	}
	out := make([]*Action, len(a.pending))
	copy(out, a.pending)
	return out
}

// SetMoveTarget points navigation at a graph node. The path is produced and
// consumed incrementally on subsequent ticks until arrival.
func (a *Agent) SetMoveTarget(node int) {
	if a == nil {
		return
	}
	if a.hasMoveTarget && a.moveTarget == node {
		return
	}
	a.moveTarget = node
	a.hasMoveTarget = true
	a.route = nil
	a.routeStep = 0
}

// ClearMoveTarget cancels in-progress navigation. This is the cancellation
// mechanism; nothing else about movement is cancellable because nothing
// blocks.
func (a *Agent) ClearMoveTarget() {
	if a == nil {
		return
	}
	a.hasMoveTarget = false
	a.route = nil
	a.routeStep = 0
}

// MoveTarget reports the navigation goal, when one is set.
func (a *Agent) MoveTarget() (int, bool) {
	if a == nil {
		return 0, false
	}
	return a.moveTarget, a.hasMoveTarget
}

// handleEvent offers the event to the current state first and, only when the
// current state leaves it unhandled, to the global state. Unhandled events
// are dropped silently.
func (a *Agent) handleEvent(event Event) bool {
	if a == nil {
		return false
	}
	if a.current != nil && a.current.HandleEvent(a, event) {
		return true
	}
	if a.global != nil && a.global.HandleEvent(a, event) {
		return true
	}
	return false
}

// Logf appends a message to the agent's rolling diagnostics log.
func (a *Agent) Logf(format string, args ...any) {
	if a == nil {
		return
	}
	a.diagnostics = append(a.diagnostics, fmt.Sprintf(format, args...))
	if len(a.diagnostics) > diagnosticsCapacity {
		a.diagnostics = a.diagnostics[len(a.diagnostics)-diagnosticsCapacity:]
	}
}

// Diagnostics returns a copy of the rolling log.
func (a *Agent) Diagnostics() []string {
	if a == nil {
		return nil
	}
	out := make([]string, len(a.diagnostics))
	copy(out, a.diagnostics)
	return out
}

// tick runs one full Sense -> Decide -> Act cycle. Global policy executes
// before the current one so the current state can override global intent.
func (a *Agent) tick(tick uint64, delta float64) {
	a.Blackboard.tickTimers()

	if a.global != nil {
		a.global.Execute(a)
	}
	if a.current != nil {
		a.current.Execute(a)
	}

	a.dispatchActions(tick)
	a.stepMovement(tick, delta)
}

// dispatchActions offers every pending, incomplete action to the attached
// actuators in attachment order. The first actuator to report true owns the
// completion; later actuators see the flag and are skipped. Unrecognized
// actions survive the tick and are retried.
func (a *Agent) dispatchActions(tick uint64) {
	if len(a.pending) == 0 {
		return
	}
	remaining := a.pending[:0]
	for _, action := range a.pending {
		if action == nil {
			continue
		}
		for _, actuator := range a.actuators {
			if action.Completed() {
				break
			}
			if actuator == nil {
				continue
			}
			if actuator.Act(a, action) {
				action.Complete()
			}
		}
		if action.Completed() {
			a.publishAction(tick, action, true)
			continue
		}
		a.publishAction(tick, action, false)
		remaining = append(remaining, action)
	}
	a.pending = remaining
}

func (a *Agent) publishAction(tick uint64, action *Action, completed bool) {
	if a.manager == nil {
		return
	}
	payload := cognition.ActionPayload{Kind: string(action.Kind), Target: action.TargetID}
	if completed {
		if a.manager.metrics != nil {
			a.manager.metrics.Add(MetricActionsCompleted, 1)
		}
		cognition.ActionCompleted(context.Background(), a.manager.publisher, tick, a.id, payload)
		return
	}
	cognition.ActionStalled(context.Background(), a.manager.publisher, tick, a.id, payload)
}

// stepMovement consumes the active route one waypoint segment per tick,
// resolving the route lazily from the lookup table with a direct-search
// fallback for uncovered pairs.
func (a *Agent) stepMovement(tick uint64, delta float64) {
	if !a.hasMoveTarget || a.manager == nil {
		return
	}
	if a.hooks.Position == nil || a.hooks.SetPosition == nil {
		return
	}

	if a.route == nil && !a.resolveRoute(tick) {
		return
	}

	budget := a.speed * delta
	position := a.hooks.Position()
	for budget > 0 && a.routeStep < len(a.route) {
		waypoint, ok := a.manager.NodePosition(a.route[a.routeStep])
		if !ok {
			a.ClearMoveTarget()
			return
		}
		offset := waypoint.Sub(position)
		distance := offset.Length()
		if distance <= defaultArriveEpsilon {
			a.routeStep++
			continue
		}
		if distance <= budget {
			position = waypoint
			budget -= distance
			a.routeStep++
			continue
		}
		scale := budget / distance
		position = nav.Vec3{
			X: position.X + offset.X*scale,
			Y: position.Y + offset.Y*scale,
			Z: position.Z + offset.Z*scale,
		}
		budget = 0
	}
	a.hooks.SetPosition(position)

	if a.routeStep >= len(a.route) {
		a.Logf("arrived at node %d", a.moveTarget)
		a.ClearMoveTarget()
	}
}

// resolveRoute produces the waypoint list for the current target. Reports
// false when the target is unreachable, in which case the target is cleared
// and the calling state picks an alternative next tick.
func (a *Agent) resolveRoute(tick uint64) bool {
	origin, ok := a.manager.NearestNode(a.Position())
	if !ok {
		a.ClearMoveTarget()
		return false
	}
	nodes, cost, fromTable, ok := a.manager.Route(origin, a.moveTarget)
	if !ok {
		navigation.PathFailed(context.Background(), a.manager.publisher, tick, a.id, navigation.PathFailedPayload{
			Origin:      origin,
			Destination: a.moveTarget,
		})
		a.Logf("no path from node %d to node %d", origin, a.moveTarget)
		a.ClearMoveTarget()
		return false
	}
	navigation.PathResolved(context.Background(), a.manager.publisher, tick, a.id, navigation.PathResolvedPayload{
		Origin:      origin,
		Destination: a.moveTarget,
		Cost:        cost,
		Hops:        len(nodes),
		FromTable:   fromTable,
	})
	a.route = nodes
	a.routeStep = 0
	return true
}
