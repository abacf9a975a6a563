package cleaners

import (
	"agentmind/core/internal/mind"
	"agentmind/core/internal/nav"
)

// Tuning defaults for the cleaner policy.
const (
	DefaultLowBattery    = 0.2
	DefaultDrainPerClean = 0.05
)

// EventDock orders a robot to the charging dock regardless of battery level.
const EventDock mind.EventType = "dock"

// States holds one shared instance of each cleaner policy state. Per-robot
// values live on the blackboards, so a single States set serves every robot
// in the world.
type States struct {
	world      *World
	lowBattery float64

	idle     *idleState
	travel   *travelState
	clean    *cleanState
	recharge *rechargeState
	watchdog *watchdogState
}

// NewStates builds the cleaner state machine against one world. A
// non-positive threshold falls back to DefaultLowBattery.
func NewStates(world *World, lowBattery float64) *States {
	if lowBattery <= 0 {
		lowBattery = DefaultLowBattery
	}
	s := &States{world: world, lowBattery: lowBattery}
	s.idle = &idleState{s: s}
	s.travel = &travelState{s: s}
	s.clean = &cleanState{s: s}
	s.recharge = &rechargeState{s: s}
	s.watchdog = &watchdogState{s: s}
	return s
}

// Idle is the entry state: scan for dirt, depart when some is found.
func (s *States) Idle() mind.State { return s.idle }

// Watchdog is the global low-battery guard, active in every state.
func (s *States) Watchdog() mind.State { return s.watchdog }

// SpawnRobot registers a robot body and spawns its agent with the full
// cleaner sensor, actuator and policy set.
func SpawnRobot(manager *mind.Manager, world *World, states *States, id string, at nav.Vec3, speed float64) *mind.Agent {
	hooks := world.AddRobot(id, at, FullBattery)
	return manager.Spawn(mind.AgentConfig{
		ID:    id,
		Hooks: hooks,
		Speed: speed,
		Sensors: []mind.Sensor{
			&DirtSensor{World: world},
			&BatterySensor{World: world},
		},
		Actuators: []mind.Actuator{
			&CleanActuator{World: world, DrainPerClean: DefaultDrainPerClean},
			&ChargeActuator{World: world},
		},
		Initial: states.Idle(),
		Global:  states.Watchdog(),
	})
}

type idleState struct {
	mind.NopState
	s *States
}

func (st *idleState) Name() string { return "idle" }

func (st *idleState) Execute(agent *mind.Agent) {
	percept, ok := agent.Sense("dirt")
	if !ok {
		return
	}
	dirt, ok := percept.(DirtPercept)
	if !ok {
		return
	}
	agent.Blackboard.TargetNode = dirt.Node
	agent.SetMoveTarget(dirt.Node)
	agent.ChangeState(st.s.travel)
}

type travelState struct {
	mind.NopState
	s *States
}

func (st *travelState) Name() string { return "travel" }

func (st *travelState) Execute(agent *mind.Agent) {
	if _, moving := agent.MoveTarget(); moving {
		return
	}
	// Navigation finished or was abandoned. Only clean when the trip
	// actually ended on the target.
	if agent.Blackboard.TargetNode >= 0 && atNode(agent, agent.Blackboard.TargetNode) {
		agent.ChangeState(st.s.clean)
		return
	}
	agent.Blackboard.TargetNode = -1
	agent.ChangeState(st.s.idle)
}

type cleanState struct {
	mind.NopState
	s *States
}

func (st *cleanState) Name() string { return "clean" }

func (st *cleanState) Enter(agent *mind.Agent) {
	action := mind.NewAction(ActionClean)
	action.TargetNode = agent.Blackboard.TargetNode
	agent.EmitAction(action)
}

func (st *cleanState) Execute(agent *mind.Agent) {
	if pendingKind(agent, ActionClean) {
		return
	}
	agent.Blackboard.TargetNode = -1
	agent.ChangeState(st.s.idle)
}

type rechargeState struct {
	mind.NopState
	s *States
}

func (st *rechargeState) Name() string { return "recharge" }

func (st *rechargeState) Enter(agent *mind.Agent) {
	agent.ClearMoveTarget()
	agent.SetMoveTarget(st.s.world.Dock())
}

func (st *rechargeState) Execute(agent *mind.Agent) {
	if _, moving := agent.MoveTarget(); moving {
		return
	}
	if !atNode(agent, st.s.world.Dock()) {
		// The dock trip was abandoned; try again.
		agent.SetMoveTarget(st.s.world.Dock())
		return
	}
	if st.s.world.Battery(agent.ID()) < FullBattery {
		if !pendingKind(agent, ActionCharge) {
			agent.EmitAction(mind.NewAction(ActionCharge))
		}
		return
	}
	agent.ChangeState(st.s.idle)
}

// watchdogState runs as the global state: whatever the robot is doing, a low
// battery reading forces a trip to the dock. A "dock" event does the same on
// demand.
type watchdogState struct {
	mind.NopState
	s *States
}

func (st *watchdogState) Name() string { return "battery-watchdog" }

func (st *watchdogState) Execute(agent *mind.Agent) {
	if st.recharging(agent) {
		return
	}
	percept, ok := agent.Sense("battery")
	if !ok {
		return
	}
	level, ok := percept.(float64)
	if !ok {
		return
	}
	if level < st.s.lowBattery {
		agent.Logf("battery %.2f below %.2f, docking", level, st.s.lowBattery)
		agent.ChangeState(st.s.recharge)
	}
}

func (st *watchdogState) HandleEvent(agent *mind.Agent, event mind.Event) bool {
	if event.Type != EventDock {
		return false
	}
	if !st.recharging(agent) {
		agent.ChangeState(st.s.recharge)
	}
	return true
}

func (st *watchdogState) recharging(agent *mind.Agent) bool {
	current := agent.CurrentState()
	return current != nil && current.Name() == st.s.recharge.Name()
}

func pendingKind(agent *mind.Agent, kind mind.ActionKind) bool {
	for _, action := range agent.PendingActions() {
		if action != nil && action.Kind == kind {
			return true
		}
	}
	return false
}
