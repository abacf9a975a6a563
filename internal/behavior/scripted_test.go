package behavior

import (
	"math"
	"testing"

	"agentmind/core/internal/mind"
	"agentmind/core/internal/nav"
)

// nodeSensor reports a fixed node index, or nothing when disabled.
type nodeSensor struct {
	name    string
	node    int
	enabled bool
}

func (s *nodeSensor) Name() string { return s.name }

func (s *nodeSensor) Sense(*mind.Agent) (mind.Percept, bool) {
	if !s.enabled {
		return nil, false
	}
	return s.node, true
}

func newScriptedManager(t *testing.T) *mind.Manager {
	t.Helper()
	manager := mind.NewManager(mind.ManagerConfig{})
	positions := []nav.Vec3{{X: 0}, {X: 1}, {X: 2}, {X: 3}}
	connections := []nav.Connection{{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 3}}
	if err := manager.RebuildNavigation(positions, connections); err != nil {
		t.Fatalf("rebuild navigation: %v", err)
	}
	return manager
}

func hooksFor(position *nav.Vec3) mind.Hooks {
	return mind.Hooks{
		Position:    func() nav.Vec3 { return *position },
		SetPosition: func(p nav.Vec3) { *position = p },
	}
}

func TestScripted_PatrolCycle(t *testing.T) {
	compiled, err := Compile(Config{
		AgentType: "walker",
		Initial:   "rest",
		States: []StateConfig{
			{
				ID:          "rest",
				OnEnter:     []ActionConfig{{Do: "wait", Timer: "rest", Ticks: 1}},
				Transitions: []TransitionConfig{{If: `TimerExpired("rest")`, To: "travel"}},
			},
			{
				ID:          "travel",
				OnEnter:     []ActionConfig{{Do: "move_to_node", Node: intPtr(3)}},
				Transitions: []TransitionConfig{{If: "!Moving()", To: "rest"}},
			},
		},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	manager := newScriptedManager(t)
	position := nav.Vec3{X: 0}
	agent := manager.Spawn(mind.AgentConfig{
		Hooks:   hooksFor(&position),
		Initial: compiled.Initial(),
		Speed:   1,
	})

	// Tick 1 expires the rest timer and starts the trip; ticks 2 and 3
	// finish it; tick 4 observes arrival and rests again.
	for tick := uint64(1); tick <= 4; tick++ {
		manager.Tick(mind.TickContext{Tick: tick, Delta: 1})
	}

	if math.Abs(position.X-3) > 1e-9 {
		t.Fatalf("expected the agent at x=3, got %f", position.X)
	}
	if got := agent.CurrentState().Name(); got != "rest" {
		t.Fatalf("expected the cycle to return to rest, got %q", got)
	}
}

func TestScripted_EventTransitionConsumesEvent(t *testing.T) {
	compiled, err := Compile(Config{
		AgentType: "worker",
		States: []StateConfig{
			{
				ID:          "busy",
				Transitions: []TransitionConfig{{On: "recall", To: "hold"}},
			},
			{
				ID:      "hold",
				OnEnter: []ActionConfig{{Do: "clear_target"}},
			},
		},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	manager := newScriptedManager(t)
	position := nav.Vec3{X: 0}
	agent := manager.Spawn(mind.AgentConfig{
		Hooks:   hooksFor(&position),
		Initial: compiled.Initial(),
		Speed:   1,
	})
	agent.SetMoveTarget(3)
	agent.Blackboard.TargetNode = 3

	if !manager.Send(agent.ID(), mind.Event{Type: "recall"}) {
		t.Fatalf("expected the authored event transition to consume the event")
	}
	if got := agent.CurrentState().Name(); got != "hold" {
		t.Fatalf("expected the recall to land in hold, got %q", got)
	}
	if _, moving := agent.MoveTarget(); moving {
		t.Fatalf("expected clear_target to cancel navigation")
	}
	if manager.Send(agent.ID(), mind.Event{Type: "unknown"}) {
		t.Fatalf("expected unnamed events to go unhandled")
	}
}

func TestScripted_PerformEmitsOneActionWhilePending(t *testing.T) {
	compiled, err := Compile(Config{
		AgentType: "collector",
		States: []StateConfig{
			{
				ID:      "engage",
				Actions: []ActionConfig{{Do: "perform", Kind: "collect"}},
			},
		},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	manager := newScriptedManager(t)
	position := nav.Vec3{X: 0}
	agent := manager.Spawn(mind.AgentConfig{
		Hooks:   hooksFor(&position),
		Initial: compiled.Initial(),
	})

	// No actuator handles the intent, so it stays pending; the state must
	// not stack a duplicate behind it.
	manager.Tick(mind.TickContext{Tick: 1, Delta: 0.1})
	manager.Tick(mind.TickContext{Tick: 2, Delta: 0.1})

	if pending := agent.PendingActions(); len(pending) != 1 {
		t.Fatalf("expected exactly one pending collect intent, got %d", len(pending))
	}
}

func TestScripted_MoveToNearestFollowsSensor(t *testing.T) {
	compiled, err := Compile(Config{
		AgentType: "chaser",
		States: []StateConfig{
			{
				ID:      "search",
				Actions: []ActionConfig{{Do: "move_to_nearest", Sensor: "quarry"}},
			},
		},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	manager := newScriptedManager(t)
	sensor := &nodeSensor{name: "quarry", node: 3, enabled: true}
	position := nav.Vec3{X: 0}
	agent := manager.Spawn(mind.AgentConfig{
		Hooks:   hooksFor(&position),
		Initial: compiled.Initial(),
		Sensors: []mind.Sensor{sensor},
		Speed:   1,
	})

	manager.Tick(mind.TickContext{Tick: 1, Delta: 1})

	if target, moving := agent.MoveTarget(); !moving || target != 3 {
		t.Fatalf("expected navigation toward node 3, got target=%d moving=%v", target, moving)
	}
	if agent.Blackboard.TargetNode != 3 {
		t.Fatalf("expected the blackboard to record the target node, got %d", agent.Blackboard.TargetNode)
	}
	if math.Abs(position.X-1) > 1e-9 {
		t.Fatalf("expected one edge of progress, got x=%f", position.X)
	}
}

func TestScripted_SharedAcrossAgents(t *testing.T) {
	compiled, err := Compile(Config{
		AgentType: "walker",
		States: []StateConfig{
			{
				ID:          "rest",
				OnEnter:     []ActionConfig{{Do: "wait", Timer: "rest", Ticks: 2}},
				Transitions: []TransitionConfig{{If: `TimerExpired("rest")`, To: "travel"}},
			},
			{
				ID:      "travel",
				OnEnter: []ActionConfig{{Do: "move_to_node", Node: intPtr(3)}},
			},
		},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	manager := newScriptedManager(t)
	p1, p2 := nav.Vec3{X: 0}, nav.Vec3{X: 0}
	early := manager.Spawn(mind.AgentConfig{Hooks: hooksFor(&p1), Initial: compiled.Initial()})
	late := manager.Spawn(mind.AgentConfig{Hooks: hooksFor(&p2), Initial: compiled.Initial()})

	// Restarting one agent's timer must not leak into the other: the state
	// values are shared, the blackboards are not.
	late.Blackboard.SetTimer("rest", 10)

	manager.Tick(mind.TickContext{Tick: 1, Delta: 0.1})
	manager.Tick(mind.TickContext{Tick: 2, Delta: 0.1})

	if got := early.CurrentState().Name(); got != "travel" {
		t.Fatalf("expected the first agent to depart, got %q", got)
	}
	if got := late.CurrentState().Name(); got != "rest" {
		t.Fatalf("expected the delayed agent to keep resting, got %q", got)
	}
}

func intPtr(v int) *int { return &v }
