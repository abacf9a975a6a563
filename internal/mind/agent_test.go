package mind

import (
	"math"
	"testing"

	"agentmind/core/internal/nav"
)

// countingSensor reports how often it ran.
type countingSensor struct {
	name  string
	runs  int
	value Percept
}

func (s *countingSensor) Name() string { return s.name }

func (s *countingSensor) Sense(*Agent) (Percept, bool) {
	s.runs++
	if s.value == nil {
		return nil, false
	}
	return s.value, true
}

// sensingState queries one sensor by name every Execute.
type sensingState struct {
	NopState
	sensorName string
	got        []Percept
}

func (s *sensingState) Name() string { return "sensing" }

func (s *sensingState) Execute(agent *Agent) {
	if percept, ok := agent.Sense(s.sensorName); ok {
		s.got = append(s.got, percept)
	}
}

func TestSensors_RunOnlyWhenRequested(t *testing.T) {
	manager := newTestManager(t)
	idle := &countingSensor{name: "idle", value: 1}
	queried := &countingSensor{name: "queried", value: 2}

	position := nav.Vec3{}
	manager.Spawn(AgentConfig{
		Hooks:   positionHooks(&position),
		Initial: &sensingState{sensorName: "queried"},
		Sensors: []Sensor{idle, queried},
	})

	manager.Tick(TickContext{Tick: 1, Delta: 0.1})
	manager.Tick(TickContext{Tick: 2, Delta: 0.1})

	if queried.runs != 2 {
		t.Fatalf("expected the queried sensor to run once per tick, got %d", queried.runs)
	}
	if idle.runs != 0 {
		t.Fatalf("sensors must be lazy; the unqueried sensor ran %d times", idle.runs)
	}
}

func TestSense_AbsenceIsFirstClass(t *testing.T) {
	manager := newTestManager(t)
	empty := &countingSensor{name: "empty"}

	position := nav.Vec3{}
	agent := manager.Spawn(AgentConfig{
		Hooks:   positionHooks(&position),
		Sensors: []Sensor{empty},
	})

	if _, ok := agent.Sense("empty"); ok {
		t.Fatalf("expected no percept")
	}
	if _, ok := agent.Sense("unattached"); ok {
		t.Fatalf("expected unattached sensor name to report absence")
	}
}

func TestMovement_ConsumesRouteUntilArrival(t *testing.T) {
	manager := newTestManager(t)

	position := nav.Vec3{X: 0}
	agent := manager.Spawn(AgentConfig{Hooks: positionHooks(&position), Speed: 1})
	agent.SetMoveTarget(3)

	// Nodes sit at x=0..3; speed 1 with delta 1 covers one edge per tick.
	for tick := uint64(1); tick <= 3; tick++ {
		manager.Tick(TickContext{Tick: tick, Delta: 1})
	}

	if math.Abs(position.X-3) > 1e-9 {
		t.Fatalf("expected arrival at x=3, got %f", position.X)
	}
	if _, moving := agent.MoveTarget(); moving {
		t.Fatalf("expected the target to clear on arrival")
	}
}

func TestMovement_PartialProgressPerTick(t *testing.T) {
	manager := newTestManager(t)

	position := nav.Vec3{X: 0}
	manager.Spawn(AgentConfig{Hooks: positionHooks(&position), Speed: 1}).SetMoveTarget(3)

	manager.Tick(TickContext{Tick: 1, Delta: 0.5})
	if math.Abs(position.X-0.5) > 1e-9 {
		t.Fatalf("expected half an edge of progress, got %f", position.X)
	}
}

func TestMovement_ClearTargetCancelsNavigation(t *testing.T) {
	manager := newTestManager(t)

	position := nav.Vec3{X: 0}
	agent := manager.Spawn(AgentConfig{Hooks: positionHooks(&position), Speed: 1})
	agent.SetMoveTarget(3)
	manager.Tick(TickContext{Tick: 1, Delta: 1})

	agent.ClearMoveTarget()
	before := position
	manager.Tick(TickContext{Tick: 2, Delta: 1})

	if position != before {
		t.Fatalf("expected no movement after cancellation, moved from %+v to %+v", before, position)
	}
}

func TestMovement_UnreachableTargetClearsWithoutPanic(t *testing.T) {
	manager := NewManager(ManagerConfig{})
	if err := manager.RebuildNavigation(
		[]nav.Vec3{{X: 0}, {X: 1}, {X: 10}},
		[]nav.Connection{{A: 0, B: 1}},
	); err != nil {
		t.Fatalf("rebuild navigation: %v", err)
	}

	position := nav.Vec3{X: 0}
	agent := manager.Spawn(AgentConfig{Hooks: positionHooks(&position), Speed: 1})
	agent.SetMoveTarget(2)

	manager.Tick(TickContext{Tick: 1, Delta: 1})

	if _, moving := agent.MoveTarget(); moving {
		t.Fatalf("expected unreachable target to clear")
	}
	if position.X != 0 {
		t.Fatalf("expected no movement toward an unreachable target")
	}
}

func TestMovement_FallsBackToDirectSearch(t *testing.T) {
	manager := NewManager(ManagerConfig{})
	graph, err := nav.NewGraph(
		[]nav.Vec3{{X: 0}, {X: 1}, {X: 2}},
		[]nav.Connection{{A: 0, B: 1}, {A: 1, B: 2}},
	)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	// Table deliberately covers nothing; every query must fall back to a
	// direct search.
	manager.SetNavigation(graph, nav.BuildTablePairs(graph, nil))

	position := nav.Vec3{X: 0}
	agent := manager.Spawn(AgentConfig{Hooks: positionHooks(&position), Speed: 1})
	agent.SetMoveTarget(2)

	manager.Tick(TickContext{Tick: 1, Delta: 2})
	if math.Abs(position.X-2) > 1e-9 {
		t.Fatalf("expected fallback search to move the agent, got x=%f", position.X)
	}
}

func TestBlackboardTimers_DecrementOncePerTick(t *testing.T) {
	manager := newTestManager(t)

	position := nav.Vec3{}
	agent := manager.Spawn(AgentConfig{Hooks: positionHooks(&position)})
	agent.Blackboard.SetTimer("cooldown", 2)

	if agent.Blackboard.TimerExpired("cooldown") {
		t.Fatalf("freshly armed timer must not be expired")
	}
	manager.Tick(TickContext{Tick: 1, Delta: 0.1})
	if agent.Blackboard.TimerExpired("cooldown") {
		t.Fatalf("timer expired one tick early")
	}
	manager.Tick(TickContext{Tick: 2, Delta: 0.1})
	if !agent.Blackboard.TimerExpired("cooldown") {
		t.Fatalf("timer should expire after two ticks")
	}
}

func TestDiagnostics_RollingLogIsBounded(t *testing.T) {
	manager := newTestManager(t)
	position := nav.Vec3{}
	agent := manager.Spawn(AgentConfig{Hooks: positionHooks(&position)})

	for i := 0; i < diagnosticsCapacity*2; i++ {
		agent.Logf("message %d", i)
	}
	if got := len(agent.Diagnostics()); got != diagnosticsCapacity {
		t.Fatalf("expected log capped at %d entries, got %d", diagnosticsCapacity, got)
	}
}
