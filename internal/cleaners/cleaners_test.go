package cleaners

import (
	"math"
	"testing"

	"agentmind/core/internal/mind"
	"agentmind/core/internal/nav"
)

// newCleanerFixture builds a five node corridor with the charging dock on
// node 0.
func newCleanerFixture(t *testing.T) (*mind.Manager, *World, *States) {
	t.Helper()
	manager := mind.NewManager(mind.ManagerConfig{})
	positions := []nav.Vec3{{X: 0}, {X: 1}, {X: 2}, {X: 3}, {X: 4}}
	connections := []nav.Connection{{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 3}, {A: 3, B: 4}}
	if err := manager.RebuildNavigation(positions, connections); err != nil {
		t.Fatalf("rebuild navigation: %v", err)
	}
	world := NewWorld(0)
	return manager, world, NewStates(world, DefaultLowBattery)
}

func runTicks(manager *mind.Manager, from uint64, n int) uint64 {
	tick := from
	for i := 0; i < n; i++ {
		tick++
		manager.Tick(mind.TickContext{Tick: tick, Delta: 1})
	}
	return tick
}

func TestCleaner_CleansNearestDirtFirst(t *testing.T) {
	manager, world, states := newCleanerFixture(t)
	world.AddDirt(3)
	world.AddDirt(1)

	SpawnRobot(manager, world, states, "r1", nav.Vec3{X: 0}, 1)

	cleanedNear, cleanedFar := uint64(0), uint64(0)
	var tick uint64
	for i := 0; i < 30 && len(world.DirtNodes()) > 0; i++ {
		tick = runTicks(manager, tick, 1)
		if cleanedNear == 0 && !world.HasDirt(1) {
			cleanedNear = tick
		}
		if cleanedFar == 0 && !world.HasDirt(3) {
			cleanedFar = tick
		}
	}

	if len(world.DirtNodes()) != 0 {
		t.Fatalf("expected all dirt cleaned, still dirty: %v", world.DirtNodes())
	}
	if cleanedNear == 0 || cleanedFar == 0 || cleanedNear >= cleanedFar {
		t.Fatalf("expected the nearer node first, near=%d far=%d", cleanedNear, cleanedFar)
	}
	wantBattery := FullBattery - 2*DefaultDrainPerClean
	if got := world.Battery("r1"); math.Abs(got-wantBattery) > 1e-9 {
		t.Fatalf("expected battery %f after two cleans, got %f", wantBattery, got)
	}
}

func TestCleaner_LowBatteryForcesDock(t *testing.T) {
	manager, world, states := newCleanerFixture(t)
	world.AddDirt(4)

	agent := SpawnRobot(manager, world, states, "r1", nav.Vec3{X: 2}, 1)
	world.SetBattery("r1", 0.1)

	runTicks(manager, 0, 1)
	if got := agent.CurrentState().Name(); got != "recharge" {
		t.Fatalf("expected the watchdog to force a dock trip, got %q", got)
	}

	var tick uint64 = 1
	for i := 0; i < 40 && world.Battery("r1") < FullBattery; i++ {
		tick = runTicks(manager, tick, 1)
	}
	if got := world.Battery("r1"); got != FullBattery {
		t.Fatalf("expected a full recharge, got %f", got)
	}

	// With a full battery the robot goes back to work on its own.
	for i := 0; i < 40 && world.HasDirt(4); i++ {
		tick = runTicks(manager, tick, 1)
	}
	if world.HasDirt(4) {
		t.Fatalf("expected the robot to resume cleaning after recharging")
	}
}

func TestCleaner_DockEventInterruptsWork(t *testing.T) {
	manager, world, states := newCleanerFixture(t)
	world.AddDirt(4)

	agent := SpawnRobot(manager, world, states, "r1", nav.Vec3{X: 0}, 1)
	runTicks(manager, 0, 2)

	if !manager.Send(agent.ID(), mind.Event{Type: EventDock}) {
		t.Fatalf("expected the watchdog to consume the dock event")
	}
	if got := agent.CurrentState().Name(); got != "recharge" {
		t.Fatalf("expected an immediate dock trip, got %q", got)
	}
	if target, moving := agent.MoveTarget(); !moving || target != world.Dock() {
		t.Fatalf("expected navigation toward the dock, got target=%d moving=%v", target, moving)
	}
}

func TestDirtSensor_ReportsNearestByRouteCost(t *testing.T) {
	manager, world, states := newCleanerFixture(t)
	world.AddDirt(3)
	world.AddDirt(1)

	agent := SpawnRobot(manager, world, states, "r1", nav.Vec3{X: 0}, 1)

	percept, ok := agent.Sense("dirt")
	if !ok {
		t.Fatalf("expected a dirt percept")
	}
	dirt, ok := percept.(DirtPercept)
	if !ok {
		t.Fatalf("unexpected percept type %T", percept)
	}
	if dirt.Node != 1 {
		t.Fatalf("expected the nearer node 1, got %d", dirt.Node)
	}
	if math.Abs(dirt.Cost-1) > 1e-9 {
		t.Fatalf("expected route cost 1, got %f", dirt.Cost)
	}
}

func TestDirtSensor_NoDirtReportsAbsence(t *testing.T) {
	manager, world, states := newCleanerFixture(t)
	agent := SpawnRobot(manager, world, states, "r1", nav.Vec3{X: 0}, 1)

	if _, ok := agent.Sense("dirt"); ok {
		t.Fatalf("expected no percept on a clean floor")
	}
}

func TestCleanActuator_RequiresPresenceAtNode(t *testing.T) {
	manager, world, states := newCleanerFixture(t)
	world.AddDirt(2)
	far := SpawnRobot(manager, world, states, "far", nav.Vec3{X: 0}, 1)
	near := SpawnRobot(manager, world, states, "near", nav.Vec3{X: 2}, 1)

	actuator := &CleanActuator{World: world, DrainPerClean: DefaultDrainPerClean}
	action := mind.NewAction(ActionClean)
	action.TargetNode = 2

	if actuator.Act(far, action) {
		t.Fatalf("cleaning must fail away from the target node")
	}
	if !world.HasDirt(2) {
		t.Fatalf("dirt must survive a failed clean")
	}

	if !actuator.Act(near, action) {
		t.Fatalf("cleaning must succeed on the target node")
	}
	if world.HasDirt(2) {
		t.Fatalf("expected the dirt to be removed")
	}
}

func TestWorld_SnapshotIsSorted(t *testing.T) {
	world := NewWorld(0)
	world.AddDirt(4)
	world.AddDirt(1)
	world.AddRobot("b", nav.Vec3{X: 1}, 0.5)
	world.AddRobot("a", nav.Vec3{X: 0}, 1)

	snap := world.Snapshot()
	if len(snap.Dirt) != 2 || snap.Dirt[0] != 1 || snap.Dirt[1] != 4 {
		t.Fatalf("expected sorted dirt nodes, got %v", snap.Dirt)
	}
	if len(snap.Robots) != 2 || snap.Robots[0].ID != "a" || snap.Robots[1].ID != "b" {
		t.Fatalf("expected robots sorted by ID, got %+v", snap.Robots)
	}
}
