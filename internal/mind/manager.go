package mind

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"agentmind/core/internal/nav"
	"agentmind/core/internal/telemetry"
	"agentmind/core/logging"
	"agentmind/core/logging/navigation"
)

// Metric keys aggregated by the manager.
const (
	MetricTicks            = "mind.ticks"
	MetricAgents           = "mind.agents"
	MetricActionsCompleted = "mind.actions_completed"
	MetricTableHits        = "nav.table_hits"
	MetricPathSearches     = "nav.path_searches"
	MetricEventsDelivered  = "mind.events_delivered"
	MetricEventsDropped    = "mind.events_dropped"
)

// ManagerConfig wires the manager's dependencies and loop tuning.
type ManagerConfig struct {
	Publisher logging.Publisher
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics

	TickRate        int
	CatchupMaxTicks int
}

// TickContext carries per-tick timing into Tick.
type TickContext struct {
	Tick  uint64
	Now   time.Time
	Delta float64
}

// TickResult summarizes one manager tick.
type TickResult struct {
	Tick     uint64
	Agents   int
	Duration time.Duration
}

// Manager owns the shared navigation singletons and the registry of live
// agents. Agents tick sequentially in insertion order; they read the shared
// read-only graph and table and mutate only their own state, so the tick path
// takes no locks.
type Manager struct {
	publisher logging.Publisher
	logger    telemetry.Logger
	metrics   telemetry.Metrics
	config    ManagerConfig

	graph *nav.Graph
	table *nav.Table

	agents []*Agent
	byID   map[string]*Agent

	// tick is read by HTTP handlers outside the tick goroutine, hence atomic.
	tick atomic.Uint64

	// AfterTick, when set, observes each completed tick. Used by the app
	// wiring for budget accounting; never used for control flow.
	AfterTick func(TickResult)
}

// NewManager constructs an empty manager.
func NewManager(cfg ManagerConfig) *Manager {
	publisher := cfg.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NopMetrics
	}
	return &Manager{
		publisher: publisher,
		logger:    cfg.Logger,
		metrics:   metrics,
		config:    cfg,
		byID:      make(map[string]*Agent),
	}
}

// SetNavigation replaces the shared graph and lookup table wholesale. The
// swap happens between ticks: agents never observe a partially rebuilt table.
func (m *Manager) SetNavigation(graph *nav.Graph, table *nav.Table) {
	if m == nil {
		return
	}
	m.graph = graph
	m.table = table
	routes := 0
	nodes := 0
	if table != nil {
		routes = table.Len()
	}
	if graph != nil {
		nodes = graph.NodeCount()
	}
	navigation.TableRebuilt(context.Background(), m.publisher, m.tick.Load(), navigation.TableRebuiltPayload{
		Nodes:  nodes,
		Routes: routes,
	})
}

// RebuildNavigation constructs a fresh graph from the provided layout, runs
// the full table build, and publishes the replacement. Any topology change
// goes through here; the table is never patched incrementally.
func (m *Manager) RebuildNavigation(positions []nav.Vec3, connections []nav.Connection) error {
	if m == nil {
		return nil
	}
	graph, err := nav.NewGraph(positions, connections)
	if err != nil {
		return err
	}
	m.SetNavigation(graph, nav.BuildTable(graph))
	return nil
}

// Graph exposes the shared read-only graph.
func (m *Manager) Graph() *nav.Graph {
	if m == nil {
		return nil
	}
	return m.graph
}

// Table exposes the shared read-only lookup table.
func (m *Manager) Table() *nav.Table {
	if m == nil {
		return nil
	}
	return m.table
}

// NearestNode snaps a position to the shared graph.
func (m *Manager) NearestNode(point nav.Vec3) (int, bool) {
	if m == nil {
		return 0, false
	}
	return m.graph.NearestNode(point)
}

// NodePosition resolves a node index to its world position.
func (m *Manager) NodePosition(index int) (nav.Vec3, bool) {
	if m == nil {
		return nav.Vec3{}, false
	}
	node, ok := m.graph.Node(index)
	if !ok {
		return nav.Vec3{}, false
	}
	return node.Position, true
}

// Route answers a path query, preferring the precomputed table and falling
// back to a direct search for pairs the build did not cover. The boolean
// fromTable reports which source served the query.
func (m *Manager) Route(origin, destination int) (nodes []int, cost float64, fromTable bool, ok bool) {
	if m == nil {
		return nil, 0, false, false
	}
	if route, hit := m.table.Lookup(origin, destination); hit {
		m.metrics.Add(MetricTableHits, 1)
		return route.Nodes, route.Cost, true, true
	}
	m.metrics.Add(MetricPathSearches, 1)
	path, found := m.graph.FindPath(origin, destination)
	if !found {
		return nil, 0, false, false
	}
	return path.Nodes, path.Cost, false, true
}

// RouteCost answers a cost-only query with the same table-first policy.
func (m *Manager) RouteCost(origin, destination int) (float64, bool) {
	nodes, cost, _, ok := m.Route(origin, destination)
	if !ok || nodes == nil {
		return cost, ok
	}
	return cost, true
}

// Spawn registers a new agent. Registration order fixes tick order. The
// initial state's Enter hook runs immediately; the global state, if any, gets
// no lifecycle hooks.
func (m *Manager) Spawn(cfg AgentConfig) *Agent {
	if m == nil {
		return nil
	}
	id := cfg.ID
	if id == "" {
		id = uuid.New().String()
	}
	speed := cfg.Speed
	if speed <= 0 {
		speed = 1
	}
	agent := &Agent{
		id:         id,
		manager:    m,
		global:     cfg.Global,
		sensors:    append([]Sensor(nil), cfg.Sensors...),
		actuators:  append([]Actuator(nil), cfg.Actuators...),
		Blackboard: newBlackboard(),
		hooks:      cfg.Hooks,
		speed:      speed,
		moveTarget: -1,
	}
	m.agents = append(m.agents, agent)
	m.byID[id] = agent
	m.metrics.Store(MetricAgents, uint64(len(m.agents)))

	if cfg.Initial != nil {
		agent.current = cfg.Initial
		agent.current.Enter(agent)
	}
	return agent
}

// Remove deregisters an agent; its identity is retired with it.
func (m *Manager) Remove(id string) bool {
	if m == nil {
		return false
	}
	agent, ok := m.byID[id]
	if !ok {
		return false
	}
	delete(m.byID, id)
	for i, candidate := range m.agents {
		if candidate == agent {
			m.agents = append(m.agents[:i], m.agents[i+1:]...)
			break
		}
	}
	m.metrics.Store(MetricAgents, uint64(len(m.agents)))
	return true
}

// Agent looks up a live agent by ID.
func (m *Manager) Agent(id string) (*Agent, bool) {
	if m == nil {
		return nil, false
	}
	agent, ok := m.byID[id]
	return agent, ok
}

// Agents returns the live agents in tick order.
func (m *Manager) Agents() []*Agent {
	if m == nil {
		return nil
	}
	out := make([]*Agent, len(m.agents))
	copy(out, m.agents)
	return out
}

// Send routes an event to one agent's state machine. Reports whether any
// state handled it; an unhandled event is dropped, never an error.
func (m *Manager) Send(agentID string, event Event) bool {
	if m == nil {
		return false
	}
	agent, ok := m.byID[agentID]
	if !ok {
		m.metrics.Add(MetricEventsDropped, 1)
		return false
	}
	if agent.handleEvent(event) {
		m.metrics.Add(MetricEventsDelivered, 1)
		return true
	}
	m.metrics.Add(MetricEventsDropped, 1)
	return false
}

// Broadcast offers an event to every live agent in tick order.
func (m *Manager) Broadcast(event Event) int {
	if m == nil {
		return 0
	}
	handled := 0
	for _, agent := range m.agents {
		if agent.handleEvent(event) {
			handled++
		}
	}
	if handled > 0 {
		m.metrics.Add(MetricEventsDelivered, uint64(handled))
	}
	return handled
}

// Tick advances every agent one Sense -> Decide -> Act cycle, sequentially
// and in registration order.
func (m *Manager) Tick(ctx TickContext) TickResult {
	if m == nil {
		return TickResult{}
	}
	start := time.Now()
	m.tick.Store(ctx.Tick)
	for _, agent := range m.agents {
		agent.tick(ctx.Tick, ctx.Delta)
	}
	m.metrics.Add(MetricTicks, 1)
	result := TickResult{
		Tick:     ctx.Tick,
		Agents:   len(m.agents),
		Duration: time.Since(start),
	}
	if m.AfterTick != nil {
		m.AfterTick(result)
	}
	return result
}

// CurrentTick reports the most recently processed tick number.
func (m *Manager) CurrentTick() uint64 {
	if m == nil {
		return 0
	}
	return m.tick.Load()
}

// Run drives the fixed-timestep loop until the stop channel closes. Each
// ticker fire advances one tick; the delta is clamped so a stalled host
// cannot produce runaway catch-up movement.
func (m *Manager) Run(stop <-chan struct{}) {
	if m == nil {
		return
	}
	tickRate := m.config.TickRate
	if tickRate <= 0 {
		tickRate = 15
	}
	ticker := time.NewTicker(time.Second / time.Duration(tickRate))
	defer ticker.Stop()

	budget := 1.0 / float64(tickRate)
	maxDelta := budget
	if m.config.CatchupMaxTicks > 1 {
		maxDelta = budget * float64(m.config.CatchupMaxTicks)
	}

	last := time.Now()
	var tick uint64
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			now := time.Now()
			delta := now.Sub(last).Seconds()
			if delta <= 0 {
				delta = budget
			} else if delta > maxDelta {
				delta = maxDelta
			}
			last = now
			tick++

			result := m.Tick(TickContext{Tick: tick, Now: now, Delta: delta})
			if result.Duration.Seconds() > budget && m.logger != nil {
				m.logger.Printf("tick %d overran budget: %s > %s", tick, result.Duration, time.Duration(float64(time.Second)*budget))
			}
		}
	}
}
