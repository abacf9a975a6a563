// Package cleaners is a small floor-cleaning robot domain built on the
// cognition core. It doubles as the demo scenario and as the integration
// fixture for the core contracts.
package cleaners

import (
	"sort"
	"sync"

	"agentmind/core/internal/mind"
	"agentmind/core/internal/nav"
)

// FullBattery is the charge level a docked robot is restored to.
const FullBattery = 1.0

// World owns the physical side of the scenario: robot positions, battery
// levels, the dirt registry, and the charging dock. Agents reach it only
// through hooks, sensors and actuators.
type World struct {
	mu     sync.Mutex
	dirt   map[int]struct{}
	robots map[string]*robotBody
	dock   int
}

type robotBody struct {
	position nav.Vec3
	battery  float64
}

// RobotSnapshot is a read-only copy of one robot's physical state.
type RobotSnapshot struct {
	ID       string   `json:"id"`
	Position nav.Vec3 `json:"position"`
	Battery  float64  `json:"battery"`
}

// Snapshot is a read-only copy of the world, for diagnostics endpoints.
type Snapshot struct {
	Dock   int             `json:"dock"`
	Dirt   []int           `json:"dirt"`
	Robots []RobotSnapshot `json:"robots"`
}

// NewWorld creates an empty world with the given charging dock node.
func NewWorld(dock int) *World {
	return &World{
		dirt:   make(map[int]struct{}),
		robots: make(map[string]*robotBody),
		dock:   dock,
	}
}

// Dock reports the charging dock node.
func (w *World) Dock() int {
	return w.dock
}

// AddRobot registers a robot body and returns the hooks that bind an agent to
// it.
func (w *World) AddRobot(id string, at nav.Vec3, battery float64) mind.Hooks {
	w.mu.Lock()
	w.robots[id] = &robotBody{position: at, battery: battery}
	w.mu.Unlock()
	return mind.Hooks{
		Position: func() nav.Vec3 {
			w.mu.Lock()
			defer w.mu.Unlock()
			if body, ok := w.robots[id]; ok {
				return body.position
			}
			return nav.Vec3{}
		},
		SetPosition: func(p nav.Vec3) {
			w.mu.Lock()
			defer w.mu.Unlock()
			if body, ok := w.robots[id]; ok {
				body.position = p
			}
		},
	}
}

// RemoveRobot drops a robot body.
func (w *World) RemoveRobot(id string) {
	w.mu.Lock()
	delete(w.robots, id)
	w.mu.Unlock()
}

// AddDirt marks a node dirty. Marking a dirty node again is a no-op.
func (w *World) AddDirt(node int) {
	w.mu.Lock()
	w.dirt[node] = struct{}{}
	w.mu.Unlock()
}

// RemoveDirt clears a node and reports whether it was dirty.
func (w *World) RemoveDirt(node int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.dirt[node]; !ok {
		return false
	}
	delete(w.dirt, node)
	return true
}

// HasDirt reports whether a node is dirty.
func (w *World) HasDirt(node int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.dirt[node]
	return ok
}

// DirtNodes lists the dirty nodes in ascending order.
func (w *World) DirtNodes() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]int, 0, len(w.dirt))
	for node := range w.dirt {
		out = append(out, node)
	}
	sort.Ints(out)
	return out
}

// Battery reads a robot's charge level; unknown robots read as empty.
func (w *World) Battery(id string) float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if body, ok := w.robots[id]; ok {
		return body.battery
	}
	return 0
}

// SetBattery overwrites a robot's charge level.
func (w *World) SetBattery(id string, level float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if body, ok := w.robots[id]; ok {
		body.battery = level
	}
}

// Drain lowers a robot's charge level, clamped at zero.
func (w *World) Drain(id string, amount float64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	body, ok := w.robots[id]
	if !ok {
		return
	}
	body.battery -= amount
	if body.battery < 0 {
		body.battery = 0
	}
}

// Snapshot copies the world state for diagnostics.
func (w *World) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	snap := Snapshot{
		Dock:   w.dock,
		Dirt:   make([]int, 0, len(w.dirt)),
		Robots: make([]RobotSnapshot, 0, len(w.robots)),
	}
	for node := range w.dirt {
		snap.Dirt = append(snap.Dirt, node)
	}
	sort.Ints(snap.Dirt)
	for id, body := range w.robots {
		snap.Robots = append(snap.Robots, RobotSnapshot{ID: id, Position: body.position, Battery: body.battery})
	}
	sort.Slice(snap.Robots, func(i, j int) bool { return snap.Robots[i].ID < snap.Robots[j].ID })
	return snap
}
