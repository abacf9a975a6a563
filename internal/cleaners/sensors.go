package cleaners

import (
	"math"

	"agentmind/core/internal/mind"
)

// DirtPercept reports the closest dirty node and the route cost to reach it.
type DirtPercept struct {
	Node int
	Cost float64
}

// NodeIndex satisfies behavior.NodePercept so scripted policies can chase
// dirt too.
func (p DirtPercept) NodeIndex() int { return p.Node }

// DirtSensor reports the nearest dirty node by route cost. Ties resolve to
// the lower node index so repeated queries stay stable.
type DirtSensor struct {
	World *World
}

func (s *DirtSensor) Name() string { return "dirt" }

func (s *DirtSensor) Sense(agent *mind.Agent) (mind.Percept, bool) {
	if s == nil || s.World == nil || agent == nil {
		return nil, false
	}
	manager := agent.Manager()
	origin, ok := manager.NearestNode(agent.Position())
	if !ok {
		return nil, false
	}

	best := DirtPercept{Node: -1, Cost: math.MaxFloat64}
	for _, node := range s.World.DirtNodes() {
		cost, reachable := manager.RouteCost(origin, node)
		if !reachable {
			continue
		}
		if cost < best.Cost {
			best = DirtPercept{Node: node, Cost: cost}
		}
	}
	if best.Node < 0 {
		return nil, false
	}
	return best, true
}

// BatterySensor reports the robot's charge level as a float64 percept.
type BatterySensor struct {
	World *World
}

func (s *BatterySensor) Name() string { return "battery" }

func (s *BatterySensor) Sense(agent *mind.Agent) (mind.Percept, bool) {
	if s == nil || s.World == nil || agent == nil {
		return nil, false
	}
	return s.World.Battery(agent.ID()), true
}

// Ensure the sensors implement the contract.
var (
	_ mind.Sensor = (*DirtSensor)(nil)
	_ mind.Sensor = (*BatterySensor)(nil)
)
