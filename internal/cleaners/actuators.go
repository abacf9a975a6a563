package cleaners

import (
	"agentmind/core/internal/mind"
)

// Action kinds understood by the cleaner actuators.
const (
	ActionClean  mind.ActionKind = "clean"
	ActionCharge mind.ActionKind = "charge"
)

// A robot must be this close to a node to act on it.
const actuatorReach = 0.1

// CleanActuator scrubs the action's target node when the robot stands on it.
// Cleaning drains the battery by DrainPerClean.
type CleanActuator struct {
	World         *World
	DrainPerClean float64
}

func (c *CleanActuator) Name() string { return "clean" }

func (c *CleanActuator) Act(agent *mind.Agent, action *mind.Action) bool {
	if c == nil || c.World == nil || agent == nil || action == nil {
		return false
	}
	if action.Kind != ActionClean || action.TargetNode < 0 {
		return false
	}
	if !atNode(agent, action.TargetNode) {
		return false
	}
	if c.World.RemoveDirt(action.TargetNode) {
		c.World.Drain(agent.ID(), c.DrainPerClean)
		agent.Logf("cleaned node %d", action.TargetNode)
	}
	// A node another robot already cleaned still counts as done.
	return true
}

// ChargeActuator restores a robot docked at the charging station.
type ChargeActuator struct {
	World *World
}

func (c *ChargeActuator) Name() string { return "charge" }

func (c *ChargeActuator) Act(agent *mind.Agent, action *mind.Action) bool {
	if c == nil || c.World == nil || agent == nil || action == nil {
		return false
	}
	if action.Kind != ActionCharge {
		return false
	}
	if !atNode(agent, c.World.Dock()) {
		return false
	}
	c.World.SetBattery(agent.ID(), FullBattery)
	agent.Logf("recharged at node %d", c.World.Dock())
	return true
}

func atNode(agent *mind.Agent, node int) bool {
	position, ok := agent.Manager().NodePosition(node)
	if !ok {
		return false
	}
	return position.Sub(agent.Position()).Length() <= actuatorReach
}

// Ensure the actuators implement the contract.
var (
	_ mind.Actuator = (*CleanActuator)(nil)
	_ mind.Actuator = (*ChargeActuator)(nil)
)
