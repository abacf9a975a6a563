package mind

// Percept is a single sensor's output for one decision tick. Percepts are
// immutable value objects consumed by the state that requested them; they are
// never shared across ticks.
type Percept any

// Sensor is a pure read of world/agent state. Sense never mutates anything,
// never blocks, and always returns within the tick that invoked it. Returning
// false means "nothing to sense", which is a first-class outcome, not an error.
//
// Sensors are independent of each other; states invoke them lazily and in any
// order, and results are not cached across ticks unless a state caches them
// explicitly.
type Sensor interface {
	Name() string
	Sense(agent *Agent) (Percept, bool)
}
