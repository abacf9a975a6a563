package nav

import (
	"fmt"
	"math"
)

// Vec3 is a position in world space.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Sub returns the component-wise difference a - b.
func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{X: a.X - b.X, Y: a.Y - b.Y, Z: a.Z - b.Z}
}

// Length returns the Euclidean magnitude.
func (a Vec3) Length() float64 {
	return math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z)
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Vec3) float64 {
	return a.Sub(b).Length()
}

// Node is a discrete point in the navigation graph, immutable after
// construction.
type Node struct {
	Index    int
	Position Vec3
}

// Connection is an undirected traversable edge between two node indices. The
// traversal cost is the Euclidean distance between the node positions.
type Connection struct {
	A int
	B int
}

// Graph owns the node and connection lists. It is read-only after NewGraph
// returns; layout changes rebuild the graph wholesale.
type Graph struct {
	nodes       []Node
	connections []Connection
	adjacency   [][]edge
}

type edge struct {
	to   int
	cost float64
}

// NewGraph validates the node and connection lists and precomputes adjacency.
// Self-connections are rejected; duplicate connections are tolerated.
func NewGraph(positions []Vec3, connections []Connection) (*Graph, error) {
	nodes := make([]Node, len(positions))
	for i, pos := range positions {
		nodes[i] = Node{Index: i, Position: pos}
	}
	g := &Graph{
		nodes:       nodes,
		connections: make([]Connection, 0, len(connections)),
		adjacency:   make([][]edge, len(nodes)),
	}
	for _, conn := range connections {
		if conn.A == conn.B {
			return nil, fmt.Errorf("nav: self-connection on node %d", conn.A)
		}
		if conn.A < 0 || conn.A >= len(nodes) || conn.B < 0 || conn.B >= len(nodes) {
			return nil, fmt.Errorf("nav: connection %d-%d out of range", conn.A, conn.B)
		}
		cost := Distance(nodes[conn.A].Position, nodes[conn.B].Position)
		g.connections = append(g.connections, conn)
		g.adjacency[conn.A] = append(g.adjacency[conn.A], edge{to: conn.B, cost: cost})
		g.adjacency[conn.B] = append(g.adjacency[conn.B], edge{to: conn.A, cost: cost})
	}
	return g, nil
}

// NodeCount reports the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

// Node returns the node at the provided index.
func (g *Graph) Node(index int) (Node, bool) {
	if g == nil || index < 0 || index >= len(g.nodes) {
		return Node{}, false
	}
	return g.nodes[index], true
}

// Nodes returns a copy of the node list.
func (g *Graph) Nodes() []Node {
	if g == nil {
		return nil
	}
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Connections returns a copy of the connection list.
func (g *Graph) Connections() []Connection {
	if g == nil {
		return nil
	}
	out := make([]Connection, len(g.connections))
	copy(out, g.connections)
	return out
}

func (g *Graph) neighbors(index int) []edge {
	if g == nil || index < 0 || index >= len(g.adjacency) {
		return nil
	}
	return g.adjacency[index]
}

// NearestNode snaps an arbitrary point to the closest graph node. Callers
// querying paths toward free positions must snap first; the search heuristic
// is only admissible for goals that are graph nodes. Ties resolve to the
// lowest index so results stay reproducible.
func (g *Graph) NearestNode(point Vec3) (int, bool) {
	if g == nil || len(g.nodes) == 0 {
		return 0, false
	}
	best := 0
	bestDist := math.MaxFloat64
	for _, node := range g.nodes {
		dist := Distance(node.Position, point)
		if dist < bestDist {
			bestDist = dist
			best = node.Index
		}
	}
	return best, true
}
