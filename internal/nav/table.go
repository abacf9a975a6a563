package nav

// Route is one precomputed lookup entry: the node-index path from origin to
// destination and its total cost.
type Route struct {
	Nodes []int
	Cost  float64
}

type pairKey struct {
	origin      int
	destination int
}

// Table answers cost/path queries in O(1) without re-running search. It is
// write-once: built in full, then treated as immutable by every consumer. A
// graph topology change invalidates the table and requires a full rebuild
// before the next query.
type Table struct {
	graph  *Graph
	routes map[pairKey]Route
}

// BuildTable precomputes routes for every ordered node pair by running the
// search exhaustively. Unreachable pairs are simply absent from the table.
func BuildTable(graph *Graph) *Table {
	if graph == nil {
		return &Table{routes: map[pairKey]Route{}}
	}
	pairs := make([][2]int, 0, graph.NodeCount()*graph.NodeCount())
	for origin := 0; origin < graph.NodeCount(); origin++ {
		for destination := 0; destination < graph.NodeCount(); destination++ {
			pairs = append(pairs, [2]int{origin, destination})
		}
	}
	return BuildTablePairs(graph, pairs)
}

// BuildTablePairs precomputes routes for a selected set of ordered pairs.
func BuildTablePairs(graph *Graph, pairs [][2]int) *Table {
	table := &Table{
		graph:  graph,
		routes: make(map[pairKey]Route, len(pairs)),
	}
	if graph == nil {
		return table
	}
	for _, pair := range pairs {
		path, ok := graph.FindPath(pair[0], pair[1])
		if !ok {
			continue
		}
		table.routes[pairKey{origin: pair[0], destination: pair[1]}] = Route{
			Nodes: path.Nodes,
			Cost:  path.Cost,
		}
	}
	return table
}

// Lookup returns the precomputed route between two nodes. A pair the build
// never covered reports false; callers fall back to a direct search or treat
// the destination as unreachable.
func (t *Table) Lookup(origin, destination int) (Route, bool) {
	if t == nil {
		return Route{}, false
	}
	route, ok := t.routes[pairKey{origin: origin, destination: destination}]
	if !ok {
		return Route{}, false
	}
	return Route{Nodes: append([]int(nil), route.Nodes...), Cost: route.Cost}, true
}

// Cost returns only the precomputed cost between two nodes.
func (t *Table) Cost(origin, destination int) (float64, bool) {
	if t == nil {
		return 0, false
	}
	route, ok := t.routes[pairKey{origin: origin, destination: destination}]
	if !ok {
		return 0, false
	}
	return route.Cost, true
}

// Len reports the number of stored routes.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.routes)
}

// Graph exposes the graph the table was built against.
func (t *Table) Graph() *Graph {
	if t == nil {
		return nil
	}
	return t.graph
}

func (t *Table) allRoutes() map[pairKey]Route {
	if t == nil {
		return nil
	}
	return t.routes
}
