package nav

import (
	"container/heap"
	"fmt"
)

// Path is the result of a successful search: the visited node indices in
// order, their world positions, and the summed edge cost.
type Path struct {
	Nodes     []int
	Positions []Vec3
	Cost      float64
}

// searchNode is the transient A* working state for one discovered graph node.
// It lives only for the duration of a single FindPath call.
type searchNode struct {
	index     int
	g         float64
	h         float64
	f         float64
	parent    *searchNode
	heapIndex int
	closed    bool
}

func (n *searchNode) setParent(parent *searchNode) {
	// A node chaining to itself means the graph or the relaxation logic is
	// corrupted; that is a programming error, not a runtime condition.
	if parent != nil && (parent == n || parent.index == n.index) {
		panic(fmt.Sprintf("nav: search node %d assigned itself as predecessor", n.index))
	}
	n.parent = parent
}

type searchQueue []*searchNode

func (q searchQueue) Len() int { return len(q) }

// Less orders by F, breaking ties on smaller G and then smaller node index so
// path choice is deterministic in symmetric graphs.
func (q searchQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	if q[i].g != q[j].g {
		return q[i].g < q[j].g
	}
	return q[i].index < q[j].index
}

func (q searchQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].heapIndex = i
	q[j].heapIndex = j
}

func (q *searchQueue) Push(x any) {
	n := len(*q)
	item := x.(*searchNode)
	item.heapIndex = n
	*q = append(*q, item)
}

func (q *searchQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.heapIndex = -1
	*q = old[:n-1]
	return item
}

// FindPath runs A* between two graph nodes. It reports false when no path
// exists; an unreachable goal is a legitimate outcome, never a panic. Equal-F
// candidates expand lowest-G first.
func (g *Graph) FindPath(start, goal int) (Path, bool) {
	if g == nil {
		return Path{}, false
	}
	startNode, ok := g.Node(start)
	if !ok {
		return Path{}, false
	}
	goalNode, ok := g.Node(goal)
	if !ok {
		return Path{}, false
	}
	if start == goal {
		return Path{
			Nodes:     []int{start},
			Positions: []Vec3{startNode.Position},
			Cost:      0,
		}, true
	}

	open := &searchQueue{}
	heap.Init(open)
	discovered := make(map[int]*searchNode, len(g.nodes)/4+1)

	first := &searchNode{
		index: start,
		g:     0,
		h:     Distance(startNode.Position, goalNode.Position),
	}
	first.f = first.g + first.h
	discovered[start] = first
	heap.Push(open, first)

	for open.Len() > 0 {
		current := heap.Pop(open).(*searchNode)
		if current.index == goal {
			return g.assemblePath(current), true
		}
		current.closed = true

		for _, edge := range g.neighbors(current.index) {
			tentative := current.g + edge.cost
			next, seen := discovered[edge.to]
			if !seen {
				position, _ := g.Node(edge.to)
				next = &searchNode{
					index:     edge.to,
					g:         tentative,
					h:         Distance(position.Position, goalNode.Position),
					heapIndex: -1,
				}
				next.f = next.g + next.h
				next.setParent(current)
				discovered[edge.to] = next
				heap.Push(open, next)
				continue
			}
			if tentative >= next.g {
				continue
			}
			// Strictly better G: relax, reopening the node if it was
			// already closed.
			next.g = tentative
			next.f = next.g + next.h
			next.setParent(current)
			if next.closed {
				next.closed = false
				heap.Push(open, next)
			} else if next.heapIndex >= 0 {
				heap.Fix(open, next.heapIndex)
			} else {
				heap.Push(open, next)
			}
		}
	}
	return Path{}, false
}

// FindPathTo snaps an arbitrary destination point to the nearest node and
// searches from the nearest node to the origin point.
func (g *Graph) FindPathTo(origin, destination Vec3) (Path, bool) {
	if g == nil {
		return Path{}, false
	}
	start, ok := g.NearestNode(origin)
	if !ok {
		return Path{}, false
	}
	goal, ok := g.NearestNode(destination)
	if !ok {
		return Path{}, false
	}
	return g.FindPath(start, goal)
}

func (g *Graph) assemblePath(end *searchNode) Path {
	count := 0
	for node := end; node != nil; node = node.parent {
		count++
	}
	path := Path{
		Nodes:     make([]int, count),
		Positions: make([]Vec3, count),
		Cost:      end.g,
	}
	i := count - 1
	for node := end; node != nil; node = node.parent {
		path.Nodes[i] = node.index
		if graphNode, ok := g.Node(node.index); ok {
			path.Positions[i] = graphNode.Position
		}
		i--
	}
	return path
}
