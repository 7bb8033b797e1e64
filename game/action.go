package game

import (
	"fmt"
	"sort"
	"strings"

	"depgraph/graph"
)

// AttackerAction maps each node being attacked to the edge ids used against
// it. An AND node carries all of its in-edges, an OR node the selected ones.
type AttackerAction map[int][]int

// AddNode attacks an AND node through all of its in-edges.
func (a AttackerAction) AddNode(g *graph.DependencyGraph, id int) {
	edges := []int{}
	for _, e := range g.IncomingEdges(id) {
		edges = append(edges, e.ID)
	}
	a[id] = edges
}

// AddEdge fires one edge into its target, merging with edges already selected
// against the same node.
func (a AttackerAction) AddEdge(e *graph.Edge) {
	edges := a[e.Target]
	for _, id := range edges {
		if id == e.ID {
			return
		}
	}
	edges = append(edges, e.ID)
	sort.Ints(edges)
	a[e.Target] = edges
}

func (a AttackerAction) Nodes() []int {
	return sortedKeys(a)
}

// Key identifies the action independently of map order.
func (a AttackerAction) Key() string {
	return actionKey(a)
}

// DefenderAction maps each protected node to the in-edges it blocks.
type DefenderAction map[int][]int

// Protect blocks every in-edge of the node.
func (d DefenderAction) Protect(g *graph.DependencyGraph, id int) {
	edges := []int{}
	for _, e := range g.IncomingEdges(id) {
		edges = append(edges, e.ID)
	}
	d[id] = edges
}

func (d DefenderAction) Contains(id int) bool {
	_, ok := d[id]
	return ok
}

// Blocks reports whether the edge into node is blocked this round.
func (d DefenderAction) Blocks(node, edge int) bool {
	for _, id := range d[node] {
		if id == edge {
			return true
		}
	}
	return false
}

func (d DefenderAction) Nodes() []int {
	return sortedKeys(d)
}

func (d DefenderAction) Key() string {
	return actionKey(d)
}

// ProtectAll builds a defender action over ids.
func ProtectAll(g *graph.DependencyGraph, ids []int) DefenderAction {
	d := DefenderAction{}
	for _, id := range ids {
		d.Protect(g, id)
	}
	return d
}

func sortedKeys(m map[int][]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func actionKey(m map[int][]int) string {
	var sb strings.Builder
	for _, k := range sortedKeys(m) {
		fmt.Fprintf(&sb, "%d:%v;", k, m[k])
	}
	return sb.String()
}
