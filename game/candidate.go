package game

import (
	"sort"

	"depgraph/graph"
)

// AttackCandidate is the attacker's legal move pool: inactive AND nodes whose
// in-edge sources are all active, and edges from active sources into inactive
// OR nodes.
type AttackCandidate struct {
	Nodes []int // AND node ids, ascending
	Edges []int // edge ids, ascending
}

func (c AttackCandidate) Len() int {
	return len(c.Nodes) + len(c.Edges)
}

func (c AttackCandidate) IsEmpty() bool {
	return c.Len() == 0
}

// AttackCandidates is a pure function of the graph and the state. It is empty
// once every target is active.
func AttackCandidates(g *graph.DependencyGraph, gs GameState) AttackCandidate {
	c := AttackCandidate{Nodes: []int{}, Edges: []int{}}
	if gs.AllActive(g.Targets()) {
		return c
	}
	for _, node := range g.Nodes() {
		if gs.IsActive(node.ID) {
			continue
		}
		in := g.IncomingEdges(node.ID)
		switch node.Activation {
		case graph.AND:
			ready := true
			for _, e := range in {
				if !gs.IsActive(e.Source) {
					ready = false
					break
				}
			}
			if ready {
				c.Nodes = append(c.Nodes, node.ID)
			}
		case graph.OR:
			for _, e := range in {
				if gs.IsActive(e.Source) {
					c.Edges = append(c.Edges, e.ID)
				}
			}
		}
	}
	sort.Ints(c.Edges)
	return c
}

// DefenderCandidate is the pool of nodes a defender may protect this round.
type DefenderCandidate struct {
	Nodes []int // ascending, unique
}

func NewDefenderCandidate(ids []int) DefenderCandidate {
	seen := make(map[int]bool, len(ids))
	nodes := []int{}
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			nodes = append(nodes, id)
		}
	}
	sort.Ints(nodes)
	return DefenderCandidate{Nodes: nodes}
}

// MinCutCandidates restricts the pool to the graph's min-cut vertex set.
func MinCutCandidates(g *graph.DependencyGraph) DefenderCandidate {
	return NewDefenderCandidate(g.MinCut())
}

func AllNodeCandidates(g *graph.DependencyGraph) DefenderCandidate {
	ids := make([]int, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		ids = append(ids, n.ID)
	}
	return NewDefenderCandidate(ids)
}

func TargetCandidates(g *graph.DependencyGraph) DefenderCandidate {
	return NewDefenderCandidate(g.Targets())
}

func RootCandidates(g *graph.DependencyGraph) DefenderCandidate {
	return NewDefenderCandidate(g.Roots())
}
