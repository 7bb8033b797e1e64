package game

import (
	"depgraph/graph"

	"golang.org/x/exp/rand"
)

// Resolve applies one round. An attacked AND node activates with its ActProb
// when every in-edge is fired, unblocked and comes from an active source. An
// attacked OR node activates when any fired, unblocked edge from an active
// source succeeds with the edge's ActProb. Protected nodes end the round
// inactive. Nodes are visited in ascending id order so a fixed seed replays the
// same draws.
func Resolve(g *graph.DependencyGraph, gs GameState, att AttackerAction, def DefenderAction, rng *rand.Rand) GameState {
	var activated []int
	for _, id := range att.Nodes() {
		node := g.Node(id)
		if node == nil || gs.IsActive(id) || def.Contains(id) && len(def[id]) == 0 {
			continue
		}
		fired := att[id]
		switch node.Activation {
		case graph.AND:
			if andReady(g, gs, node, fired, def) && draw(rng, node.ActProb) {
				activated = append(activated, id)
			}
		case graph.OR:
			for _, edgeID := range fired {
				e := g.Edge(edgeID)
				if e == nil || e.Target != id || def.Blocks(id, edgeID) || !gs.IsActive(e.Source) {
					continue
				}
				if draw(rng, e.ActProb) {
					activated = append(activated, id)
					break
				}
			}
		}
	}
	return gs.With(activated...).Without(def.Nodes()...)
}

func andReady(g *graph.DependencyGraph, gs GameState, node *graph.Node, fired []int, def DefenderAction) bool {
	firedSet := make(map[int]bool, len(fired))
	for _, id := range fired {
		firedSet[id] = true
	}
	for _, e := range g.IncomingEdges(node.ID) {
		if !firedSet[e.ID] || def.Blocks(node.ID, e.ID) || !gs.IsActive(e.Source) {
			return false
		}
	}
	return true
}

// draw skips the random source for certain outcomes.
func draw(rng *rand.Rand, p float64) bool {
	if p >= 1 {
		return true
	}
	if p <= 0 {
		return false
	}
	return rng.Float64() < p
}
