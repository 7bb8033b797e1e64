package agent

import "depgraph/graph"

// propagatedValues scores each node (indexed by id-1) by the best discounted
// target value reachable from it. Targets score at least their own value.
func propagatedValues(g *graph.DependencyGraph, discount float64, own func(*graph.Node) float64) []float64 {
	values := make([]float64, g.NodeCount())
	order := g.TopologicalOrder()
	for i := len(order) - 1; i >= 0; i-- {
		node := g.Node(order[i])
		v := 0.0
		if node.Type == graph.Target {
			v = own(node)
		}
		for _, e := range g.OutgoingEdges(node.ID) {
			child := g.Node(e.Target)
			p := child.ActProb
			if child.Activation == graph.OR {
				p = e.ActProb
			}
			if next := discount * p * values[child.ID-1]; next > v {
				v = next
			}
		}
		values[node.ID-1] = v
	}
	return values
}

func attackerValue(n *graph.Node) float64 {
	return n.AReward
}

func defenderLoss(n *graph.Node) float64 {
	if n.DPenalty < 0 {
		return -n.DPenalty
	}
	return n.DPenalty
}
