package game

import (
	"depgraph/graph"

	"golang.org/x/exp/rand"
)

// Observation is what the defender sees after a round.
type Observation struct {
	Alerts        []int // node ids raising an alert, ascending
	Defended      []int // node ids protected this round, ascending
	TimeStepsLeft int
}

// Observe draws alerts for every node: PosActiveProb while active,
// PosInactiveProb otherwise.
func Observe(g *graph.DependencyGraph, gs GameState, def DefenderAction, timeStepsLeft int, rng *rand.Rand) Observation {
	obs := Observation{
		Alerts:        []int{},
		Defended:      def.Nodes(),
		TimeStepsLeft: timeStepsLeft,
	}
	for _, node := range g.Nodes() {
		if draw(rng, alertProb(node, gs)) {
			obs.Alerts = append(obs.Alerts, node.ID)
		}
	}
	return obs
}

// Likelihood is the probability of seeing the observation's alerts from gs.
func Likelihood(g *graph.DependencyGraph, gs GameState, obs Observation) float64 {
	alerted := make(map[int]bool, len(obs.Alerts))
	for _, id := range obs.Alerts {
		alerted[id] = true
	}
	l := 1.0
	for _, node := range g.Nodes() {
		p := alertProb(node, gs)
		if alerted[node.ID] {
			l *= p
		} else {
			l *= 1 - p
		}
		if l == 0 {
			return 0
		}
	}
	return l
}

func alertProb(node *graph.Node, gs GameState) float64 {
	if gs.IsActive(node.ID) {
		return node.PosActiveProb
	}
	return node.PosInactiveProb
}
