package game

import "depgraph/graph"

type RewardMode int

const (
	// ActiveTargets pays every target active at the end of the round.
	ActiveTargets RewardMode = iota
	// NewlyActivatedTargets pays only targets that became active this round.
	NewlyActivatedTargets
)

func (m RewardMode) String() string {
	if m == NewlyActivatedTargets {
		return "newlyActivated"
	}
	return "activeTargets"
}

type Payoff struct {
	Attacker float64
	Defender float64
}

func (p Payoff) Add(other Payoff) Payoff {
	return Payoff{Attacker: p.Attacker + other.Attacker, Defender: p.Defender + other.Defender}
}

func (p Payoff) Scale(f float64) Payoff {
	return Payoff{Attacker: p.Attacker * f, Defender: p.Defender * f}
}

// RoundPayoff is the undiscounted payoff of the transition prev -> next.
// Costs and penalties are signed contributions and are added as stored.
func RoundPayoff(g *graph.DependencyGraph, prev, next GameState, att AttackerAction, def DefenderAction, mode RewardMode) Payoff {
	var p Payoff
	for _, id := range g.Targets() {
		if !next.IsActive(id) {
			continue
		}
		if mode == NewlyActivatedTargets && prev.IsActive(id) {
			continue
		}
		node := g.Node(id)
		p.Attacker += node.AReward
		p.Defender += node.DPenalty
	}
	for id, edges := range att {
		node := g.Node(id)
		if node == nil {
			continue
		}
		if node.Activation == graph.AND {
			p.Attacker += node.ACost
			continue
		}
		for _, edgeID := range edges {
			if e := g.Edge(edgeID); e != nil {
				p.Attacker += e.ACost
			}
		}
	}
	for id := range def {
		if node := g.Node(id); node != nil {
			p.Defender += node.DCost
		}
	}
	return p
}

// WorstRoundPayoff is the defender's payoff when every target is active and
// every node is protected.
func WorstRoundPayoff(g *graph.DependencyGraph) float64 {
	worst := 0.0
	for _, id := range g.Targets() {
		worst += g.Node(id).DPenalty
	}
	for _, node := range g.Nodes() {
		worst += node.DCost
	}
	return worst
}
