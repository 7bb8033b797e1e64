package agent

import (
	"fmt"

	"depgraph/game"
	"depgraph/graph"

	"golang.org/x/exp/rand"
)

// UniformAttacker picks round(ratio * candidates) candidates, clamped into
// [min, max], uniformly without replacement.
type UniformAttacker struct {
	maxNumSelectCandidate   int
	minNumSelectCandidate   int
	numSelectCandidateRatio float64
}

func NewUniformAttacker(maxNumSelectCandidate, minNumSelectCandidate int, numSelectCandidateRatio float64) (*UniformAttacker, error) {
	if minNumSelectCandidate < 0 || maxNumSelectCandidate < minNumSelectCandidate || !isProb(numSelectCandidateRatio) {
		return nil, fmt.Errorf("uniform attacker (max=%d, min=%d, ratio=%v): %w",
			maxNumSelectCandidate, minNumSelectCandidate, numSelectCandidateRatio, ErrInvalidConfig)
	}
	return &UniformAttacker{
		maxNumSelectCandidate:   maxNumSelectCandidate,
		minNumSelectCandidate:   minNumSelectCandidate,
		numSelectCandidateRatio: numSelectCandidateRatio,
	}, nil
}

func (a *UniformAttacker) Name() string {
	return UniformName
}

func (a *UniformAttacker) SampleAction(g *graph.DependencyGraph, gs game.GameState, round, horizon int, rng *rand.Rand) game.AttackerAction {
	c := game.AttackCandidates(g, gs)
	n := c.Len()
	k := ActionCount(a.minNumSelectCandidate, a.maxNumSelectCandidate, n, roundRatio(n, a.numSelectCandidateRatio))
	return SelectCandidates(g, c, sampleIndices(n, k, rng))
}

func (a *UniformAttacker) SampleActions(g *graph.DependencyGraph, gs game.GameState, round, horizon, num int, mode BatchMode, rng *rand.Rand) []game.AttackerAction {
	return sampleBatch(num, mode, func() game.AttackerAction {
		return a.SampleAction(g, gs, round, horizon, rng)
	})
}

// SelectCandidates builds an action from candidate indices: edges come first,
// then AND nodes. A selected edge merges into its OR node's edge set and a
// selected node brings all of its in-edges.
func SelectCandidates(g *graph.DependencyGraph, c game.AttackCandidate, indices []int) game.AttackerAction {
	action := game.AttackerAction{}
	for _, idx := range indices {
		if idx < len(c.Edges) {
			action.AddEdge(g.Edge(c.Edges[idx]))
		} else {
			action.AddNode(g, c.Nodes[idx-len(c.Edges)])
		}
	}
	return action
}
