package agent

import (
	"fmt"

	"depgraph/game"
	"depgraph/graph"

	"golang.org/x/exp/rand"
)

// ValuePropagationAttacker scores candidates by the discounted target reward
// they open up and samples them with quantal response weights exp(qrParam * score).
type ValuePropagationAttacker struct {
	maxNumSelectCandidate   int
	minNumSelectCandidate   int
	numSelectCandidateRatio float64
	qrParam                 float64
	discFact                float64
}

func NewValuePropagationAttacker(maxNumSelectCandidate, minNumSelectCandidate int, numSelectCandidateRatio, qrParam, discFact float64) (*ValuePropagationAttacker, error) {
	if minNumSelectCandidate < 0 || maxNumSelectCandidate < minNumSelectCandidate ||
		!isProb(numSelectCandidateRatio) || !isNonNegative(qrParam) || !isDiscount(discFact) {
		return nil, fmt.Errorf("value propagation attacker (max=%d, min=%d, ratio=%v, qr=%v, discount=%v): %w",
			maxNumSelectCandidate, minNumSelectCandidate, numSelectCandidateRatio, qrParam, discFact, ErrInvalidConfig)
	}
	return &ValuePropagationAttacker{
		maxNumSelectCandidate:   maxNumSelectCandidate,
		minNumSelectCandidate:   minNumSelectCandidate,
		numSelectCandidateRatio: numSelectCandidateRatio,
		qrParam:                 qrParam,
		discFact:                discFact,
	}, nil
}

func (a *ValuePropagationAttacker) Name() string {
	return ValuePropagationName
}

func (a *ValuePropagationAttacker) SampleAction(g *graph.DependencyGraph, gs game.GameState, round, horizon int, rng *rand.Rand) game.AttackerAction {
	c := game.AttackCandidates(g, gs)
	n := c.Len()
	k := ActionCount(a.minNumSelectCandidate, a.maxNumSelectCandidate, n, roundRatio(n, a.numSelectCandidateRatio))
	if k == 0 {
		return game.AttackerAction{}
	}
	values := propagatedValues(g, a.discFact, attackerValue)
	scores := make([]float64, 0, n)
	for _, id := range c.Edges {
		e := g.Edge(id)
		scores = append(scores, e.ActProb*values[e.Target-1]+e.ACost)
	}
	for _, id := range c.Nodes {
		node := g.Node(id)
		scores = append(scores, node.ActProb*values[id-1]+node.ACost)
	}
	return SelectCandidates(g, c, softmaxIndices(scores, k, a.qrParam, rng))
}

func (a *ValuePropagationAttacker) SampleActions(g *graph.DependencyGraph, gs game.GameState, round, horizon, num int, mode BatchMode, rng *rand.Rand) []game.AttackerAction {
	return sampleBatch(num, mode, func() game.AttackerAction {
		return a.SampleAction(g, gs, round, horizon, rng)
	})
}
