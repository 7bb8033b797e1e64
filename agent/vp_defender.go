package agent

import (
	"fmt"

	"depgraph/game"
	"depgraph/graph"

	"golang.org/x/exp/rand"
)

// ValuePropagationDefender tracks a belief over game states. Each node's threat
// is its propagated target loss, weighted by the belief mass of states where
// it is active or open to attack. Nodes above the threshold are protected with
// logistic weights exp(logisParam * threat), without replacement.
type ValuePropagationDefender struct {
	maxNumRes      int
	minNumRes      int
	numResRatio    float64
	logisParam     float64
	discFact       float64
	thres          float64
	numStateSample int
	maxNumBelief   int
	model          Attacker
}

type ValuePropagationConfig struct {
	MaxNumRes      int
	MinNumRes      int
	NumResRatio    float64
	LogisParam     float64
	DiscFact       float64
	Thres          float64
	NumStateSample int
	MaxNumBelief   int

	// Attacker model used to predict successors during belief updates.
	MaxNumAttCandidate   int
	MinNumAttCandidate   int
	NumAttCandidateRatio float64
}

func NewValuePropagationDefender(cfg ValuePropagationConfig) (*ValuePropagationDefender, error) {
	if cfg.MaxNumRes < cfg.MinNumRes || cfg.MinNumRes < 0 || !isProb(cfg.NumResRatio) ||
		!isNonNegative(cfg.LogisParam) || !isDiscount(cfg.DiscFact) || !isNonNegative(cfg.Thres) ||
		cfg.NumStateSample < 1 || cfg.MaxNumBelief < 1 {
		return nil, fmt.Errorf("value propagation defender %+v: %w", cfg, ErrInvalidConfig)
	}
	model, err := NewUniformAttacker(cfg.MaxNumAttCandidate, cfg.MinNumAttCandidate, cfg.NumAttCandidateRatio)
	if err != nil {
		return nil, err
	}
	return &ValuePropagationDefender{
		maxNumRes:      cfg.MaxNumRes,
		minNumRes:      cfg.MinNumRes,
		numResRatio:    cfg.NumResRatio,
		logisParam:     cfg.LogisParam,
		discFact:       cfg.DiscFact,
		thres:          cfg.Thres,
		numStateSample: cfg.NumStateSample,
		maxNumBelief:   cfg.MaxNumBelief,
		model:          model,
	}, nil
}

func (d *ValuePropagationDefender) Name() string {
	return ValuePropagationName
}

// Threat returns the expected threat per node, indexed by id-1. An empty belief
// is read as certainty that nothing is active.
func (d *ValuePropagationDefender) Threat(g *graph.DependencyGraph, belief game.Belief) []float64 {
	entries := belief.Entries()
	if len(entries) == 0 {
		entries = []game.BeliefEntry{{State: game.NewState(g.NodeCount()), Prob: 1}}
	}
	values := propagatedValues(g, d.discFact, defenderLoss)
	threat := make([]float64, g.NodeCount())
	for _, entry := range entries {
		exposed := make([]bool, g.NodeCount())
		for _, id := range entry.State.ActiveIDs() {
			exposed[id-1] = true
		}
		c := game.AttackCandidates(g, entry.State)
		for _, id := range c.Nodes {
			exposed[id-1] = true
		}
		for _, id := range c.Edges {
			exposed[g.Edge(id).Target-1] = true
		}
		for i, on := range exposed {
			if on {
				threat[i] += entry.Prob * values[i]
			}
		}
	}
	return threat
}

func (d *ValuePropagationDefender) SampleAction(g *graph.DependencyGraph, round, horizon int, belief game.Belief, rng *rand.Rand) game.DefenderAction {
	threat := d.Threat(g, belief)
	var pool []int
	var scores []float64
	for i, v := range threat {
		if v > d.thres {
			pool = append(pool, i+1)
			scores = append(scores, v)
		}
	}
	k := ActionCount(d.minNumRes, d.maxNumRes, len(pool), roundRatio(len(pool), d.numResRatio))
	ids := make([]int, 0, k)
	for _, idx := range softmaxIndices(scores, k, d.logisParam, rng) {
		ids = append(ids, pool[idx])
	}
	return game.ProtectAll(g, ids)
}

func (d *ValuePropagationDefender) UpdateBelief(g *graph.DependencyGraph, belief game.Belief, def game.DefenderAction, obs game.Observation, round, horizon int, rng *rand.Rand) (game.Belief, error) {
	return UpdateBelief(g, belief, def, obs, round, horizon, d.model, d.numStateSample, d.maxNumBelief, rng)
}
