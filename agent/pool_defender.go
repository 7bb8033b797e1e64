package agent

import (
	"fmt"
	"math"

	"depgraph/game"
	"depgraph/graph"

	"golang.org/x/exp/rand"
)

// PoolDefender protects a uniformly drawn subset of a structural candidate
// pool. It keeps no belief.
type PoolDefender struct {
	name         string
	pool         func(*graph.DependencyGraph) game.DefenderCandidate
	maxNumRes    int
	minNumRes    int
	numResRatio  float64
	numCandStdev float64
}

func newPoolDefender(name string, pool func(*graph.DependencyGraph) game.DefenderCandidate, maxNumRes, minNumRes int, numResRatio, numCandStdev float64) (*PoolDefender, error) {
	if maxNumRes < minNumRes || minNumRes < 0 || !isProb(numResRatio) || !isNonNegative(numCandStdev) {
		return nil, fmt.Errorf("%s defender (max=%d, min=%d, ratio=%v, stdev=%v): %w",
			name, maxNumRes, minNumRes, numResRatio, numCandStdev, ErrInvalidConfig)
	}
	return &PoolDefender{
		name:         name,
		pool:         pool,
		maxNumRes:    maxNumRes,
		minNumRes:    minNumRes,
		numResRatio:  numResRatio,
		numCandStdev: numCandStdev,
	}, nil
}

// NewMinCutDefender protects round(|cut| * ratio + N(0, 1) * stdev) nodes of
// the graph's min cut, clamped into [min, max] and [0, |cut|].
func NewMinCutDefender(maxNumRes, minNumRes int, numResRatio, numCandStdev float64) (*PoolDefender, error) {
	return newPoolDefender(MinCutName, game.MinCutCandidates, maxNumRes, minNumRes, numResRatio, numCandStdev)
}

// NewUniformDefender draws from every node.
func NewUniformDefender(maxNumRes, minNumRes int, numResRatio float64) (*PoolDefender, error) {
	return newPoolDefender(UniformName, game.AllNodeCandidates, maxNumRes, minNumRes, numResRatio, 0)
}

// NewGoalOnlyDefender draws from the targets.
func NewGoalOnlyDefender(maxNumRes, minNumRes int, numResRatio float64) (*PoolDefender, error) {
	return newPoolDefender(GoalOnlyName, game.TargetCandidates, maxNumRes, minNumRes, numResRatio, 0)
}

// NewRootOnlyDefender draws from the roots.
func NewRootOnlyDefender(maxNumRes, minNumRes int, numResRatio float64) (*PoolDefender, error) {
	return newPoolDefender(RootOnlyName, game.RootCandidates, maxNumRes, minNumRes, numResRatio, 0)
}

func (d *PoolDefender) Name() string {
	return d.name
}

// Count draws how many nodes to protect from a pool of poolSize.
func (d *PoolDefender) Count(poolSize int, rng *rand.Rand) int {
	goal := float64(poolSize) * d.numResRatio
	if d.numCandStdev > 0 {
		goal += rng.NormFloat64() * d.numCandStdev
	}
	return ActionCount(d.minNumRes, d.maxNumRes, poolSize, int(math.Round(goal)))
}

func (d *PoolDefender) SampleAction(g *graph.DependencyGraph, round, horizon int, belief game.Belief, rng *rand.Rand) game.DefenderAction {
	pool := d.pool(g).Nodes
	k := d.Count(len(pool), rng)
	ids := make([]int, 0, k)
	for _, idx := range sampleIndices(len(pool), k, rng) {
		ids = append(ids, pool[idx])
	}
	return game.ProtectAll(g, ids)
}

func (d *PoolDefender) UpdateBelief(g *graph.DependencyGraph, belief game.Belief, def game.DefenderAction, obs game.Observation, round, horizon int, rng *rand.Rand) (game.Belief, error) {
	return game.Belief{}, nil
}
