package agent

import (
	"fmt"

	"depgraph/game"
	"depgraph/graph"

	"golang.org/x/exp/rand"
)

// UpdateBelief is a discrete Bayesian filter. Each prior state is advanced
// under the known defender action and numSamples attacks drawn from the
// attacker model; successors are weighted by prior mass and the likelihood of
// the observation, grouped by state and renormalized.
//
// An empty prior yields an empty posterior. When no successor explains the
// observation, the posterior is the state read directly off the alerts.
func UpdateBelief(
	g *graph.DependencyGraph,
	prior game.Belief,
	def game.DefenderAction,
	obs game.Observation,
	round, horizon int,
	model Attacker,
	numSamples int,
	maxStates int,
	rng *rand.Rand,
) (game.Belief, error) {
	if err := prior.Validate(); err != nil {
		return game.Belief{}, err
	}
	if err := game.ValidateIDs(obs.Alerts, g.NodeCount()); err != nil {
		return game.Belief{}, fmt.Errorf("observed alerts: %w", err)
	}
	if err := game.ValidateIDs(obs.Defended, g.NodeCount()); err != nil {
		return game.Belief{}, fmt.Errorf("observed defense: %w", err)
	}
	if prior.IsEmpty() {
		return game.Belief{}, nil
	}
	if numSamples <= 0 {
		return game.Belief{}, fmt.Errorf("belief update with %d samples: %w", numSamples, ErrInvalidConfig)
	}
	w := game.NewWeights()
	for _, entry := range prior.Entries() {
		actions := model.SampleActions(g, entry.State, round, horizon, numSamples, Independent, rng)
		for _, att := range actions {
			next := game.Resolve(g, entry.State, att, def, rng)
			if l := game.Likelihood(g, next, obs); l > 0 {
				w.Add(next, entry.Prob*l/float64(len(actions)))
			}
		}
	}
	if w.Total() == 0 {
		return game.CertainBelief(observedState(g, obs)), nil
	}
	posterior, err := w.Normalize()
	if err != nil {
		return game.Belief{}, err
	}
	return posterior.Truncate(maxStates), nil
}

// observedState trusts the alerts, less whatever was just protected.
func observedState(g *graph.DependencyGraph, obs game.Observation) game.GameState {
	return game.NewState(g.NodeCount(), obs.Alerts...).Without(obs.Defended...)
}
