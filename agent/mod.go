package agent

import (
	"errors"
	"math"

	"depgraph/game"
	"depgraph/graph"

	"golang.org/x/exp/rand"
)

var (
	ErrInvalidConfig   = errors.New("invalid strategy configuration")
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// Attacker samples attacks from the true game state.
type Attacker interface {
	Name() string
	SampleAction(g *graph.DependencyGraph, gs game.GameState, round, horizon int, rng *rand.Rand) game.AttackerAction
	SampleActions(g *graph.DependencyGraph, gs game.GameState, round, horizon, num int, mode BatchMode, rng *rand.Rand) []game.AttackerAction
}

// Defender samples protections from its belief. Strategies that do not track
// history return the empty belief from UpdateBelief.
type Defender interface {
	Name() string
	SampleAction(g *graph.DependencyGraph, round, horizon int, belief game.Belief, rng *rand.Rand) game.DefenderAction
	UpdateBelief(g *graph.DependencyGraph, belief game.Belief, def game.DefenderAction, obs game.Observation, round, horizon int, rng *rand.Rand) (game.Belief, error)
}

type BatchMode int

const (
	// Independent draws may repeat an action.
	Independent BatchMode = iota
	// Distinct redraws until the batch holds no repeated action.
	Distinct
)

// maxDrawsPerAction bounds the redraws of a Distinct batch when fewer distinct
// actions exist than requested.
const maxDrawsPerAction = 100

func sampleBatch(num int, mode BatchMode, sample func() game.AttackerAction) []game.AttackerAction {
	actions := make([]game.AttackerAction, 0, num)
	if mode == Independent {
		for i := 0; i < num; i++ {
			actions = append(actions, sample())
		}
		return actions
	}
	seen := make(map[string]bool, num)
	for draws := 0; len(actions) < num && draws < num*maxDrawsPerAction; draws++ {
		a := sample()
		if key := a.Key(); !seen[key] {
			seen[key] = true
			actions = append(actions, a)
		}
	}
	return actions
}

// ActionCount turns a goal into the number of candidates to pick: the goal is
// clamped into [min, max] and then into [0, poolSize].
func ActionCount(minCount, maxCount, poolSize, goal int) int {
	count := goal
	if count < minCount {
		count = minCount
	}
	if count > maxCount {
		count = maxCount
	}
	if count > poolSize {
		count = poolSize
	}
	if count < 0 {
		count = 0
	}
	return count
}

func roundRatio(poolSize int, ratio float64) int {
	return int(math.Round(float64(poolSize) * ratio))
}

// sampleIndices draws k distinct indices from [0, n) by rejection.
func sampleIndices(n, k int, rng *rand.Rand) []int {
	if k > n {
		k = n
	}
	chosen := make([]bool, n)
	indices := make([]int, 0, k)
	for len(indices) < k {
		idx := rng.Intn(n)
		if !chosen[idx] {
			chosen[idx] = true
			indices = append(indices, idx)
		}
	}
	return indices
}

// softmaxIndices draws k distinct indices, each step choosing among the rest
// with probability proportional to exp(lambda * score).
func softmaxIndices(scores []float64, k int, lambda float64, rng *rand.Rand) []int {
	if k > len(scores) {
		k = len(scores)
	}
	remaining := make([]int, len(scores))
	for i := range remaining {
		remaining[i] = i
	}
	indices := make([]int, 0, k)
	weights := make([]float64, len(scores))
	for len(indices) < k {
		best := math.Inf(-1)
		for _, i := range remaining {
			best = math.Max(best, lambda*scores[i])
		}
		total := 0.0
		for j, i := range remaining {
			weights[j] = math.Exp(lambda*scores[i] - best)
			total += weights[j]
		}
		r := rng.Float64() * total
		pick := len(remaining) - 1
		for j := range remaining {
			r -= weights[j]
			if r < 0 {
				pick = j
				break
			}
		}
		indices = append(indices, remaining[pick])
		remaining = append(remaining[:pick], remaining[pick+1:]...)
	}
	return indices
}

func isProb(p float64) bool {
	return p >= 0 && p <= 1
}

// isNonNegative is false for NaN and +Inf.
func isNonNegative(x float64) bool {
	return x >= 0 && !math.IsInf(x, 1)
}

func isDiscount(d float64) bool {
	return d > 0 && d <= 1
}
