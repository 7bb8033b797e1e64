package rl

import (
	"errors"
	"fmt"
	"strings"

	"depgraph/engine"
	"depgraph/experiments/metrics"
	"depgraph/game"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

var ErrInvalidConfig = errors.New("invalid rl environment configuration")

const DefaultLookback = 3

type Outcome int

const (
	Valid Outcome = iota
	// IllegalMove ends the episode with the worst remaining reward.
	IllegalMove
	// ConfigError reports a misuse of the environment, such as stepping a
	// finished episode. The episode is over.
	ConfigError
)

func (o Outcome) String() string {
	switch o {
	case IllegalMove:
		return "illegal_move"
	case ConfigError:
		return "config_error"
	default:
		return "valid"
	}
}

// RepeatPolicy decides what selecting an already accumulated node means.
type RepeatPolicy int

const (
	// RepeatAsPass resolves the round with the accumulated set.
	RepeatAsPass RepeatPolicy = iota
	// LoseOnRepeat treats the repeat as an illegal move.
	LoseOnRepeat
)

type StepResult struct {
	Observation []float64
	Reward      float64
	Done        bool
	Outcome     Outcome
	Err         error // set with ConfigError
}

type Option func(e *Env)

// WithProbCutoff sets the chance that any selection after the first resolves
// the round early.
func WithProbCutoff(p float64) Option {
	return func(e *Env) {
		e.probCutoff = p
	}
}

func WithRepeatPolicy(p RepeatPolicy) Option {
	return func(e *Env) {
		e.repeat = p
	}
}

// WithLookback sets how many past rounds the observation encodes.
func WithLookback(rounds int) Option {
	return func(e *Env) {
		e.lookback = rounds
	}
}

func WithRegistry(r *metrics.Registry) Option {
	return func(e *Env) {
		e.registry = r
	}
}

// Env lets a learner build the defender's action one node per call. The
// accumulated set is resolved as a full round on a pass, on a repeat, or on
// the early cutoff draw.
type Env struct {
	sim        *engine.Simulation
	rng        *rand.Rand
	probCutoff float64
	repeat     RepeatPolicy
	lookback   int
	registry   *metrics.Registry

	toDefend map[int]bool
	past     []game.Observation // most recent first, at most lookback
	done     bool
}

func NewEnv(sim *engine.Simulation, rng *rand.Rand, options ...Option) (*Env, error) {
	if sim == nil || rng == nil {
		return nil, fmt.Errorf("missing simulation or random source: %w", ErrInvalidConfig)
	}
	e := &Env{ // Default values
		sim:      sim,
		rng:      rng,
		repeat:   RepeatAsPass,
		lookback: DefaultLookback,
		toDefend: map[int]bool{},
	}
	for _, option := range options {
		option(e)
	}
	if e.probCutoff < 0 || e.probCutoff >= 1 {
		return nil, fmt.Errorf("cutoff probability %v: %w", e.probCutoff, ErrInvalidConfig)
	}
	if e.lookback < 1 {
		return nil, fmt.Errorf("lookback %d: %w", e.lookback, ErrInvalidConfig)
	}
	return e, nil
}

// Reset starts a new episode and returns its first observation.
func (e *Env) Reset() []float64 {
	e.sim.Reset()
	clear(e.toDefend)
	e.past = e.past[:0]
	e.done = e.sim.IsGameOver()
	if e.registry != nil {
		e.registry.RecordEpisode()
	}
	log.Debug().Msg("rl episode reset")
	return e.observation()
}

// NodeCount is the number of selectable nodes; NodeCount()+1 is the pass action.
func (e *Env) NodeCount() int {
	return e.sim.Graph().NodeCount()
}

func (e *Env) PassAction() int {
	return e.NodeCount() + 1
}

// ObservationSize is (2 + 2 * lookback) * NodeCount.
func (e *Env) ObservationSize() int {
	return (2 + 2*e.lookback) * e.NodeCount()
}

func (e *Env) Step(action int) StepResult {
	if e.done {
		return e.record(StepResult{
			Observation: e.observation(),
			Done:        true,
			Outcome:     ConfigError,
			Err:         engine.ErrGameOver,
		})
	}

	repeat := e.toDefend[action]
	if action == e.PassAction() ||
		len(e.toDefend) > 0 && e.rng.Float64() < e.probCutoff ||
		repeat && e.repeat == RepeatAsPass {
		return e.resolve()
	}

	if !e.sim.Graph().IsValidID(action) || repeat && e.repeat == LoseOnRepeat {
		log.Debug().Int("action", action).Msg("illegal selection")
		return e.lose()
	}

	e.toDefend[action] = true
	return e.record(StepResult{Observation: e.observation(), Outcome: Valid})
}

func (e *Env) resolve() StepResult {
	ids := make([]int, 0, len(e.toDefend))
	for id := range e.toDefend {
		ids = append(ids, id)
	}
	def := game.ProtectAll(e.sim.Graph(), ids)
	round, err := e.sim.StepWith(def)
	clear(e.toDefend)
	if err != nil {
		e.done = true
		log.Error().Err(err).Msg("round resolution failed")
		return e.record(StepResult{
			Observation: e.observation(),
			Done:        true,
			Outcome:     ConfigError,
			Err:         err,
		})
	}

	e.past = append([]game.Observation{round.Observation}, e.past...)
	if len(e.past) > e.lookback {
		e.past = e.past[:e.lookback]
	}
	e.done = e.sim.IsGameOver()
	return e.record(StepResult{
		Observation: e.observation(),
		Reward:      e.sim.DefenderMarginalPayoff(),
		Done:        e.done,
		Outcome:     Valid,
	})
}

func (e *Env) lose() StepResult {
	reward := e.sim.WorstRemainingReward()
	e.done = true
	return e.record(StepResult{
		Observation: e.observation(),
		Reward:      reward,
		Done:        true,
		Outcome:     IllegalMove,
	})
}

func (e *Env) record(r StepResult) StepResult {
	if e.registry != nil {
		e.registry.RecordStep(r.Outcome.String())
	}
	return r
}

// observation encodes, per node slot: the accumulated set, the time steps
// left, then for each past round k (0 is the last) the alerts and the
// protected nodes.
func (e *Env) observation() []float64 {
	n := e.NodeCount()
	obs := make([]float64, 0, e.ObservationSize())
	for id := 1; id <= n; id++ {
		obs = append(obs, indicator(e.toDefend[id]))
	}
	left := float64(e.sim.TimeStepsLeft())
	for id := 1; id <= n; id++ {
		obs = append(obs, left)
	}
	for k := 0; k < e.lookback; k++ {
		alerts, defended := map[int]bool{}, map[int]bool{}
		if k < len(e.past) {
			alerts = idSet(e.past[k].Alerts)
			defended = idSet(e.past[k].Defended)
		}
		for id := 1; id <= n; id++ {
			obs = append(obs, indicator(alerts[id]))
		}
		for id := 1; id <= n; id++ {
			obs = append(obs, indicator(defended[id]))
		}
	}
	return obs
}

// TotalPayoffs returns the discounted totals so far.
func (e *Env) TotalPayoffs() game.Payoff {
	return game.Payoff{
		Attacker: e.sim.AttackerTotalPayoff(),
		Defender: e.sim.DefenderTotalPayoff(),
	}
}

// Accumulated returns the nodes selected so far this round, ascending.
func (e *Env) Accumulated() []int {
	ids := []int{}
	for id := 1; id <= e.NodeCount(); id++ {
		if e.toDefend[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

func (e *Env) Done() bool {
	return e.done
}

// Render describes the defender's view of the episode.
func (e *Env) Render() string {
	var b strings.Builder
	obs := e.sim.DefenderObservation()
	fmt.Fprintf(&b, "round %d/%d, time steps left %d\n", e.sim.Round(), e.sim.Horizon(), obs.TimeStepsLeft)
	fmt.Fprintf(&b, "alerts: %v\n", obs.Alerts)
	fmt.Fprintf(&b, "defended: %v\n", obs.Defended)
	fmt.Fprintf(&b, "selected: %v\n", e.Accumulated())
	fmt.Fprintf(&b, "defender payoff: %.4f", e.sim.DefenderTotalPayoff())
	return b.String()
}

func idSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
