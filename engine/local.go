package engine

import (
	"fmt"
	"math"

	"depgraph/agent"
	"depgraph/experiments/metrics"
	"depgraph/game"
	"depgraph/graph"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
)

// Simulation is the round state machine of one game. The graph is shared
// read-only; everything else belongs to this simulation alone.
type Simulation struct {
	graph       *graph.DependencyGraph
	attacker    agent.Attacker
	defender    agent.Defender
	horizon     int
	discount    float64
	termination Termination
	rewardMode  game.RewardMode
	initial     game.GameState
	rng         *rand.Rand
	metrics     metrics.Collector
	keepHistory bool
	trueState   bool

	state    game.GameState
	belief   game.Belief
	t        int // round about to be played, from 1
	phase    Phase
	total    game.Payoff
	marginal game.Payoff
	lastObs  game.Observation
	history  []Round
}

func NewSimulation(
	g *graph.DependencyGraph,
	attacker agent.Attacker,
	defender agent.Defender,
	horizon int,
	discount float64,
	rng *rand.Rand,
	options ...Option,
) (*Simulation, error) {
	if g == nil || attacker == nil || defender == nil || rng == nil {
		return nil, fmt.Errorf("missing graph, strategy or random source: %w", ErrInvalidConfig)
	}
	if horizon < 1 {
		return nil, fmt.Errorf("horizon %d: %w", horizon, ErrInvalidConfig)
	}
	if !(discount > 0 && discount <= 1) {
		return nil, fmt.Errorf("discount factor %v: %w", discount, ErrInvalidConfig)
	}
	s := &Simulation{ // Default values
		graph:       g,
		attacker:    attacker,
		defender:    defender,
		horizon:     horizon,
		discount:    discount,
		termination: HorizonOnly,
		rewardMode:  game.ActiveTargets,
		initial:     game.NewState(g.NodeCount()),
		rng:         rng,
		metrics:     metrics.NewDummyCollector(),
	}
	for _, option := range options {
		option(s)
	}
	if s.initial.NodeCount() != g.NodeCount() {
		return nil, fmt.Errorf("initial state over %d nodes, graph has %d: %w",
			s.initial.NodeCount(), g.NodeCount(), ErrInvalidConfig)
	}
	s.Reset()
	return s, nil
}

// Reset starts a new game from the initial state. The defender's belief starts
// certain of the initial state.
func (s *Simulation) Reset() {
	s.state = s.initial
	s.belief = game.CertainBelief(s.initial)
	s.t = 1
	s.phase = RoundStart
	s.total = game.Payoff{}
	s.marginal = game.Payoff{}
	s.lastObs = game.Observation{Alerts: []int{}, Defended: []int{}, TimeStepsLeft: s.horizon}
	s.history = nil
	s.metrics.Start()
	s.checkGameOver()
	log.Debug().Msgf("game reset: %d nodes, horizon %d, discount %v", s.graph.NodeCount(), s.horizon, s.discount)
}

// Step plays one round with both strategies sampling their actions.
func (s *Simulation) Step() (Round, error) {
	if s.IsGameOver() {
		return Round{}, ErrGameOver
	}
	belief := s.belief
	if s.trueState {
		belief = game.CertainBelief(s.state)
	}
	def := s.defender.SampleAction(s.graph, s.t, s.horizon, belief, s.rng)
	return s.StepWith(def)
}

// StepWith plays one round with the given defender action. The attacker still
// samples from the true state before the defense is applied. A failed belief
// update leaves the game at the start of the same round.
func (s *Simulation) StepWith(def game.DefenderAction) (Round, error) {
	if s.IsGameOver() {
		return Round{}, ErrGameOver
	}
	if def == nil {
		def = game.DefenderAction{}
	}
	att := s.attacker.SampleAction(s.graph, s.state, s.t, s.horizon, s.rng)
	s.phase = ActionsCollected

	before := s.state
	after := game.Resolve(s.graph, before, att, def, s.rng)
	s.phase = StateResolved

	payoff := game.RoundPayoff(s.graph, before, after, att, def, s.rewardMode).Scale(math.Pow(s.discount, float64(s.t-1)))
	obs := game.Observe(s.graph, after, def, s.horizon-s.t, s.rng)
	belief, err := s.defender.UpdateBelief(s.graph, s.belief, def, obs, s.t, s.horizon, s.rng)
	if err != nil {
		s.phase = RoundStart
		return Round{}, fmt.Errorf("round %d belief update: %w", s.t, err)
	}

	round := Round{
		T:           s.t,
		Attack:      att,
		Defense:     def,
		Before:      before,
		After:       after,
		Observation: obs,
		Payoff:      payoff,
	}
	s.state = after
	s.belief = belief
	s.marginal = payoff
	s.total = s.total.Add(payoff)
	s.lastObs = obs
	if s.keepHistory {
		s.history = append(s.history, round)
	}
	s.metrics.AddRound(len(att), len(def), after.ActiveCount(), payoff)
	log.Debug().
		Int("round", s.t).
		Ints("attacked", att.Nodes()).
		Ints("defended", def.Nodes()).
		Ints("active", after.ActiveIDs()).
		Float64("defender", payoff.Defender).
		Msg("round resolved")

	s.t++
	s.phase = RoundStart
	s.checkGameOver()
	return round, nil
}

// Run plays the remaining rounds.
func (s *Simulation) Run() (game.Payoff, metrics.GameMetric, error) {
	for !s.IsGameOver() {
		if _, err := s.Step(); err != nil {
			return s.total, metrics.GameMetric{}, err
		}
	}
	gameMetric := s.metrics.Complete(s.state, s.graph.Targets())
	log.Debug().Msgf("game over after %d rounds: attacker %.3f, defender %.3f", s.t-1, s.total.Attacker, s.total.Defender)
	return s.total, gameMetric, nil
}

func (s *Simulation) checkGameOver() {
	if s.t > s.horizon || s.termination == AllTargetsOrHorizon && s.state.AllActive(s.graph.Targets()) {
		s.phase = GameOver
	}
}

func (s *Simulation) IsGameOver() bool {
	return s.phase == GameOver
}

func (s *Simulation) Phase() Phase {
	return s.phase
}

// Round is the number of the round about to be played, from 1.
func (s *Simulation) Round() int {
	return s.t
}

func (s *Simulation) Horizon() int {
	return s.horizon
}

func (s *Simulation) Discount() float64 {
	return s.discount
}

func (s *Simulation) TimeStepsLeft() int {
	if left := s.horizon - s.t + 1; left > 0 {
		return left
	}
	return 0
}

func (s *Simulation) Graph() *graph.DependencyGraph {
	return s.graph
}

func (s *Simulation) State() game.GameState {
	return s.state
}

func (s *Simulation) Belief() game.Belief {
	return s.belief
}

// DefenderObservation is the observation of the last resolved round.
func (s *Simulation) DefenderObservation() game.Observation {
	return s.lastObs
}

func (s *Simulation) AttackerTotalPayoff() float64 {
	return s.total.Attacker
}

func (s *Simulation) DefenderTotalPayoff() float64 {
	return s.total.Defender
}

// AttackerMarginalPayoff is the discounted payoff of the last round.
func (s *Simulation) AttackerMarginalPayoff() float64 {
	return s.marginal.Attacker
}

func (s *Simulation) DefenderMarginalPayoff() float64 {
	return s.marginal.Defender
}

// WorstRemainingReward is the lowest discounted payoff the defender could still
// collect: every target active and every node protected in each remaining round.
func (s *Simulation) WorstRemainingReward() float64 {
	worst := game.WorstRoundPayoff(s.graph)
	total := 0.0
	for t := s.t; t <= s.horizon; t++ {
		total += math.Pow(s.discount, float64(t-1)) * worst
	}
	return total
}

// History is empty unless the simulation was built WithHistory.
func (s *Simulation) History() []Round {
	return s.history
}
