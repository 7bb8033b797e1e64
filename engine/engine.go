package engine

import (
	"errors"

	"depgraph/experiments/metrics"
	"depgraph/game"
)

var (
	ErrGameOver      = errors.New("game is over")
	ErrInvalidConfig = errors.New("invalid simulation configuration")
)

type Phase int

const (
	RoundStart Phase = iota
	ActionsCollected
	StateResolved
	GameOver
)

func (p Phase) String() string {
	switch p {
	case ActionsCollected:
		return "ACTIONS_COLLECTED"
	case StateResolved:
		return "STATE_RESOLVED"
	case GameOver:
		return "GAME_OVER"
	default:
		return "ROUND_START"
	}
}

type Termination int

const (
	// HorizonOnly plays every round up to the horizon.
	HorizonOnly Termination = iota
	// AllTargetsOrHorizon also stops once every target is active.
	AllTargetsOrHorizon
)

// Round records one resolved round.
type Round struct {
	T           int
	Attack      game.AttackerAction
	Defense     game.DefenderAction
	Before      game.GameState
	After       game.GameState
	Observation game.Observation
	Payoff      game.Payoff // discounted marginal payoff
}

type Engine interface {
	// Run plays rounds until the game is over and returns the total payoffs.
	Run() (game.Payoff, metrics.GameMetric, error)
}

type Option func(s *Simulation)

func WithInitialState(gs game.GameState) Option {
	return func(s *Simulation) {
		s.initial = gs
	}
}

func WithTermination(t Termination) Option {
	return func(s *Simulation) {
		s.termination = t
	}
}

func WithRewardMode(mode game.RewardMode) Option {
	return func(s *Simulation) {
		s.rewardMode = mode
	}
}

func WithMetrics(c metrics.Collector) Option {
	return func(s *Simulation) {
		if c != nil {
			s.metrics = c
		}
	}
}

// WithHistory keeps every resolved round in memory.
// WithTrueStateDefender hands the defender the true state, as a certain
// belief, instead of its filtered belief.
func WithTrueStateDefender() Option {
	return func(s *Simulation) {
		s.trueState = true
	}
}

func WithHistory() Option {
	return func(s *Simulation) {
		s.keepHistory = true
	}
}
