package experiments

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"depgraph/agent"
	"depgraph/engine"
	"depgraph/experiments/metrics"
	"depgraph/game"
	"depgraph/graph"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

var ErrInvalidConfig = errors.New("invalid experiment configuration")

// Config describes a batch of independent games between two strategies.
type Config struct {
	Attacker    string // encoded strategy, e.g. "uniform:maxNumSelectCandidate_2_..."
	Defender    string
	Horizon     int
	Discount    float64
	NumSim      int
	Seed        uint64 // game i uses Seed+i
	Workers     int    // defaults to GOMAXPROCS
	Termination engine.Termination
	RewardMode  game.RewardMode
}

// MeanResult summarizes the discounted payoffs of a batch.
type MeanResult struct {
	NumSim         int
	AttackerMean   float64
	AttackerStdev  float64
	DefenderMean   float64
	DefenderStdev  float64
	Games          []metrics.GameMetric
	MeanRounds     float64
	MeanActiveGoal float64
}

type RunOption func(r *runner)

type runner struct {
	registry *metrics.Registry
}

func WithRegistry(reg *metrics.Registry) RunOption {
	return func(r *runner) {
		r.registry = reg
	}
}

// RunSimulations plays cfg.NumSim games in parallel over the shared graph.
// Every game owns its simulation and random source, so results depend only on
// cfg.Seed.
func RunSimulations(ctx context.Context, g *graph.DependencyGraph, cfg Config, options ...RunOption) (MeanResult, error) {
	r := &runner{}
	for _, option := range options {
		option(r)
	}
	if cfg.NumSim < 1 {
		return MeanResult{}, fmt.Errorf("number of simulations %d: %w", cfg.NumSim, ErrInvalidConfig)
	}
	attacker, defender, err := strategies(cfg)
	if err != nil {
		return MeanResult{}, err
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	log.Info().Msgf("running %d simulations of %s vs %s on %d workers...", cfg.NumSim, attacker.Name(), defender.Name(), workers)

	games := make([]metrics.GameMetric, cfg.NumSim)
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i := 0; i < cfg.NumSim; i++ {
		i := i
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sim, err := engine.NewSimulation(g, attacker, defender, cfg.Horizon, cfg.Discount,
				rand.New(rand.NewSource(cfg.Seed+uint64(i))),
				engine.WithTermination(cfg.Termination),
				engine.WithRewardMode(cfg.RewardMode),
				engine.WithMetrics(metrics.NewCollector()),
			)
			if err != nil {
				return err
			}
			_, gameMetric, err := sim.Run()
			if err != nil {
				return fmt.Errorf("simulation %d: %w", i, err)
			}
			games[i] = gameMetric
			if r.registry != nil {
				r.registry.RecordGame(attacker.Name(), defender.Name(), gameMetric)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return MeanResult{}, err
	}

	result := summarize(games)
	log.Info().Msgf("completed %d simulations: attacker %.4f (sd %.4f), defender %.4f (sd %.4f)",
		result.NumSim, result.AttackerMean, result.AttackerStdev, result.DefenderMean, result.DefenderStdev)
	return result, nil
}

func strategies(cfg Config) (agent.Attacker, agent.Defender, error) {
	attName, attParams, err := agent.ParseStrategy(cfg.Attacker)
	if err != nil {
		return nil, nil, err
	}
	attacker, err := agent.NewAttacker(attName, attParams, cfg.Discount)
	if err != nil {
		return nil, nil, err
	}
	defName, defParams, err := agent.ParseStrategy(cfg.Defender)
	if err != nil {
		return nil, nil, err
	}
	defender, err := agent.NewDefender(defName, defParams, cfg.Discount)
	if err != nil {
		return nil, nil, err
	}
	return attacker, defender, nil
}

func summarize(games []metrics.GameMetric) MeanResult {
	n := float64(len(games))
	result := MeanResult{NumSim: len(games), Games: games}
	for _, m := range games {
		result.AttackerMean += m.AttackerPayoff / n
		result.DefenderMean += m.DefenderPayoff / n
		result.MeanRounds += float64(m.Rounds) / n
		result.MeanActiveGoal += float64(m.ActiveTargets) / n
	}
	for _, m := range games {
		result.AttackerStdev += math.Pow(m.AttackerPayoff-result.AttackerMean, 2) / n
		result.DefenderStdev += math.Pow(m.DefenderPayoff-result.DefenderMean, 2) / n
	}
	result.AttackerStdev = math.Sqrt(result.AttackerStdev)
	result.DefenderStdev = math.Sqrt(result.DefenderStdev)
	return result
}

// RunMatchups runs every config in turn and, given a writer, stores the
// matchups, games and rounds as CSV.
func RunMatchups(ctx context.Context, g *graph.DependencyGraph, configs []Config, writer *metrics.Writer, options ...RunOption) ([]MeanResult, error) {
	results := make([]MeanResult, 0, len(configs))
	matchups := make([]metrics.MatchupConfig, 0, len(configs))
	gameRecords := []metrics.GameRecord{}
	roundRecords := []metrics.RoundRecord{}

	for mi, cfg := range configs {
		log.Info().Msgf("starting matchup %d of %d between attacker=%s and defender=%s...", mi+1, len(configs), cfg.Attacker, cfg.Defender)

		result, err := RunSimulations(ctx, g, cfg, options...)
		if err != nil {
			return results, fmt.Errorf("matchup %d: %w", mi+1, err)
		}
		results = append(results, result)

		matchups = append(matchups, metrics.MatchupConfig{
			ID:       mi + 1,
			Attacker: cfg.Attacker,
			Defender: cfg.Defender,
			Horizon:  cfg.Horizon,
			Discount: cfg.Discount,
		})
		for i, gm := range result.Games {
			id := len(gameRecords) + 1
			gameRecords = append(gameRecords, metrics.GameRecord{
				ID:         id,
				Matchup:    mi + 1,
				Seed:       cfg.Seed + uint64(i),
				GameMetric: gm,
			})
			for _, rm := range gm.RoundMetrics {
				roundRecords = append(roundRecords, metrics.RoundRecord{Game: id, RoundMetric: rm})
			}
		}
		log.Info().Msgf("completed matchup %d of %d", mi+1, len(configs))
	}

	if writer == nil {
		return results, nil
	}
	if err := writer.WriteMatchups(matchups); err != nil {
		return results, fmt.Errorf("failed to store matchups: %w", err)
	}
	if err := writer.WriteGameRecords(gameRecords); err != nil {
		return results, fmt.Errorf("failed to write game records: %w", err)
	}
	if err := writer.WriteRoundRecords(roundRecords); err != nil {
		return results, fmt.Errorf("failed to write round records: %w", err)
	}
	log.Info().Msgf("stored records of run %s in %s", writer.RunID(), writer.Dir())
	return results, nil
}
