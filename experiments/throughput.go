package experiments

import (
	"context"
	"time"

	"depgraph/graph"

	"github.com/rs/zerolog/log"
)

type Throughput struct {
	Workers        int
	Games          int
	Duration       time.Duration
	GamesPerSecond float64
}

// RunThroughputExperiment replays the same batch with each worker count.
func RunThroughputExperiment(ctx context.Context, g *graph.DependencyGraph, cfg Config, workers []int) ([]Throughput, error) {
	log.Info().Msg("starting throughput experiment...")

	results := make([]Throughput, 0, len(workers))
	for _, w := range workers {
		cfg.Workers = w
		start := time.Now()
		if _, err := RunSimulations(ctx, g, cfg); err != nil {
			return results, err
		}
		elapsed := time.Since(start)
		t := Throughput{
			Workers:  w,
			Games:    cfg.NumSim,
			Duration: elapsed,
		}
		if elapsed > 0 {
			t.GamesPerSecond = float64(cfg.NumSim) / elapsed.Seconds()
		}
		results = append(results, t)
		log.Info().Msgf("%d workers: %d games in %s (%.1f games/s)", w, t.Games, elapsed, t.GamesPerSecond)
	}

	log.Info().Msg("completed throughput experiment")
	return results, nil
}
