package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"depgraph/agent"
	"depgraph/bridge"
	"depgraph/config"
	"depgraph/engine"
	"depgraph/experiments"
	"depgraph/experiments/metrics"
	"depgraph/graph"
	"depgraph/rl"

	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"
)

func load(specPath, graphPath string) (config.SimSpec, *graph.DependencyGraph, error) {
	spec, err := config.GetSimSpecOrDefaults(specPath)
	if err != nil {
		return config.SimSpec{}, nil, err
	}
	g, err := config.LoadGraph(graphPath)
	if err != nil {
		return config.SimSpec{}, nil, err
	}
	return spec, g, nil
}

func experimentConfig(spec config.SimSpec) experiments.Config {
	return experiments.Config{
		Attacker:    spec.Attacker,
		Defender:    spec.Defender,
		Horizon:     spec.NumTimeStep,
		Discount:    spec.DiscFact,
		NumSim:      spec.NumSim,
		Seed:        spec.Seed,
		Workers:     spec.Workers,
		Termination: spec.TerminationMode(),
		RewardMode:  spec.Reward(),
	}
}

func simulateCmd() *cobra.Command {
	var specPath, graphPath, outDir string
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run Monte Carlo games between the configured attacker and defender",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, g, err := load(specPath, graphPath)
			if err != nil {
				return err
			}
			var writer *metrics.Writer
			if outDir != "" {
				if writer, err = metrics.NewWriter(outDir, "simulate"); err != nil {
					return err
				}
			}
			results, err := experiments.RunMatchups(cmd.Context(), g, []experiments.Config{experimentConfig(spec)}, writer)
			if err != nil {
				return err
			}
			r := results[0]
			fmt.Fprintf(cmd.OutOrStdout(), "games: %d\nattacker: %.4f (sd %.4f)\ndefender: %.4f (sd %.4f)\nrounds: %.2f\nactive targets: %.2f\n",
				r.NumSim, r.AttackerMean, r.AttackerStdev, r.DefenderMean, r.DefenderStdev, r.MeanRounds, r.MeanActiveGoal)
			return nil
		},
	}
	cmd.Flags().StringVar(&specPath, "spec", "simspec.yaml", "simulation spec file (defaults when missing)")
	cmd.Flags().StringVar(&graphPath, "graph", "", "graph file")
	cmd.Flags().StringVar(&outDir, "out", "", "directory for CSV records")
	cmd.MarkFlagRequired("graph")
	return cmd
}

func serveCmd() *cobra.Command {
	var specPath, graphPath, addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the RL environment over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, g, err := load(specPath, graphPath)
			if err != nil {
				return err
			}
			env, reg, err := newEnv(spec, g)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return bridge.NewServer(env, bridge.WithRegistry(reg)).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&specPath, "spec", "simspec.yaml", "simulation spec file (defaults when missing)")
	cmd.Flags().StringVar(&graphPath, "graph", "", "graph file")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.MarkFlagRequired("graph")
	return cmd
}

func newEnv(spec config.SimSpec, g *graph.DependencyGraph) (*rl.Env, *metrics.Registry, error) {
	attName, attParams, err := agent.ParseStrategy(spec.Attacker)
	if err != nil {
		return nil, nil, err
	}
	attacker, err := agent.NewAttacker(attName, attParams, spec.DiscFact)
	if err != nil {
		return nil, nil, err
	}
	// The learner chooses the defense; this defender only keeps the belief.
	defName, defParams, err := agent.ParseStrategy(spec.Defender)
	if err != nil {
		return nil, nil, err
	}
	defender, err := agent.NewDefender(defName, defParams, spec.DiscFact)
	if err != nil {
		return nil, nil, err
	}
	sim, err := engine.NewSimulation(g, attacker, defender, spec.NumTimeStep, spec.DiscFact,
		rand.New(rand.NewSource(spec.Seed)),
		engine.WithTermination(spec.TerminationMode()),
		engine.WithRewardMode(spec.Reward()),
	)
	if err != nil {
		return nil, nil, err
	}
	repeat := rl.RepeatAsPass
	if spec.LoseIfRepeat {
		repeat = rl.LoseOnRepeat
	}
	reg := metrics.NewRegistry()
	env, err := rl.NewEnv(sim, rand.New(rand.NewSource(spec.Seed+1)),
		rl.WithProbCutoff(spec.ProbGreedySelectionCutOff),
		rl.WithRepeatPolicy(repeat),
		rl.WithLookback(spec.ObsLength),
		rl.WithRegistry(reg),
	)
	if err != nil {
		return nil, nil, err
	}
	return env, reg, nil
}

func mincutCmd() *cobra.Command {
	var graphPath string
	cmd := &cobra.Command{
		Use:   "mincut",
		Short: "Print the minimum node cut between roots and targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := config.LoadGraph(graphPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "nodes: %d, edges: %d, targets: %v, roots: %v\nmin cut: %v\n",
				g.NodeCount(), g.EdgeCount(), g.Targets(), g.Roots(), g.MinCut())
			return nil
		},
	}
	cmd.Flags().StringVar(&graphPath, "graph", "", "graph file")
	cmd.MarkFlagRequired("graph")
	return cmd
}

func throughputCmd() *cobra.Command {
	var specPath, graphPath string
	var workers []int
	cmd := &cobra.Command{
		Use:   "throughput",
		Short: "Measure games per second for several worker counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, g, err := load(specPath, graphPath)
			if err != nil {
				return err
			}
			results, err := experiments.RunThroughputExperiment(cmd.Context(), g, experimentConfig(spec), workers)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Fprintf(cmd.OutOrStdout(), "%3d workers: %8.1f games/s\n", r.Workers, r.GamesPerSecond)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&specPath, "spec", "simspec.yaml", "simulation spec file (defaults when missing)")
	cmd.Flags().StringVar(&graphPath, "graph", "", "graph file")
	cmd.Flags().IntSliceVar(&workers, "workers", []int{1, 2, 4, 8}, "worker counts")
	cmd.MarkFlagRequired("graph")
	return cmd
}
