package experiments

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"depgraph/engine"
	"depgraph/experiments/metrics"
	"depgraph/game"
	"depgraph/graph"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// root 1 with AND targets 2 and 3.
func fanOut(t *testing.T) *graph.DependencyGraph {
	nodes := []graph.Node{graph.NewNode(1, graph.NonTarget, graph.AND)}
	for id := 2; id <= 3; id++ {
		n := graph.NewNode(id, graph.Target, graph.AND)
		n.AReward = 1
		n.DPenalty = -1
		nodes = append(nodes, n)
	}
	g, err := graph.FromLists(nodes, []graph.Edge{graph.NewEdge(1, 1, 2), graph.NewEdge(2, 1, 3)})
	require.NoError(t, err)
	return g
}

func config() Config {
	return Config{
		Attacker: "uniform:maxNumSelectCandidate_3_minNumSelectCandidate_3_numSelectCandidateRatio_1",
		Defender: "goalOnly:maxNumRes_0_minNumRes_0_numResRatio_0",
		Horizon:  3,
		Discount: 1,
		NumSim:   20,
		Seed:     11,
		Workers:  4,
	}
}

func TestRunSimulations(t *testing.T) {
	g := fanOut(t)

	t.Run("deterministic attack", func(t *testing.T) {
		// round 1 activates the root, round 2 both targets, round 3 keeps them
		result, err := RunSimulations(context.Background(), g, config())
		require.NoError(t, err)
		require.Equal(t, 20, result.NumSim)
		require.Len(t, result.Games, 20)
		require.InDelta(t, -4.0, result.DefenderMean, game.Epsilon)
		require.InDelta(t, 4.0, result.AttackerMean, game.Epsilon)
		require.InDelta(t, 0.0, result.DefenderStdev, game.Epsilon)
		require.InDelta(t, 3.0, result.MeanRounds, game.Epsilon)
		require.InDelta(t, 2.0, result.MeanActiveGoal, game.Epsilon)
	})

	t.Run("same seed same result", func(t *testing.T) {
		cfg := config()
		cfg.Attacker = "uniform:maxNumSelectCandidate_1_minNumSelectCandidate_1_numSelectCandidateRatio_0.5"
		cfg.Defender = "uniform:maxNumRes_1_minNumRes_1_numResRatio_0.5"
		a, err := RunSimulations(context.Background(), g, cfg)
		require.NoError(t, err)
		cfg.Workers = 1
		b, err := RunSimulations(context.Background(), g, cfg)
		require.NoError(t, err)
		require.InDelta(t, a.DefenderMean, b.DefenderMean, game.Epsilon)
		require.InDelta(t, a.DefenderStdev, b.DefenderStdev, game.Epsilon)
	})

	t.Run("early termination", func(t *testing.T) {
		cfg := config()
		cfg.Termination = engine.AllTargetsOrHorizon
		result, err := RunSimulations(context.Background(), g, cfg)
		require.NoError(t, err)
		require.InDelta(t, 2.0, result.MeanRounds, game.Epsilon)
	})

	t.Run("invalid configs", func(t *testing.T) {
		cfg := config()
		cfg.NumSim = 0
		_, err := RunSimulations(context.Background(), g, cfg)
		require.ErrorIs(t, err, ErrInvalidConfig)

		cfg = config()
		cfg.Defender = "random"
		_, err = RunSimulations(context.Background(), g, cfg)
		require.Error(t, err)

		cfg = config()
		cfg.Horizon = 0
		_, err = RunSimulations(context.Background(), g, cfg)
		require.ErrorIs(t, err, engine.ErrInvalidConfig)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := RunSimulations(ctx, g, config())
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("registry counts games", func(t *testing.T) {
		reg := metrics.NewRegistry()
		_, err := RunSimulations(context.Background(), g, config(), WithRegistry(reg))
		require.NoError(t, err)
		require.Equal(t, 20.0, testutil.ToFloat64(reg.GamesTotal.WithLabelValues("uniform", "goalOnly")))
		require.Equal(t, 60.0, testutil.ToFloat64(reg.RoundsTotal.WithLabelValues("uniform", "goalOnly")))
	})
}

func TestRunMatchups(t *testing.T) {
	g := fanOut(t)
	writer, err := metrics.NewWriter(t.TempDir(), "matchups")
	require.NoError(t, err)

	second := config()
	second.Defender = "mincut:maxNumRes_2_minNumRes_2_numResRatio_1"
	second.NumSim = 5
	results, err := RunMatchups(context.Background(), g, []Config{config(), second}, writer)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// the min cut holds both targets back every round
	require.InDelta(t, 0.0, results[1].DefenderMean, game.Epsilon)

	rows := readCSV(t, filepath.Join(writer.Dir(), "game_records.csv"))
	require.Len(t, rows, 1+25)
	require.Equal(t, writer.RunID().String(), rows[1][0])
	require.Len(t, readCSV(t, filepath.Join(writer.Dir(), "round_records.csv")), 1+25*3)
	require.Len(t, readCSV(t, filepath.Join(writer.Dir(), "matchups.csv")), 3)
}

func TestRunThroughputExperiment(t *testing.T) {
	results, err := RunThroughputExperiment(context.Background(), fanOut(t), config(), []int{1, 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, 2, results[1].Workers)
	require.Equal(t, 20, results[1].Games)
}

func readCSV(t *testing.T, path string) [][]string {
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
