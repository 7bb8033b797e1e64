package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"depgraph/game"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.Start()
	c.AddRound(1, 2, 1, game.Payoff{Attacker: 1, Defender: -1})
	c.AddRound(2, 0, 3, game.Payoff{Attacker: 0.5, Defender: -0.5})
	m := c.Complete(game.NewState(4, 1, 3, 4), []int{3, 4})

	require.Equal(t, 2, m.Rounds)
	require.Equal(t, 2, m.ActiveTargets)
	require.Equal(t, 3, m.AttackedNodes)
	require.Equal(t, 2, m.DefendedNodes)
	require.InDelta(t, -1.5, m.DefenderPayoff, game.Epsilon)
	require.InDelta(t, 1.5, m.AttackerPayoff, game.Epsilon)
	require.Len(t, m.RoundMetrics, 2)
	require.Equal(t, 2, m.RoundMetrics[1].Round)
	require.Equal(t, 3, m.RoundMetrics[1].ActiveNodes)
	require.False(t, m.EndTime.Before(m.StartTime))

	c.Start()
	require.Zero(t, c.Complete(game.NewState(4), nil).Rounds, "start clears the previous game")

	d := NewDummyCollector()
	d.AddRound(1, 1, 1, game.Payoff{Defender: -1})
	require.Equal(t, GameMetric{}, d.Complete(game.NewState(1), nil))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.RecordGame("uniform", "mincut", GameMetric{Rounds: 4, DefenderPayoff: -2, ActiveTargets: 1})
	r.RecordGame("uniform", "mincut", GameMetric{Rounds: 3})
	r.RecordStep("valid")
	r.RecordEpisode()

	require.Equal(t, 2.0, testutil.ToFloat64(r.GamesTotal.WithLabelValues("uniform", "mincut")))
	require.Equal(t, 7.0, testutil.ToFloat64(r.RoundsTotal.WithLabelValues("uniform", "mincut")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.RLStepsTotal.WithLabelValues("valid")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.RLEpisodesTotal))
	require.Equal(t, 1, testutil.CollectAndCount(r.DefenderPayoff))

	expected := `
# HELP depgraph_rl_episodes_total Total number of RL episodes started
# TYPE depgraph_rl_episodes_total counter
depgraph_rl_episodes_total 1
`
	require.NoError(t, testutil.GatherAndCompare(r.GetPrometheusRegistry(), strings.NewReader(expected), "depgraph_rl_episodes_total"))
}

func TestWriter(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "unit")
	require.NoError(t, err)
	require.Contains(t, w.Dir(), w.RunID().String())

	require.NoError(t, w.WriteMatchups([]MatchupConfig{{ID: 1, Attacker: "uniform", Defender: "mincut", Horizon: 5, Discount: 0.9}}))
	require.NoError(t, w.WriteRoundRecords([]RoundRecord{{Game: 1, RoundMetric: RoundMetric{Round: 1, Attacked: 2, DefenderPayoff: -0.5}}}))

	data, err := os.ReadFile(filepath.Join(w.Dir(), "matchups.csv"))
	require.NoError(t, err)
	require.Equal(t, "id,attacker,defender,horizon,discount\n1,uniform,mincut,5,0.9\n", string(data))

	data, err = os.ReadFile(filepath.Join(w.Dir(), "round_records.csv"))
	require.NoError(t, err)
	require.Contains(t, string(data), "1,1,2,0,0,0,-0.5")
}
