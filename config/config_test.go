package config

import (
	"os"
	"path/filepath"
	"testing"

	"depgraph/engine"
	"depgraph/game"
	"depgraph/graph"

	"github.com/stretchr/testify/require"
)

const graphYAML = `
nodes:
  - {id: 1, type: nonTarget, activation: and, aCost: -1, posInactiveProb: 0.1}
  - {id: 2, type: nonTarget, activation: or, dCost: -0.5}
  - {id: 3, type: target, activation: and, aReward: 10, dPenalty: -10, actProb: 0.8}
edges:
  - {id: 1, source: 1, target: 2, actProb: 0.6, aCost: -0.2}
  - {id: 2, source: 2, target: 3}
`

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSimSpec(t *testing.T) {
	t.Run("missing file gives defaults", func(t *testing.T) {
		spec, err := GetSimSpecOrDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
		require.NoError(t, err)
		require.Equal(t, DefaultSimSpec(), spec)
		require.NoError(t, spec.Validate())
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := writeFile(t, "spec.yaml", `
numTimeStep: 6
discFact: 0.95
attacker: "uniform:maxNumSelectCandidate_2_minNumSelectCandidate_1_numSelectCandidateRatio_0.5"
termination: allTargets
rewardMode: newlyActivated
loseIfRepeat: true
`)
		spec, err := GetSimSpecOrDefaults(path)
		require.NoError(t, err)
		require.Equal(t, 6, spec.NumTimeStep)
		require.Equal(t, 0.95, spec.DiscFact)
		require.Equal(t, DefaultSimSpec().Defender, spec.Defender)
		require.Equal(t, 3, spec.ObsLength)
		require.True(t, spec.LoseIfRepeat)
		require.Equal(t, engine.AllTargetsOrHorizon, spec.TerminationMode())
		require.Equal(t, game.NewlyActivatedTargets, spec.Reward())
	})

	t.Run("invalid values fail", func(t *testing.T) {
		cases := map[string]string{
			"horizon":  "numTimeStep: 0",
			"discount": "discFact: 1.5",
			"cutoff":   "probGreedySelectionCutOff: 1",
			"mode":     "termination: forever",
			"attacker": `attacker: ""`,
		}
		for name, content := range cases {
			_, err := LoadSimSpec(writeFile(t, "spec.yaml", content))
			require.ErrorIs(t, err, ErrInvalidConfig, name)
		}
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := GetSimSpecOrDefaults(writeFile(t, "spec.yaml", "numTimeStep: [1"))
		require.Error(t, err)
	})
}

func TestLoadGraph(t *testing.T) {
	g, err := LoadGraph(writeFile(t, "graph.yaml", graphYAML))
	require.NoError(t, err)
	require.Equal(t, 3, g.NodeCount())
	require.Equal(t, 2, g.EdgeCount())
	require.Equal(t, []int{3}, g.Targets())
	require.Equal(t, []int{1}, g.Roots())

	n1 := g.Node(1)
	require.Equal(t, -1.0, n1.ACost)
	require.Equal(t, 1.0, n1.ActProb, "default kept")
	require.Equal(t, 0.1, n1.PosInactiveProb)
	require.Equal(t, graph.OR, g.Node(2).Activation)
	require.Equal(t, 0.8, g.Node(3).ActProb)
	require.Equal(t, 0.6, g.Edge(1).ActProb)
	require.Equal(t, 1.0, g.Edge(2).ActProb)

	t.Run("schema errors", func(t *testing.T) {
		_, err := ParseGraph([]byte("nodes: []"))
		require.ErrorIs(t, err, ErrInvalidConfig)
		_, err = ParseGraph([]byte("nodes: [{id: 1, type: goal, activation: and}]"))
		require.ErrorIs(t, err, ErrInvalidConfig)
		_, err = ParseGraph([]byte("nodes: [{id: 1, type: target, activation: and, actProb: 2}]"))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("structural errors", func(t *testing.T) {
		_, err := ParseGraph([]byte(`
nodes:
  - {id: 1, type: nonTarget, activation: and}
  - {id: 2, type: target, activation: and}
edges:
  - {id: 1, source: 1, target: 2}
  - {id: 2, source: 2, target: 1}
`))
		require.ErrorIs(t, err, graph.ErrCycle)

		_, err = ParseGraph([]byte(`
nodes:
  - {id: 1, type: target, activation: and}
edges:
  - {id: 1, source: 1, target: 4}
`))
		require.ErrorIs(t, err, graph.ErrNodeNotFound)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadGraph(filepath.Join(t.TempDir(), "none.yaml"))
		require.Error(t, err)
	})
}
