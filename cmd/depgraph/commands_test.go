package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const graphYAML = `
nodes:
  - {id: 1, type: nonTarget, activation: and}
  - {id: 2, type: target, activation: and, aReward: 1, dPenalty: -1}
  - {id: 3, type: target, activation: and, aReward: 1, dPenalty: -1}
edges:
  - {id: 1, source: 1, target: 2}
  - {id: 2, source: 1, target: 3}
`

const specYAML = `
numTimeStep: 3
discFact: 1
numSim: 4
attacker: "uniform:maxNumSelectCandidate_2_minNumSelectCandidate_2_numSelectCandidateRatio_1"
defender: "mincut:maxNumRes_2_minNumRes_2_numResRatio_1"
`

func run(t *testing.T, args ...string) string {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	graphPath := filepath.Join(dir, "graph.yaml")
	specPath := filepath.Join(dir, "spec.yaml")
	require.NoError(t, os.WriteFile(graphPath, []byte(graphYAML), 0644))
	require.NoError(t, os.WriteFile(specPath, []byte(specYAML), 0644))

	t.Run("mincut", func(t *testing.T) {
		out := run(t, "mincut", "--graph", graphPath, "--log-level", "warn")
		require.Contains(t, out, "min cut: [2 3]")
	})

	t.Run("simulate", func(t *testing.T) {
		out := run(t, "simulate", "--graph", graphPath, "--spec", specPath, "--out", dir, "--log-level", "warn")
		require.Contains(t, out, "games: 4")
		require.Contains(t, out, "defender: 0.0000")
		entries, err := os.ReadDir(filepath.Join(dir, "simulate"))
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})
}
