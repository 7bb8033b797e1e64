package graph

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

/*
- builder:
	- happy path: contiguous ids -> adjacency, roots, targets, topological order
	- errors: bad ids, duplicates, self loops, unknown endpoints, cycles, bad probabilities
- min cut:
	- chain, diamond, fan-out -> cut closest to the roots
	- removing the cut disconnects every non-root target (property)
*/

// root 1 with two AND targets 2 and 3.
func fanOut(t *testing.T) *DependencyGraph {
	g, err := FromLists(
		[]Node{NewNode(1, NonTarget, AND), NewNode(2, Target, AND), NewNode(3, Target, AND)},
		[]Edge{NewEdge(1, 1, 2), NewEdge(2, 1, 3)},
	)
	require.NoError(t, err)
	return g
}

func TestBuild(t *testing.T) {
	t.Run("fan out graph exposes structure", func(t *testing.T) {
		g := fanOut(t)

		require.Equal(t, 3, g.NodeCount())
		require.Equal(t, 2, g.EdgeCount())
		require.Equal(t, []int{1}, g.Roots(), "Only node 1 has no in-edges")
		require.Equal(t, []int{2, 3}, g.Targets())
		require.Equal(t, []int{1, 2, 3}, g.TopologicalOrder())
		require.Len(t, g.IncomingEdges(2), 1)
		require.Equal(t, 1, g.IncomingEdges(2)[0].Source)
		require.Len(t, g.OutgoingEdges(1), 2)
		require.Empty(t, g.IncomingEdges(1))
		require.Nil(t, g.IncomingEdges(4), "Unknown ids have no edges")
		require.Nil(t, g.Node(0))
		require.Equal(t, 3, g.Node(3).ID)
	})

	t.Run("topological order respects edges not ids", func(t *testing.T) {
		g, err := FromLists(
			[]Node{NewNode(1, Target, AND), NewNode(2, NonTarget, OR), NewNode(3, NonTarget, AND)},
			[]Edge{NewEdge(1, 3, 2), NewEdge(2, 2, 1)},
		)
		require.NoError(t, err)
		require.Equal(t, []int{3, 2, 1}, g.TopologicalOrder())
	})

	t.Run("errors", func(t *testing.T) {
		cases := []struct {
			name  string
			nodes []Node
			edges []Edge
			err   error
		}{
			{"zero id", []Node{NewNode(0, Target, AND)}, nil, ErrInvalidID},
			{"gap in ids", []Node{NewNode(1, Target, AND), NewNode(3, Target, AND)}, nil, ErrInvalidID},
			{"duplicate node", []Node{NewNode(1, Target, AND), NewNode(1, Target, AND)}, nil, ErrDuplicateNode},
			{"self loop", []Node{NewNode(1, Target, AND)}, []Edge{NewEdge(1, 1, 1)}, ErrSelfLoop},
			{"unknown endpoint", []Node{NewNode(1, Target, AND)}, []Edge{NewEdge(1, 1, 2)}, ErrNodeNotFound},
			{"duplicate edge", []Node{NewNode(1, NonTarget, AND), NewNode(2, Target, AND)}, []Edge{NewEdge(1, 1, 2), NewEdge(1, 1, 2)}, ErrDuplicateEdge},
			{"cycle", []Node{NewNode(1, NonTarget, AND), NewNode(2, Target, OR)}, []Edge{NewEdge(1, 1, 2), NewEdge(2, 2, 1)}, ErrCycle},
			{"bad probability", []Node{{ID: 1, ActProb: 1.5}}, nil, ErrProbability},
		}
		for _, c := range cases {
			_, err := FromLists(c.nodes, c.edges)
			require.ErrorIs(t, err, c.err, c.name)
		}
	})
}

func TestMinCut(t *testing.T) {
	t.Run("fan out cuts both targets", func(t *testing.T) {
		require.Equal(t, []int{2, 3}, fanOut(t).MinCut())
	})

	t.Run("chain cuts the node closest to the root", func(t *testing.T) {
		g, err := FromLists(
			[]Node{NewNode(1, NonTarget, AND), NewNode(2, NonTarget, AND), NewNode(3, Target, AND)},
			[]Edge{NewEdge(1, 1, 2), NewEdge(2, 2, 3)},
		)
		require.NoError(t, err)
		require.Equal(t, []int{2}, g.MinCut())
	})

	t.Run("diamond cuts the shared target", func(t *testing.T) {
		g, err := FromLists(
			[]Node{NewNode(1, NonTarget, AND), NewNode(2, NonTarget, AND), NewNode(3, NonTarget, AND), NewNode(4, Target, OR)},
			[]Edge{NewEdge(1, 1, 2), NewEdge(2, 1, 3), NewEdge(3, 2, 4), NewEdge(4, 3, 4)},
		)
		require.NoError(t, err)
		require.Equal(t, []int{4}, g.MinCut())
	})

	t.Run("root targets are not cuttable", func(t *testing.T) {
		g, err := FromLists([]Node{NewNode(1, Target, AND)}, nil)
		require.NoError(t, err)
		require.Empty(t, g.MinCut())
	})
}

// randomDAG only adds edges from lower to higher ids.
func randomDAG(n int, seed uint64) *DependencyGraph {
	rng := rand.New(rand.NewSource(seed))
	nodes := make([]Node, n)
	for i := range nodes {
		nodeType := NonTarget
		if rng.Float64() < 0.3 || i == n-1 {
			nodeType = Target
		}
		activation := AND
		if rng.Intn(2) == 0 {
			activation = OR
		}
		nodes[i] = NewNode(i+1, nodeType, activation)
	}
	var edges []Edge
	for u := 1; u <= n; u++ {
		for v := u + 1; v <= n; v++ {
			if rng.Float64() < 0.35 {
				edges = append(edges, NewEdge(len(edges)+1, u, v))
			}
		}
	}
	g, err := FromLists(nodes, edges)
	if err != nil {
		panic(err)
	}
	return g
}

func TestMinCutSeparates(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("no target outside the cut is reachable from a root", prop.ForAll(
		func(n int, seed uint64) bool {
			g := randomDAG(n, seed)
			cut := make(map[int]bool)
			for _, id := range g.MinCut() {
				cut[id] = true
			}
			reached := make(map[int]bool)
			var stack []int
			for _, id := range g.Roots() {
				reached[id] = true
				stack = append(stack, id)
			}
			for len(stack) > 0 {
				id := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for _, e := range g.OutgoingEdges(id) {
					if !cut[e.Target] && !reached[e.Target] {
						reached[e.Target] = true
						stack = append(stack, e.Target)
					}
				}
			}
			for _, id := range g.Targets() {
				if len(g.IncomingEdges(id)) > 0 && reached[id] {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 12),
		gen.UInt64(),
	))

	properties.Property("cut is never larger than the non-root targets", prop.ForAll(
		func(n int, seed uint64) bool {
			g := randomDAG(n, seed)
			inner := 0
			for _, id := range g.Targets() {
				if len(g.IncomingEdges(id)) > 0 {
					inner++
				}
			}
			return len(g.MinCut()) <= inner
		},
		gen.IntRange(1, 12),
		gen.UInt64(),
	))

	properties.TestingRun(t)
}
