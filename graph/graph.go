package graph

import (
	"errors"
	"fmt"
	"sort"
)

type Activation int

const (
	AND Activation = iota
	OR
)

func (a Activation) String() string {
	if a == OR {
		return "OR"
	}
	return "AND"
}

type NodeType int

const (
	NonTarget NodeType = iota
	Target
)

func (t NodeType) String() string {
	if t == Target {
		return "TARGET"
	}
	return "NONTARGET"
}

var (
	ErrInvalidID     = errors.New("invalid id")
	ErrDuplicateNode = errors.New("duplicate node")
	ErrDuplicateEdge = errors.New("duplicate edge")
	ErrNodeNotFound  = errors.New("node not found")
	ErrSelfLoop      = errors.New("self loop")
	ErrCycle         = errors.New("graph contains a cycle")
	ErrProbability   = errors.New("probability out of [0, 1]")
)

// Node describes one vertex of the dependency graph. It carries no activation
// state: whether a node is active is owned by a game state.
type Node struct {
	ID              int // 1..N
	Type            NodeType
	Activation      Activation
	AReward         float64 // attacker reward per round while an active target
	DPenalty        float64 // defender penalty per round while an active target, usually <= 0
	ACost           float64 // attacker cost to attack an AND node, usually <= 0
	DCost           float64 // defender cost to protect the node, usually <= 0
	ActProb         float64 // activation probability of an attacked AND node
	PosActiveProb   float64 // alert probability while active
	PosInactiveProb float64 // alert probability while inactive
}

// Edge is a directed dependency. Its AND/OR semantics come from the target node.
type Edge struct {
	ID      int // 1..M
	Source  int
	Target  int
	ACost   float64 // attacker cost to fire the edge into an OR node
	ActProb float64 // success probability when firing into an OR node
}

// NewNode returns a node with certain activation and perfect observation.
func NewNode(id int, nodeType NodeType, activation Activation) Node {
	return Node{
		ID:            id,
		Type:          nodeType,
		Activation:    activation,
		ActProb:       1,
		PosActiveProb: 1,
	}
}

// NewEdge returns an edge that always succeeds and costs nothing.
func NewEdge(id, source, target int) Edge {
	return Edge{ID: id, Source: source, Target: target, ActProb: 1}
}

// DependencyGraph is read-only once built and safe to share across goroutines.
type DependencyGraph struct {
	nodes   []*Node // indexed by id-1
	edges   []*Edge // indexed by id-1
	in      [][]*Edge
	out     [][]*Edge
	targets []int
	roots   []int
	order   []int
	minCut  []int
}

type Builder struct {
	nodes map[int]Node
	edges map[int]Edge
}

func New() *Builder {
	return &Builder{
		nodes: make(map[int]Node),
		edges: make(map[int]Edge),
	}
}

func (b *Builder) AddNode(n Node) error {
	if n.ID <= 0 {
		return fmt.Errorf("node %d: %w", n.ID, ErrInvalidID)
	}
	if _, ok := b.nodes[n.ID]; ok {
		return fmt.Errorf("node %d: %w", n.ID, ErrDuplicateNode)
	}
	for _, p := range []float64{n.ActProb, n.PosActiveProb, n.PosInactiveProb} {
		if !isProb(p) {
			return fmt.Errorf("node %d: %w", n.ID, ErrProbability)
		}
	}
	b.nodes[n.ID] = n
	return nil
}

func (b *Builder) AddEdge(e Edge) error {
	if e.ID <= 0 {
		return fmt.Errorf("edge %d: %w", e.ID, ErrInvalidID)
	}
	if _, ok := b.edges[e.ID]; ok {
		return fmt.Errorf("edge %d: %w", e.ID, ErrDuplicateEdge)
	}
	if e.Source == e.Target {
		return fmt.Errorf("edge %d: %w", e.ID, ErrSelfLoop)
	}
	if !isProb(e.ActProb) {
		return fmt.Errorf("edge %d: %w", e.ID, ErrProbability)
	}
	b.edges[e.ID] = e
	return nil
}

// Build validates that node and edge ids are contiguous from 1, that every edge
// connects known nodes and that the graph is acyclic, then precomputes the
// structural queries.
func (b *Builder) Build() (*DependencyGraph, error) {
	g := &DependencyGraph{
		nodes: make([]*Node, len(b.nodes)),
		edges: make([]*Edge, len(b.edges)),
		in:    make([][]*Edge, len(b.nodes)),
		out:   make([][]*Edge, len(b.nodes)),
	}
	for id, n := range b.nodes {
		if id > len(b.nodes) {
			return nil, fmt.Errorf("node %d: ids must be 1..%d: %w", id, len(b.nodes), ErrInvalidID)
		}
		node := n
		g.nodes[id-1] = &node
	}
	for id, e := range b.edges {
		if id > len(b.edges) {
			return nil, fmt.Errorf("edge %d: ids must be 1..%d: %w", id, len(b.edges), ErrInvalidID)
		}
		if !g.IsValidID(e.Source) || !g.IsValidID(e.Target) {
			return nil, fmt.Errorf("edge %d (%d->%d): %w", id, e.Source, e.Target, ErrNodeNotFound)
		}
		edge := e
		g.edges[id-1] = &edge
	}
	// Adjacency in edge id order so candidate enumeration is deterministic.
	for _, e := range g.edges {
		g.in[e.Target-1] = append(g.in[e.Target-1], e)
		g.out[e.Source-1] = append(g.out[e.Source-1], e)
	}
	for _, n := range g.nodes {
		if n.Type == Target {
			g.targets = append(g.targets, n.ID)
		}
		if len(g.in[n.ID-1]) == 0 {
			g.roots = append(g.roots, n.ID)
		}
	}
	order, err := g.topologicalSort()
	if err != nil {
		return nil, err
	}
	g.order = order
	g.minCut = g.computeMinCut()
	return g, nil
}

// Kahn's algorithm, smallest id first.
func (g *DependencyGraph) topologicalSort() ([]int, error) {
	indegree := make([]int, len(g.nodes))
	for _, e := range g.edges {
		indegree[e.Target-1]++
	}
	var ready []int
	for i, d := range indegree {
		if d == 0 {
			ready = append(ready, i+1)
		}
	}
	order := make([]int, 0, len(g.nodes))
	for len(ready) > 0 {
		sort.Ints(ready)
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)
		for _, e := range g.out[id-1] {
			indegree[e.Target-1]--
			if indegree[e.Target-1] == 0 {
				ready = append(ready, e.Target)
			}
		}
	}
	if len(order) != len(g.nodes) {
		return nil, ErrCycle
	}
	return order, nil
}

func (g *DependencyGraph) NodeCount() int { return len(g.nodes) }
func (g *DependencyGraph) EdgeCount() int { return len(g.edges) }

func (g *DependencyGraph) IsValidID(id int) bool {
	return id >= 1 && id <= len(g.nodes)
}

// Node returns nil for an unknown id.
func (g *DependencyGraph) Node(id int) *Node {
	if !g.IsValidID(id) {
		return nil
	}
	return g.nodes[id-1]
}

func (g *DependencyGraph) Edge(id int) *Edge {
	if id < 1 || id > len(g.edges) {
		return nil
	}
	return g.edges[id-1]
}

// Nodes are ordered by id. The returned slice must not be modified.
func (g *DependencyGraph) Nodes() []*Node { return g.nodes }

// Edges are ordered by id. The returned slice must not be modified.
func (g *DependencyGraph) Edges() []*Edge { return g.edges }

func (g *DependencyGraph) IncomingEdges(id int) []*Edge {
	if !g.IsValidID(id) {
		return nil
	}
	return g.in[id-1]
}

func (g *DependencyGraph) OutgoingEdges(id int) []*Edge {
	if !g.IsValidID(id) {
		return nil
	}
	return g.out[id-1]
}

func (g *DependencyGraph) Targets() []int          { return g.targets }
func (g *DependencyGraph) Roots() []int            { return g.roots }
func (g *DependencyGraph) TopologicalOrder() []int { return g.order }

// MinCut returns the minimum vertex set separating the roots from the targets.
func (g *DependencyGraph) MinCut() []int { return g.minCut }

func isProb(p float64) bool {
	return p >= 0 && p <= 1
}

// FromLists builds a graph from complete node and edge lists.
func FromLists(nodes []Node, edges []Edge) (*DependencyGraph, error) {
	b := New()
	for _, n := range nodes {
		if err := b.AddNode(n); err != nil {
			return nil, err
		}
	}
	for _, e := range edges {
		if err := b.AddEdge(e); err != nil {
			return nil, err
		}
	}
	return b.Build()
}
