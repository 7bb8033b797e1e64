package graph

import "sort"

// flowNetwork is a residual graph for Edmonds-Karp.
type flowNetwork struct {
	head []int
	to   []int
	cap  []int
	next []int
}

func newFlowNetwork(size int) *flowNetwork {
	head := make([]int, size)
	for i := range head {
		head[i] = -1
	}
	return &flowNetwork{head: head}
}

func (f *flowNetwork) addArc(u, v, c int) {
	f.to = append(f.to, v)
	f.cap = append(f.cap, c)
	f.next = append(f.next, f.head[u])
	f.head[u] = len(f.to) - 1

	f.to = append(f.to, u)
	f.cap = append(f.cap, 0)
	f.next = append(f.next, f.head[v])
	f.head[v] = len(f.to) - 1
}

// bfs returns the arc used to reach each vertex, -1 if unreached.
func (f *flowNetwork) bfs(s int) []int {
	via := make([]int, len(f.head))
	for i := range via {
		via[i] = -1
	}
	seen := make([]bool, len(f.head))
	seen[s] = true
	queue := []int{s}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for a := f.head[u]; a != -1; a = f.next[a] {
			v := f.to[a]
			if f.cap[a] > 0 && !seen[v] {
				seen[v] = true
				via[v] = a
				queue = append(queue, v)
			}
		}
	}
	via[s] = -2
	return via
}

func (f *flowNetwork) maxFlow(s, t int) {
	for {
		via := f.bfs(s)
		if via[t] == -1 {
			return
		}
		push := -1
		for v := t; v != s; v = f.to[via[v]^1] {
			if push == -1 || f.cap[via[v]] < push {
				push = f.cap[via[v]]
			}
		}
		for v := t; v != s; v = f.to[via[v]^1] {
			f.cap[via[v]] -= push
			f.cap[via[v]^1] += push
		}
	}
}

// computeMinCut splits every node v into v_in -> v_out with capacity 1 and
// finds the minimum set of split arcs separating a super source attached to
// the roots from a super sink attached to the targets. Roots cannot be cut,
// so targets that are themselves roots are left out of the sink.
func (g *DependencyGraph) computeMinCut() []int {
	n := len(g.nodes)
	if n == 0 || len(g.targets) == 0 {
		return nil
	}
	inf := n + 1
	source, sink := 2*n, 2*n+1
	net := newFlowNetwork(2*n + 2)
	nodeIn := func(id int) int { return 2 * (id - 1) }
	nodeOut := func(id int) int { return 2*(id-1) + 1 }

	isRoot := make([]bool, n)
	for _, id := range g.roots {
		isRoot[id-1] = true
		net.addArc(source, nodeIn(id), inf)
	}
	for _, node := range g.nodes {
		c := 1
		if isRoot[node.ID-1] {
			c = inf
		}
		net.addArc(nodeIn(node.ID), nodeOut(node.ID), c)
	}
	for _, e := range g.edges {
		net.addArc(nodeOut(e.Source), nodeIn(e.Target), inf)
	}
	for _, id := range g.targets {
		if !isRoot[id-1] {
			net.addArc(nodeOut(id), sink, inf)
		}
	}
	net.maxFlow(source, sink)

	via := net.bfs(source)
	var cut []int
	for _, node := range g.nodes {
		if via[nodeIn(node.ID)] != -1 && via[nodeOut(node.ID)] == -1 {
			cut = append(cut, node.ID)
		}
	}
	sort.Ints(cut)
	return cut
}
