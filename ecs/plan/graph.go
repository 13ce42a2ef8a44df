// Package plan builds and orders the precedence graph that schedules
// system execution.
//
// A Graph is a dense matrix of signed edge weights over a fixed vertex
// set. Positive weights are precedence constraints ("from must run
// before to"); negative weights are denials that suppress weaker
// constraints in either direction. Once every constraint has been
// inserted the graph is sealed: cycles are rejected, denials are
// discharged, redundant edges are removed by transitive reduction, and
// the surviving edges admit a deterministic topological order.
package plan

import "errors"

// ErrSealed is returned or panicked when a mutating operation is
// attempted on a sealed graph.
var ErrSealed = errors.New("plan: graph is sealed")

// ErrNoProgress indicates that a topological sort round emitted no
// vertex before the order was complete. After a successful Seal this
// cannot happen; seeing it indicates a bug in the sealing pipeline.
var ErrNoProgress = errors.New("plan: topological sort made no progress")

// Graph is a weighted directed graph over a fixed set of named vertices.
//
// Edge weights are signed: weight > 0 is a precedence constraint,
// weight < 0 is a denial, weight == 0 is no edge. At most one edge is
// kept per direction between any pair of vertices, and conflict
// resolution at insertion time guarantees that after every insert at
// most the stronger direction survives (equal magnitudes may coexist
// and are surfaced by cycle detection at seal time).
//
// Graph is not safe for concurrent mutation; the dispatcher builds it
// single-threaded before the first frame.
type Graph struct {
	names  []string
	edges  [][]int32
	paths  [][]bool
	sealed bool
}

// New creates an unsealed graph over len(names) vertices with no edges.
// Vertex ids are the indices into names.
func New(names []string) *Graph {
	n := len(names)
	g := &Graph{
		names: append([]string(nil), names...),
		edges: make([][]int32, n),
	}
	for i := range g.edges {
		g.edges[i] = make([]int32, n)
	}
	return g
}

// Order returns the number of vertices.
func (g *Graph) Order() int { return len(g.names) }

// Name returns the human-readable name of vertex v.
func (g *Graph) Name(v int) string { return g.names[v] }

// Sealed reports whether Seal has completed on this graph.
func (g *Graph) Sealed() bool { return g.sealed }

// Weight returns the signed weight of the edge from → to, or zero when
// no edge exists.
func (g *Graph) Weight(from, to int) int32 { return g.edges[from][to] }

// Add inserts the precedence constraint "from must run before to" with
// the given positive weight. Panics with ErrSealed after Seal.
func (g *Graph) Add(from, to int, weight int32) {
	if weight <= 0 {
		panic(errors.New("plan: Add requires a positive weight"))
	}
	g.insert(from, to, weight)
}

// Deny inserts the denial "from must NOT be ordered before to" with the
// given positive weight. Denials exist to override weaker inherited
// constraints; they are discharged (zeroed) during Seal and never
// appear in the final schedule. Panics with ErrSealed after Seal.
func (g *Graph) Deny(from, to int, weight int32) {
	if weight <= 0 {
		panic(errors.New("plan: Deny requires a positive weight"))
	}
	g.insert(from, to, -weight)
}

// insert applies the edge conflict-resolution rules for a signed weight:
//
//  1. Self-edges are ignored.
//  2. A weight weaker (in magnitude) than an edge already known in
//     either direction is a no-op: higher-magnitude constraints
//     override lower ones, never the other way around. This is what
//     makes a denial idempotent against later, weaker constraints.
//  3. Otherwise the forward cell is overwritten.
//  4. If the new magnitude strictly beats the reverse edge, the reverse
//     edge is cleared: the stronger constraint wins the direction.
//
// Equal-magnitude constraints in opposite directions may both survive;
// Seal's cycle detection surfaces the conflict.
func (g *Graph) insert(from, to int, w int32) {
	if g.sealed {
		panic(ErrSealed)
	}
	if from == to {
		return
	}
	fwd := magnitude(g.edges[from][to])
	rev := magnitude(g.edges[to][from])
	m := magnitude(w)
	if m < fwd || m < rev {
		return
	}
	g.edges[from][to] = w
	if m > rev {
		g.edges[to][from] = 0
	}
}

func magnitude(w int32) int32 {
	if w < 0 {
		return -w
	}
	return w
}

// Seal freezes the graph and prepares it for ordering. It runs, in
// order:
//
//  1. Cycle detection over the positive-weight subgraph. Any directed
//     cycle aborts sealing with a *CycleError listing every elementary
//     cycle, shortest first.
//  2. Denial discharge: all negative entries are zeroed. A denial's
//     only job is to have suppressed weaker positive edges at insert
//     time.
//  3. Reachability closure of the positive edges, then transitive
//     reduction: a positive edge i→j is dropped whenever some
//     intermediate k satisfies i⇝k and k⇝j in the closure.
//
// Seal is idempotent once successful; calling it on a sealed graph
// returns nil.
func (g *Graph) Seal() error {
	if g.sealed {
		return nil
	}
	if cycles := elementaryCycles(g.edges); len(cycles) > 0 {
		return newCycleError(g.names, cycles)
	}

	n := g.Order()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if g.edges[i][j] < 0 {
				g.edges[i][j] = 0
			}
		}
	}

	// Boolean Floyd–Warshall closure over the remaining positive edges.
	// Loop order k → i → j is fixed for deterministic accumulation.
	g.paths = make([][]bool, n)
	for i := 0; i < n; i++ {
		g.paths[i] = make([]bool, n)
		for j := 0; j < n; j++ {
			g.paths[i][j] = g.edges[i][j] > 0
		}
	}
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if !g.paths[i][k] {
				continue
			}
			for j := 0; j < n; j++ {
				if g.paths[k][j] {
					g.paths[i][j] = true
				}
			}
		}
	}

	// Transitive reduction against the full closure.
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if g.edges[i][j] <= 0 {
				continue
			}
			for k := 0; k < n; k++ {
				if k == i || k == j {
					continue
				}
				if g.paths[i][k] && g.paths[k][j] {
					g.edges[i][j] = 0
					break
				}
			}
		}
	}

	g.sealed = true
	return nil
}

// HasPath reports whether a directed path of positive edges leads from
// → to in the sealed graph. Before Seal it always reports false.
func (g *Graph) HasPath(from, to int) bool {
	if g.paths == nil {
		return false
	}
	return g.paths[from][to]
}

// Topsort returns a topological order of the vertices over the sealed
// graph's positive edges using Kahn's algorithm. Ties are broken by
// ascending vertex id, which makes the order deterministic for a given
// constraint set.
//
// A round that emits no vertex before the order is complete returns
// ErrNoProgress; after a successful Seal this indicates a logic bug
// rather than a user configuration problem.
func (g *Graph) Topsort() ([]int, error) {
	n := g.Order()
	indegree := make([]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if g.edges[i][j] > 0 {
				indegree[j]++
			}
		}
	}

	order := make([]int, 0, n)
	emitted := make([]bool, n)
	for len(order) < n {
		progressed := false
		for v := 0; v < n; v++ {
			if emitted[v] || indegree[v] != 0 {
				continue
			}
			emitted[v] = true
			order = append(order, v)
			progressed = true
			for w := 0; w < n; w++ {
				if g.edges[v][w] > 0 {
					indegree[w]--
				}
			}
		}
		if !progressed {
			return nil, ErrNoProgress
		}
	}
	return order, nil
}

// InduceSubgraph returns a new graph over the given vertices, keeping
// every edge whose endpoints are both retained, denial signs included.
// Vertex ids in the induced graph are indices into vertices.
//
// If the receiver is sealed the induced graph is sealed as well, with
// its reachability recomputed over the retained positive edges.
func (g *Graph) InduceSubgraph(vertices []int) *Graph {
	names := make([]string, len(vertices))
	for i, v := range vertices {
		names[i] = g.names[v]
	}
	sub := New(names)
	for i, vi := range vertices {
		for j, vj := range vertices {
			sub.edges[i][j] = g.edges[vi][vj]
		}
	}
	if g.sealed {
		n := sub.Order()
		sub.paths = make([][]bool, n)
		for i := 0; i < n; i++ {
			sub.paths[i] = make([]bool, n)
			for j := 0; j < n; j++ {
				sub.paths[i][j] = sub.edges[i][j] > 0
			}
		}
		for k := 0; k < n; k++ {
			for i := 0; i < n; i++ {
				if !sub.paths[i][k] {
					continue
				}
				for j := 0; j < n; j++ {
					if sub.paths[k][j] {
						sub.paths[i][j] = true
					}
				}
			}
		}
		sub.sealed = true
	}
	return sub
}
