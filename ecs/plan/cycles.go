package plan

import (
	"sort"
	"strings"
)

// CycleError reports every elementary cycle found in the positive-edge
// subgraph at seal time. Cycles are ordered shortest first so the most
// actionable conflict leads the message.
type CycleError struct {
	// Cycles holds each elementary cycle as a vertex-id sequence,
	// starting at the cycle's least vertex. The closing edge back to
	// the first vertex is implied.
	Cycles [][]int

	names []string
}

func newCycleError(names []string, cycles [][]int) *CycleError {
	sort.Slice(cycles, func(i, j int) bool {
		a, b := cycles[i], cycles[j]
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	return &CycleError{Cycles: cycles, names: names}
}

// Error renders each cycle as its vertex names joined by "—", shortest
// cycle first.
func (e *CycleError) Error() string {
	var sb strings.Builder
	sb.WriteString("plan: precedence cycles detected: ")
	for i, cycle := range e.Cycles {
		if i > 0 {
			sb.WriteString("; ")
		}
		for j, v := range cycle {
			if j > 0 {
				sb.WriteString("—")
			}
			sb.WriteString(e.names[v])
		}
	}
	return sb.String()
}

// elementaryCycles enumerates every elementary circuit of the
// positive-edge subgraph using Johnson's algorithm. Both the circuit
// search and the strongly-connected-component extraction are written
// iteratively with explicit stacks so pathological graphs cannot
// overflow the goroutine stack.
func elementaryCycles(edges [][]int32) [][]int {
	n := len(edges)
	adj := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if edges[i][j] > 0 {
				adj[i] = append(adj[i], j)
			}
		}
	}

	j := &johnson{
		n:       n,
		adj:     adj,
		blocked: make([]bool, n),
		blist:   make([][]int, n),
	}

	// The outer loop walks a start vertex upward. At each step the
	// least-indexed SCC of the subgraph on [s, n) that still contains
	// an edge is extracted; its least vertex becomes the next start.
	s := 0
	for s < n {
		scc, least, ok := leastSCC(adj, s)
		if !ok {
			break
		}
		j.scc = scc
		for v := range scc {
			j.blocked[v] = false
			j.blist[v] = j.blist[v][:0]
		}
		j.start = least
		j.circuit(least)
		s = least + 1
	}
	return j.cycles
}

// johnson carries the shared state of the circuit search.
type johnson struct {
	n       int
	adj     [][]int
	blocked []bool
	blist   [][]int // per-vertex B-list: who to unblock when this vertex unblocks
	scc     map[int]bool
	start   int
	stack   []int
	cycles  [][]int
}

// circuitFrame is one simulated recursion level of Johnson's circuit
// routine: the vertex being explored, the next adjacency index, and
// whether any circuit was closed below this level.
type circuitFrame struct {
	v     int
	next  int
	found bool
}

// circuit explores all elementary circuits through j.start within the
// current SCC, emulating the recursive formulation with an explicit
// frame stack.
func (j *johnson) circuit(v int) {
	j.blocked[v] = true
	j.stack = append(j.stack, v)
	frames := []circuitFrame{{v: v}}

	for len(frames) > 0 {
		f := &frames[len(frames)-1]
		advanced := false
		for f.next < len(j.adj[f.v]) {
			w := j.adj[f.v][f.next]
			f.next++
			if !j.scc[w] {
				continue
			}
			if w == j.start {
				j.cycles = append(j.cycles, append([]int(nil), j.stack...))
				f.found = true
				continue
			}
			if !j.blocked[w] {
				j.blocked[w] = true
				j.stack = append(j.stack, w)
				frames = append(frames, circuitFrame{v: w})
				advanced = true
				break
			}
		}
		if advanced {
			continue
		}

		// All successors explored: unwind this frame.
		if f.found {
			j.unblock(f.v)
		} else {
			for _, w := range j.adj[f.v] {
				if !j.scc[w] {
					continue
				}
				j.blist[w] = appendUnique(j.blist[w], f.v)
			}
		}
		j.stack = j.stack[:len(j.stack)-1]
		found := f.found
		frames = frames[:len(frames)-1]
		if found && len(frames) > 0 {
			frames[len(frames)-1].found = true
		}
	}
}

// unblock clears the blocked flag of v and cascades through B-lists,
// again with an explicit work stack.
func (j *johnson) unblock(v int) {
	work := []int{v}
	for len(work) > 0 {
		u := work[len(work)-1]
		work = work[:len(work)-1]
		j.blocked[u] = false
		pending := j.blist[u]
		j.blist[u] = nil
		for _, w := range pending {
			if j.blocked[w] {
				work = append(work, w)
			}
		}
	}
}

func appendUnique(list []int, v int) []int {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

// leastSCC finds, over the subgraph induced on vertices [min, n), the
// strongly connected component that contains the smallest vertex among
// all components still holding at least one internal edge. Self-loops
// cannot occur (insertion ignores them), so only components of two or
// more vertices qualify.
//
// The component assignment uses the path-based (two-stack) SCC
// algorithm, driven iteratively.
func leastSCC(adj [][]int, min int) (map[int]bool, int, bool) {
	n := len(adj)
	num := make([]int, n)
	comp := make([]int, n)
	for i := range num {
		num[i] = -1
		comp[i] = -1
	}
	var (
		counter int
		ncomp   int
		sstack  []int // vertices of the current path's open components
		pstack  []int // boundary stack of the path-based algorithm
	)

	type frame struct {
		v    int
		next int
	}
	for root := min; root < n; root++ {
		if num[root] != -1 {
			continue
		}
		frames := []frame{{v: root}}
		num[root] = counter
		counter++
		sstack = append(sstack, root)
		pstack = append(pstack, root)
		for len(frames) > 0 {
			f := &frames[len(frames)-1]
			advanced := false
			for f.next < len(adj[f.v]) {
				w := adj[f.v][f.next]
				f.next++
				if w < min {
					continue
				}
				if num[w] == -1 {
					num[w] = counter
					counter++
					sstack = append(sstack, w)
					pstack = append(pstack, w)
					frames = append(frames, frame{v: w})
					advanced = true
					break
				}
				if comp[w] == -1 {
					for num[pstack[len(pstack)-1]] > num[w] {
						pstack = pstack[:len(pstack)-1]
					}
				}
			}
			if advanced {
				continue
			}
			if pstack[len(pstack)-1] == f.v {
				pstack = pstack[:len(pstack)-1]
				for {
					w := sstack[len(sstack)-1]
					sstack = sstack[:len(sstack)-1]
					comp[w] = ncomp
					if w == f.v {
						break
					}
				}
				ncomp++
			}
			frames = frames[:len(frames)-1]
		}
	}

	// Group members per component and pick the qualifying component
	// whose least vertex is smallest.
	members := make(map[int][]int)
	for v := min; v < n; v++ {
		members[comp[v]] = append(members[comp[v]], v)
	}
	best := -1
	var bestSet map[int]bool
	for _, vs := range members {
		if len(vs) < 2 {
			continue
		}
		set := make(map[int]bool, len(vs))
		least := vs[0]
		for _, v := range vs {
			set[v] = true
			if v < least {
				least = v
			}
		}
		// Qualify only if an internal edge exists.
		hasEdge := false
		for _, v := range vs {
			for _, w := range adj[v] {
				if set[w] {
					hasEdge = true
					break
				}
			}
			if hasEdge {
				break
			}
		}
		if !hasEdge {
			continue
		}
		if best == -1 || least < best {
			best = least
			bestSet = set
		}
	}
	if best == -1 {
		return nil, 0, false
	}
	return bestSet, best, true
}
