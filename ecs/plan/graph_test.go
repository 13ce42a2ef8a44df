package plan

import (
	"errors"
	"testing"
)

func indexOf(order []int, v int) int {
	for i, x := range order {
		if x == v {
			return i
		}
	}
	return -1
}

func TestInsertionRules(t *testing.T) {
	t.Run("self edges are ignored", func(t *testing.T) {
		g := New([]string{"A", "B"})
		g.Add(0, 0, 5)
		if w := g.Weight(0, 0); w != 0 {
			t.Errorf("self edge stored with weight %d", w)
		}
	})

	t.Run("weaker constraint is a no-op", func(t *testing.T) {
		g := New([]string{"A", "B"})
		g.Add(0, 1, 5)
		g.Add(1, 0, 2)
		if w := g.Weight(0, 1); w != 5 {
			t.Errorf("forward edge weight = %d, want 5", w)
		}
		if w := g.Weight(1, 0); w != 0 {
			t.Errorf("weaker reverse edge stored with weight %d", w)
		}
	})

	t.Run("weight dominance clears the reverse direction", func(t *testing.T) {
		g := New([]string{"A", "B"})
		g.Add(0, 1, 5)
		g.Add(1, 0, 10)
		if w := g.Weight(0, 1); w != 0 {
			t.Errorf("dominated edge survived with weight %d", w)
		}
		if w := g.Weight(1, 0); w != 10 {
			t.Errorf("dominant edge weight = %d, want 10", w)
		}
	})

	t.Run("equal magnitudes in opposite directions coexist", func(t *testing.T) {
		g := New([]string{"A", "B"})
		g.Add(0, 1, 3)
		g.Add(1, 0, 3)
		if g.Weight(0, 1) != 3 || g.Weight(1, 0) != 3 {
			t.Errorf("edges = (%d, %d), want both 3", g.Weight(0, 1), g.Weight(1, 0))
		}
		if err := g.Seal(); err == nil {
			t.Error("seal accepted a two-vertex conflict cycle")
		}
	})

	t.Run("denial idempotence", func(t *testing.T) {
		// deny(A,B,w) followed by add(A,B,w') with w' < w leaves no
		// effective ordering between A and B.
		g := New([]string{"A", "B"})
		g.Deny(0, 1, 2)
		g.Add(0, 1, 1)
		if w := g.Weight(0, 1); w != -2 {
			t.Errorf("edge weight = %d, want denial -2", w)
		}
		if err := g.Seal(); err != nil {
			t.Fatalf("seal: %v", err)
		}
		if g.Weight(0, 1) != 0 || g.Weight(1, 0) != 0 {
			t.Error("denial left a surviving edge after seal")
		}
	})

	t.Run("equal magnitude denial replaces the positive edge", func(t *testing.T) {
		g := New([]string{"A", "B"})
		g.Add(0, 1, 2)
		g.Deny(0, 1, 2)
		if w := g.Weight(0, 1); w != -2 {
			t.Errorf("edge weight = %d, want -2", w)
		}
	})

	t.Run("mutation after seal panics", func(t *testing.T) {
		g := New([]string{"A", "B"})
		if err := g.Seal(); err != nil {
			t.Fatalf("seal: %v", err)
		}
		defer func() {
			if r := recover(); r == nil {
				t.Error("Add on sealed graph did not panic")
			}
		}()
		g.Add(0, 1, 1)
	})
}

func TestSealTransitiveReduction(t *testing.T) {
	// A→B, B→C, A→C at equal weight: the direct A→C edge is implied
	// and must be removed.
	g := New([]string{"A", "B", "C"})
	g.Add(0, 1, 1)
	g.Add(1, 2, 1)
	g.Add(0, 2, 1)
	if err := g.Seal(); err != nil {
		t.Fatalf("seal: %v", err)
	}

	if g.Weight(0, 1) != 1 || g.Weight(1, 2) != 1 {
		t.Error("reduction removed a non-redundant edge")
	}
	if g.Weight(0, 2) != 0 {
		t.Error("redundant edge A→C survived reduction")
	}
	if !g.HasPath(0, 2) {
		t.Error("reachability lost the transitive path A⇝C")
	}

	order, err := g.Topsort()
	if err != nil {
		t.Fatalf("topsort: %v", err)
	}
	want := []int{0, 1, 2}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestSealReductionMinimality(t *testing.T) {
	// Dense chain with every shortcut present: only consecutive edges
	// may survive.
	const n = 6
	names := make([]string, n)
	for i := range names {
		names[i] = string(rune('A' + i))
	}
	g := New(names)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			g.Add(i, j, 1)
		}
	}
	if err := g.Seal(); err != nil {
		t.Fatalf("seal: %v", err)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if g.Weight(i, j) <= 0 {
				continue
			}
			for k := 0; k < n; k++ {
				if k == i || k == j {
					continue
				}
				if g.HasPath(i, k) && g.HasPath(k, j) {
					t.Errorf("edge %d→%d survives although %d⇝%d⇝%d exists", i, j, i, k, j)
				}
			}
		}
	}
}

func TestTopsortDeterminism(t *testing.T) {
	t.Run("unconstrained vertices emit by ascending id", func(t *testing.T) {
		g := New([]string{"A", "B", "C", "D"})
		g.Add(2, 1, 1)
		if err := g.Seal(); err != nil {
			t.Fatalf("seal: %v", err)
		}
		order, err := g.Topsort()
		if err != nil {
			t.Fatalf("topsort: %v", err)
		}
		if indexOf(order, 2) > indexOf(order, 1) {
			t.Errorf("order %v violates 2→1", order)
		}
		// Ascending-id tie break: A before C before D in the first round.
		if order[0] != 0 {
			t.Errorf("order %v, want vertex 0 first", order)
		}
	})

	t.Run("every surviving edge is respected", func(t *testing.T) {
		g := New([]string{"A", "B", "C", "D", "E"})
		g.Add(0, 2, 1)
		g.Add(3, 2, 2)
		g.Add(4, 0, 1)
		g.Add(2, 1, 1)
		if err := g.Seal(); err != nil {
			t.Fatalf("seal: %v", err)
		}
		order, err := g.Topsort()
		if err != nil {
			t.Fatalf("topsort: %v", err)
		}
		for i := 0; i < g.Order(); i++ {
			for j := 0; j < g.Order(); j++ {
				if g.Weight(i, j) > 0 && indexOf(order, i) > indexOf(order, j) {
					t.Errorf("order %v violates %d→%d", order, i, j)
				}
			}
		}
	})
}

func TestDenialOverride(t *testing.T) {
	// add(A,B,1) then deny(A,B,2): after seal no edge remains between
	// the pair in either direction and the order is unconstrained.
	g := New([]string{"A", "B"})
	g.Add(0, 1, 1)
	g.Deny(0, 1, 2)
	if err := g.Seal(); err != nil {
		t.Fatalf("seal: %v", err)
	}
	if g.Weight(0, 1) != 0 || g.Weight(1, 0) != 0 {
		t.Errorf("edges = (%d, %d), want none", g.Weight(0, 1), g.Weight(1, 0))
	}
	if _, err := g.Topsort(); err != nil {
		t.Fatalf("topsort: %v", err)
	}
}

func TestInduceSubgraph(t *testing.T) {
	g := New([]string{"A", "B", "C", "D"})
	g.Add(0, 1, 2)
	g.Add(1, 2, 2)
	g.Deny(3, 0, 1)
	sub := g.InduceSubgraph([]int{0, 1, 3})

	if sub.Order() != 3 {
		t.Fatalf("order = %d, want 3", sub.Order())
	}
	if sub.Name(2) != "D" {
		t.Errorf("name(2) = %q, want D", sub.Name(2))
	}
	if w := sub.Weight(0, 1); w != 2 {
		t.Errorf("A→B weight = %d, want 2", w)
	}
	if w := sub.Weight(2, 0); w != -1 {
		t.Errorf("denial D→A weight = %d, want -1", w)
	}
	if sub.Sealed() {
		t.Error("induced graph sealed although parent was not")
	}

	if err := g.Seal(); err != nil {
		t.Fatalf("seal: %v", err)
	}
	sealed := g.InduceSubgraph([]int{0, 1, 2})
	if !sealed.Sealed() {
		t.Error("induced graph of a sealed parent is not sealed")
	}
	if !sealed.HasPath(0, 2) {
		t.Error("induced reachability lost A⇝C")
	}
	if _, err := sealed.Topsort(); err != nil {
		t.Fatalf("topsort on induced graph: %v", err)
	}
}

func TestTopsortNoProgress(t *testing.T) {
	// Construct an unsealed graph with a cycle and sort it directly to
	// exercise the no-progress guard that seal normally makes
	// unreachable.
	g := New([]string{"A", "B"})
	g.Add(0, 1, 1)
	g.edges[1][0] = 1
	if _, err := g.Topsort(); !errors.Is(err, ErrNoProgress) {
		t.Fatalf("err = %v, want ErrNoProgress", err)
	}
}
