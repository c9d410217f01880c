package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/superpeer-go/internal/graph"
	"github.com/Benny93/superpeer-go/internal/topology"
)

func generate(t *testing.T, regular, super int) graph.Store {
	t.Helper()
	store := graph.NewMemoryStore()
	_, err := topology.NewGenerator(store, topology.Options{Seed: 7}).Generate(regular, super)
	require.NoError(t, err)
	return store
}

// handBuilt returns a store from explicit nodes and source/target pairs.
func handBuilt(t *testing.T, nodes []string, edges [][2]string) graph.Store {
	t.Helper()
	store := graph.NewMemoryStore()
	byID := make(map[string]*graph.Node)
	for _, id := range nodes {
		kind, index, err := graph.ParseNodeID(id)
		require.NoError(t, err)
		byID[id] = graph.NewNode(kind, index)
		require.NoError(t, store.AddNode(byID[id]))
	}
	for _, e := range edges {
		require.NoError(t, store.AddEdge(graph.NewEdge(byID[e[0]], byID[e[1]])))
	}
	return store
}

func assertAlternates(t *testing.T, p Path) {
	t.Helper()
	for i, e := range p {
		if i%2 == 0 {
			assert.NotNil(t, e.Node, "element %d (%s) should be a node", i, e.ID)
		} else {
			assert.NotNil(t, e.Edge, "element %d (%s) should be an edge", i, e.ID)
		}
	}
}

func TestResolver_ShortestPath(t *testing.T) {
	t.Parallel()

	t.Run("SameNode", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(generate(t, 100, 13), 100, 13)

		p := r.ShortestPath("n5", "n5")

		require.Len(t, p, 1)
		assert.Equal(t, "n5", p[0].ID)
		assert.Equal(t, 0, p.Hops())
	})

	t.Run("IgnoresEdgeDirection", func(t *testing.T) {
		t.Parallel()
		store := handBuilt(t, []string{"s0", "n0", "n1"}, [][2]string{{"s0", "n0"}, {"s0", "n1"}})
		r := NewResolver(store, 2, 1)

		p := r.ShortestPath("n0", "n1")

		assert.Equal(t, []string{"n0", "edges0n0", "s0", "edges0n1", "n1"}, p.IDs())
		assert.True(t, p.Complete())
		assert.Equal(t, 2, p.Hops())
	})

	t.Run("PrefersPeerShortcut", func(t *testing.T) {
		t.Parallel()
		store := handBuilt(t,
			[]string{"s0", "s1", "n0", "n1"},
			[][2]string{{"s0", "s1"}, {"s1", "s0"}, {"s0", "n0"}, {"s1", "n1"}, {"n1", "n0"}},
		)
		r := NewResolver(store, 2, 2)

		p := r.ShortestPath("n0", "n1")

		assert.Equal(t, []string{"n0", "edgen1n0", "n1"}, p.IDs())
	})

	t.Run("Unreachable", func(t *testing.T) {
		t.Parallel()
		store := handBuilt(t, []string{"s0", "n0", "n1"}, [][2]string{{"s0", "n0"}})
		r := NewResolver(store, 2, 1)

		p := r.ShortestPath("n0", "n1")

		assert.Empty(t, p)
		assert.False(t, p.Complete())
	})

	t.Run("UnknownNode", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(generate(t, 8, 2), 8, 2)

		assert.Empty(t, r.ShortestPath("n0", "n99"))
		assert.Empty(t, r.ShortestPath("bogus", "n1"))
	})

	t.Run("ConnectedGraphIsComplete", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(generate(t, 100, 13), 100, 13)

		for _, pair := range [][2]string{{"n0", "n99"}, {"n3", "n4"}, {"n50", "n7"}, {"n91", "n12"}} {
			p := r.ShortestPath(pair[0], pair[1])

			require.True(t, p.Complete(), "%v", pair)
			assert.Empty(t, p.Missing())
			assert.Equal(t, pair[0], p[0].ID)
			assert.Equal(t, pair[1], p[len(p)-1].ID)
			assert.Equal(t, 1, len(p)%2)
			assertAlternates(t, p)
			// Never longer than the spoke-backbone-spoke relay.
			assert.LessOrEqual(t, p.Hops(), 3)
		}
	})

	t.Run("SameSuperNeverLongerThanTwoHops", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(generate(t, 8, 2), 8, 2)

		p := r.ShortestPath("n0", "n3")

		assert.Equal(t, []string{"n0", "edges0n0", "s0", "edges0n3", "n3"}, p.IDs())
	})
}

func TestResolver_PathThroughBackbone(t *testing.T) {
	t.Parallel()

	t.Run("DifferentSupers", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(generate(t, 8, 2), 8, 2)

		p, err := r.PathThroughBackbone("n0", "n7")
		require.NoError(t, err)

		assert.Equal(t, []string{"n0", "edges0n0", "s0", "edges0s1", "s1", "edges1n7", "n7"}, p.IDs())
		assert.Len(t, p, 7)
		assert.True(t, p.Complete())
		assertAlternates(t, p)
	})

	t.Run("SameSuper", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(generate(t, 8, 2), 8, 2)

		p, err := r.PathThroughBackbone("n1", "n2")
		require.NoError(t, err)

		assert.Equal(t, []string{"n1", "edges0n1", "s0", "edges0n2", "n2"}, p.IDs())
		assert.Len(t, p, 5)
		assert.True(t, p.Complete())
	})

	t.Run("ReverseUsesOppositeBackboneEdge", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(generate(t, 8, 2), 8, 2)

		p, err := r.PathThroughBackbone("n7", "n0")
		require.NoError(t, err)

		assert.Equal(t, "edges1s0", p[3].ID)
		assert.True(t, p.Complete())
	})

	t.Run("RemainderClampsToLastSuper", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(generate(t, 100, 13), 100, 13)

		p, err := r.PathThroughBackbone("n0", "n99")
		require.NoError(t, err)

		assert.Equal(t, []string{"n0", "edges0n0", "s0", "edges0s12", "s12", "edges12n99", "n99"}, p.IDs())
		assert.True(t, p.Complete())
	})

	t.Run("FewerRegularThanSuper", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(generate(t, 3, 5), 3, 5)

		p, err := r.PathThroughBackbone("n0", "n2")
		require.NoError(t, err)

		assert.Equal(t, []string{"n0", "edges4n0", "s4", "edges4n2", "n2"}, p.IDs())
		assert.True(t, p.Complete())
	})

	t.Run("MismatchedCountsLeaveMissingElements", func(t *testing.T) {
		t.Parallel()
		// Generated as 8/2 (n5 owned by s1) but routed as 100/13 (n5 owned by s0).
		r := NewResolver(generate(t, 8, 2), 100, 13)

		p, err := r.PathThroughBackbone("n0", "n5")
		require.NoError(t, err)

		assert.Len(t, p, 5)
		assert.False(t, p.Complete())
		assert.Equal(t, []string{"edges0n5"}, p.Missing())
		assert.True(t, p[3].Missing())
	})

	t.Run("MissingNodesStayInPlace", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(graph.NewMemoryStore(), 8, 2)

		p, err := r.PathThroughBackbone("n0", "n7")
		require.NoError(t, err)

		assert.Len(t, p, 7)
		assert.Len(t, p.Missing(), 7)
	})

	t.Run("RejectsNonRegularIDs", func(t *testing.T) {
		t.Parallel()
		r := NewResolver(generate(t, 8, 2), 8, 2)

		for _, pair := range [][2]string{{"s0", "n1"}, {"n1", "s1"}, {"", "n1"}, {"n1", "x"}} {
			_, err := r.PathThroughBackbone(pair[0], pair[1])
			assert.ErrorIs(t, err, ErrNotRegularNode, "%v", pair)
		}
	})
}

func TestPath(t *testing.T) {
	t.Parallel()

	var empty Path
	assert.False(t, empty.Complete())
	assert.Equal(t, 0, empty.Hops())
	assert.Equal(t, 0, empty.Len())
	assert.Empty(t, empty.IDs())

	p := Path{{ID: "n0", Node: &graph.Node{ID: "n0"}}, {ID: "edgen0n1"}, {ID: "n1", Node: &graph.Node{ID: "n1"}}}
	assert.False(t, p.Complete())
	assert.Equal(t, []string{"edgen0n1"}, p.Missing())
	assert.Equal(t, 1, p.Hops())
	assert.Equal(t, 3, p.Len())
	assert.True(t, p[0].IsNode())
	assert.False(t, p[1].IsNode())
}
