// Package graphtest provides a contract test suite shared by every
// graph.Store implementation.
package graphtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/superpeer-go/internal/graph"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) graph.Store

// RunStoreContract exercises the graph.Store contract against stores built
// by newStore.
func RunStoreContract(t *testing.T, newStore Factory) {
	t.Helper()

	s0 := graph.NewNode(graph.NodeSuper, 0)
	s1 := graph.NewNode(graph.NodeSuper, 1)
	n0 := graph.NewNode(graph.NodeRegular, 0)
	n1 := graph.NewNode(graph.NodeRegular, 1)

	seed := func(t *testing.T) graph.Store {
		s := newStore(t)
		for _, n := range []*graph.Node{s0, s1, n0, n1} {
			require.NoError(t, s.AddNode(n))
		}
		return s
	}

	t.Run("Empty", func(t *testing.T) {
		s := newStore(t)

		assert.Equal(t, 0, s.NodeCount())
		assert.Equal(t, 0, s.EdgeCount())
		assert.Nil(t, s.NodeByID("n0"))
		assert.Nil(t, s.EdgeByID("edges0n0"))
		assert.Empty(t, s.Incident("n0"))
	})

	t.Run("AddNode", func(t *testing.T) {
		s := seed(t)

		assert.Equal(t, 4, s.NodeCount())
		got := s.NodeByID("s1")
		require.NotNil(t, got)
		assert.Equal(t, graph.NodeSuper, got.Kind)
		assert.Equal(t, 1, got.Index)
	})

	t.Run("DuplicateNodeIsNoOp", func(t *testing.T) {
		s := seed(t)

		err := s.AddNode(&graph.Node{ID: "n0", Kind: graph.NodeSuper, Index: 9})

		assert.ErrorIs(t, err, graph.ErrNodeExists)
		assert.Equal(t, 4, s.NodeCount())
		assert.Equal(t, graph.NodeRegular, s.NodeByID("n0").Kind)
	})

	t.Run("AddEdge", func(t *testing.T) {
		s := seed(t)

		require.NoError(t, s.AddEdge(graph.NewEdge(s0, s1)))
		require.NoError(t, s.AddEdge(graph.NewEdge(s0, n0)))
		require.NoError(t, s.AddEdge(graph.NewEdge(n0, n1)))

		assert.Equal(t, 3, s.EdgeCount())
		assert.Equal(t, 1, s.CountEdgesByKind(graph.EdgeBackbone))
		assert.Equal(t, 1, s.CountEdgesByKind(graph.EdgeSpoke))
		assert.Equal(t, 1, s.CountEdgesByKind(graph.EdgePeer))

		e := s.EdgeByID("edges0n0")
		require.NotNil(t, e)
		assert.Equal(t, "s0", e.Source)
		assert.Equal(t, "n0", e.Target)
	})

	t.Run("DuplicateEdgeIsNoOp", func(t *testing.T) {
		s := seed(t)
		require.NoError(t, s.AddEdge(graph.NewEdge(n0, n1)))

		err := s.AddEdge(graph.NewEdge(n0, n1))

		assert.ErrorIs(t, err, graph.ErrEdgeExists)
		assert.Equal(t, 1, s.EdgeCount())

		// Reverse direction has a different ID and is accepted.
		assert.NoError(t, s.AddEdge(graph.NewEdge(n1, n0)))
		assert.Equal(t, 2, s.EdgeCount())
	})

	t.Run("SelfLoopRejected", func(t *testing.T) {
		s := seed(t)

		err := s.AddEdge(graph.NewEdge(n0, n0))

		assert.ErrorIs(t, err, graph.ErrSelfLoop)
		assert.Equal(t, 0, s.EdgeCount())
	})

	t.Run("MissingEndpointRejected", func(t *testing.T) {
		s := seed(t)
		ghost := graph.NewNode(graph.NodeRegular, 42)

		assert.ErrorIs(t, s.AddEdge(graph.NewEdge(n0, ghost)), graph.ErrMissingEndpoint)
		assert.ErrorIs(t, s.AddEdge(graph.NewEdge(ghost, n0)), graph.ErrMissingEndpoint)
		assert.Equal(t, 0, s.EdgeCount())
	})

	t.Run("IncidentIsUndirectedAndOrdered", func(t *testing.T) {
		s := seed(t)
		require.NoError(t, s.AddEdge(graph.NewEdge(s0, n0)))
		require.NoError(t, s.AddEdge(graph.NewEdge(n1, n0)))
		require.NoError(t, s.AddEdge(graph.NewEdge(n0, n1)))
		require.NoError(t, s.AddEdge(graph.NewEdge(s0, s1)))

		ids := edgeIDs(s.Incident("n0"))

		assert.Equal(t, []string{"edgen0n1", "edgen1n0", "edges0n0"}, ids)
		assert.Equal(t, []string{"edges0n0", "edges0s1"}, edgeIDs(s.Incident("s0")))
	})

	t.Run("Clear", func(t *testing.T) {
		s := seed(t)
		require.NoError(t, s.AddEdge(graph.NewEdge(s0, s1)))

		require.NoError(t, s.Clear())

		assert.Equal(t, 0, s.NodeCount())
		assert.Equal(t, 0, s.EdgeCount())
		assert.Equal(t, 0, s.CountEdgesByKind(graph.EdgeBackbone))
		assert.Nil(t, s.EdgeByID("edges0s1"))
		assert.Empty(t, s.Incident("s0"))

		// Store is reusable after clearing.
		require.NoError(t, s.AddNode(s0))
		assert.Equal(t, 1, s.NodeCount())
	})

	t.Run("ListingsAreOrdered", func(t *testing.T) {
		s := seed(t)
		require.NoError(t, s.AddEdge(graph.NewEdge(s1, s0)))
		require.NoError(t, s.AddEdge(graph.NewEdge(s0, s1)))

		nodes := s.Nodes()
		ids := make([]string, len(nodes))
		for i, n := range nodes {
			ids[i] = n.ID
		}

		assert.Equal(t, []string{"n0", "n1", "s0", "s1"}, ids)
		assert.Equal(t, []string{"edges0s1", "edges1s0"}, edgeIDs(s.Edges()))
	})
}

func edgeIDs(edges []*graph.Edge) []string {
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.ID
	}
	return ids
}
