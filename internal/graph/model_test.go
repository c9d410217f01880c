package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind  NodeKind
		index int
		want  string
	}{
		{NodeRegular, 0, "n0"},
		{NodeRegular, 99, "n99"},
		{NodeSuper, 0, "s0"},
		{NodeSuper, 12, "s12"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NodeID(tt.kind, tt.index))

			kind, index, err := ParseNodeID(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.index, index)
		})
	}
}

func TestNodeID_TiersNeverCollide(t *testing.T) {
	t.Parallel()

	for i := range 200 {
		assert.NotEqual(t, NodeID(NodeRegular, i), NodeID(NodeSuper, i))
	}
}

func TestParseNodeID_Invalid(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"", "n", "s", "x3", "n-1", "n07", "n1a", "edges0s1", "7"} {
		t.Run(id, func(t *testing.T) {
			t.Parallel()
			_, _, err := ParseNodeID(id)
			assert.Error(t, err)
		})
	}
}

func TestEdgeID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		source, target string
		want           string
	}{
		{"s0", "s1", "edges0s1"},
		{"s2", "n17", "edges2n17"},
		{"n3", "n9", "edgen3n9"},
		{"s12", "n104", "edges12n104"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, EdgeID(tt.source, tt.target))

			source, target, err := ParseEdgeID(tt.want)
			require.NoError(t, err)
			assert.Equal(t, tt.source, source)
			assert.Equal(t, tt.target, target)
		})
	}
}

func TestParseEdgeID_Invalid(t *testing.T) {
	t.Parallel()

	for _, id := range []string{"", "edge", "edges0", "edges0x1", "s0s1", "edgex0s1", "edges0s"} {
		t.Run(id, func(t *testing.T) {
			t.Parallel()
			_, _, err := ParseEdgeID(id)
			assert.Error(t, err)
		})
	}
}

func TestNewEdge(t *testing.T) {
	t.Parallel()

	s0 := NewNode(NodeSuper, 0)
	s1 := NewNode(NodeSuper, 1)
	n4 := NewNode(NodeRegular, 4)
	n5 := NewNode(NodeRegular, 5)

	t.Run("Backbone", func(t *testing.T) {
		t.Parallel()
		e := NewEdge(s0, s1)
		assert.Equal(t, "edges0s1", e.ID)
		assert.Equal(t, EdgeBackbone, e.Kind)
	})

	t.Run("Spoke", func(t *testing.T) {
		t.Parallel()
		e := NewEdge(s1, n4)
		assert.Equal(t, "edges1n4", e.ID)
		assert.Equal(t, EdgeSpoke, e.Kind)
		assert.Equal(t, "s1", e.Source)
		assert.Equal(t, "n4", e.Target)
	})

	t.Run("Peer", func(t *testing.T) {
		t.Parallel()
		e := NewEdge(n4, n5)
		assert.Equal(t, "edgen4n5", e.ID)
		assert.Equal(t, EdgePeer, e.Kind)
	})

	t.Run("Other", func(t *testing.T) {
		t.Parallel()
		e := NewEdge(n4, n5)
		assert.Equal(t, "n5", e.Other("n4"))
		assert.Equal(t, "n4", e.Other("n5"))
	})
}
