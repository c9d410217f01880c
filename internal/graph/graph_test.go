package graph_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/superpeer-go/internal/graph"
	"github.com/Benny93/superpeer-go/internal/graph/graphtest"
)

func TestMemoryStore_Contract(t *testing.T) {
	t.Parallel()

	graphtest.RunStoreContract(t, func(t *testing.T) graph.Store {
		return graph.NewMemoryStore()
	})
}

func TestNewMemoryStore(t *testing.T) {
	t.Parallel()

	s := graph.NewMemoryStore()

	assert.NotNil(t, s)
	assert.Equal(t, 0, s.NodeCount())
	assert.Equal(t, 0, s.EdgeCount())
}

func TestMemoryStore_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	s := graph.NewMemoryStore()
	hub := graph.NewNode(graph.NodeSuper, 0)
	require.NoError(t, s.AddNode(hub))
	for i := range 50 {
		n := graph.NewNode(graph.NodeRegular, i)
		require.NoError(t, s.AddNode(n))
		require.NoError(t, s.AddEdge(graph.NewEdge(hub, n)))
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				assert.Len(t, s.Incident("s0"), 50)
				assert.NotNil(t, s.EdgeByID("edges0n7"))
			}
		}()
	}
	wg.Wait()
}
