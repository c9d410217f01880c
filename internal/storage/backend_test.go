package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/superpeer-go/internal/graph"
	"github.com/Benny93/superpeer-go/internal/graph/graphtest"
)

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("Memory", func(t *testing.T) {
		t.Parallel()
		b, err := Open(KindMemory, nil)
		require.NoError(t, err)
		defer b.Close()

		assert.IsType(t, memoryBackend{}, b)
	})

	t.Run("DefaultsToMemory", func(t *testing.T) {
		t.Parallel()
		b, err := Open("", nil)
		require.NoError(t, err)
		defer b.Close()

		assert.IsType(t, memoryBackend{}, b)
	})

	t.Run("Badger", func(t *testing.T) {
		t.Parallel()
		b, err := Open(KindBadger, nil)
		require.NoError(t, err)
		defer b.Close()

		assert.IsType(t, &BadgerStore{}, b)
	})

	t.Run("Unknown", func(t *testing.T) {
		t.Parallel()
		_, err := Open("postgres", nil)
		assert.Error(t, err)
	})
}

func TestMemoryBackend_Contract(t *testing.T) {
	t.Parallel()

	graphtest.RunStoreContract(t, func(t *testing.T) graph.Store {
		b, err := Open(KindMemory, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = b.Close() })
		return b
	})
}
