// Package storage provides the graph.Store backends for superpeer.
//
// Two backends satisfy the same contract: a map-backed store used by
// default, and a BadgerDB store running in memory-only mode.
package storage

import (
	"fmt"
	"log/slog"

	"github.com/Benny93/superpeer-go/internal/graph"
)

// Kind names a backend implementation.
type Kind string

const (
	KindMemory Kind = "memory"
	KindBadger Kind = "badger"
)

// Backend is a graph.Store that owns resources which must be released.
type Backend interface {
	graph.Store

	// Close releases all resources held by the backend.
	Close() error
}

// memoryBackend adapts graph.MemoryStore to Backend.
type memoryBackend struct {
	*graph.MemoryStore
}

// Close implements Backend.
func (memoryBackend) Close() error {
	return nil
}

// Open creates an empty backend of the given kind.
func Open(kind Kind, logger *slog.Logger) (Backend, error) {
	switch kind {
	case KindMemory, "":
		return memoryBackend{graph.NewMemoryStore()}, nil
	case KindBadger:
		return NewBadgerStore(logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", kind)
	}
}
