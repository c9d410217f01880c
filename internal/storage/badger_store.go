package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/Benny93/superpeer-go/internal/graph"
)

// Key prefixes for different data types
const (
	prefixNode     = "n:" // node data
	prefixEdge     = "e:" // edge data
	prefixIncident = "a:" // a:{node}:{edge} adjacency markers
)

// BadgerStore is a graph.Store backed by an in-memory BadgerDB instance.
//
// Topologies are never written to disk; the database lives only as long as
// the store.
type BadgerStore struct {
	db     *badger.DB
	logger *slog.Logger

	// mu serializes writers so the cached counts match the database.
	mu        sync.RWMutex
	nodeCount int
	edgeCount int
	byKind    map[graph.EdgeKind]int
}

var _ graph.Store = (*BadgerStore)(nil)

// NewBadgerStore opens an in-memory BadgerDB instance.
func NewBadgerStore(logger *slog.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithNumCompactors(2).
		WithLoggingLevel(badger.ERROR) // Suppress INFO/WARNING logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger DB: %w", err)
	}

	return &BadgerStore{
		db:     db,
		logger: logger,
		byKind: make(map[graph.EdgeKind]int),
	}, nil
}

// Close releases all resources held by the store.
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// AddNode implements graph.Store.
func (b *BadgerStore) AddNode(node *graph.Node) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("marshaling node: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		exists, err := keyExists(txn, nodeKey(node.ID))
		if err != nil {
			return err
		}
		if exists {
			return graph.ErrNodeExists
		}
		return txn.Set(nodeKey(node.ID), data)
	})
	if err != nil {
		return err
	}

	b.nodeCount++
	return nil
}

// AddEdge implements graph.Store.
func (b *BadgerStore) AddEdge(edge *graph.Edge) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := json.Marshal(edge)
	if err != nil {
		return fmt.Errorf("marshaling edge: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		exists, err := keyExists(txn, edgeKey(edge.ID))
		if err != nil {
			return err
		}
		if exists {
			return graph.ErrEdgeExists
		}
		if edge.Source == edge.Target {
			return graph.ErrSelfLoop
		}
		for _, endpoint := range []string{edge.Source, edge.Target} {
			ok, err := keyExists(txn, nodeKey(endpoint))
			if err != nil {
				return err
			}
			if !ok {
				return graph.ErrMissingEndpoint
			}
		}

		if err := txn.Set(edgeKey(edge.ID), data); err != nil {
			return fmt.Errorf("setting edge: %w", err)
		}
		if err := txn.Set(incidentKey(edge.Source, edge.ID), nil); err != nil {
			return fmt.Errorf("indexing edge: %w", err)
		}
		return txn.Set(incidentKey(edge.Target, edge.ID), nil)
	})
	if err != nil {
		return err
	}

	b.edgeCount++
	b.byKind[edge.Kind]++
	return nil
}

// Clear implements graph.Store.
func (b *BadgerStore) Clear() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.db.DropAll(); err != nil {
		return fmt.Errorf("dropping badger data: %w", err)
	}
	b.nodeCount = 0
	b.edgeCount = 0
	b.byKind = make(map[graph.EdgeKind]int)
	return nil
}

// NodeByID implements graph.Store.
func (b *BadgerStore) NodeByID(id string) *graph.Node {
	var node *graph.Node
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		node, err = getNode(txn, id)
		return err
	})
	if err != nil {
		b.logger.Debug("node lookup failed", "id", id, "error", err)
		return nil
	}
	return node
}

// EdgeByID implements graph.Store.
func (b *BadgerStore) EdgeByID(id string) *graph.Edge {
	var edge *graph.Edge
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		edge, err = getEdge(txn, id)
		return err
	})
	if err != nil {
		b.logger.Debug("edge lookup failed", "id", id, "error", err)
		return nil
	}
	return edge
}

// Incident implements graph.Store. Badger iterates keys in byte order, so
// the result is ordered by edge ID without sorting.
func (b *BadgerStore) Incident(nodeID string) []*graph.Edge {
	prefix := []byte(prefixIncident + nodeID + ":")
	var edges []*graph.Edge

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			edgeID := string(it.Item().Key()[len(prefix):])
			edge, err := getEdge(txn, edgeID)
			if err != nil {
				return err
			}
			if edge != nil {
				edges = append(edges, edge)
			}
		}
		return nil
	})
	if err != nil {
		b.logger.Debug("incident scan failed", "node", nodeID, "error", err)
		return nil
	}
	return edges
}

// Nodes implements graph.Store.
func (b *BadgerStore) Nodes() []*graph.Node {
	var nodes []*graph.Node
	err := b.scan(prefixNode, func(val []byte) error {
		var node graph.Node
		if err := json.Unmarshal(val, &node); err != nil {
			return err
		}
		nodes = append(nodes, &node)
		return nil
	})
	if err != nil {
		b.logger.Debug("node scan failed", "error", err)
	}
	return nodes
}

// Edges implements graph.Store.
func (b *BadgerStore) Edges() []*graph.Edge {
	var edges []*graph.Edge
	err := b.scan(prefixEdge, func(val []byte) error {
		var edge graph.Edge
		if err := json.Unmarshal(val, &edge); err != nil {
			return err
		}
		edges = append(edges, &edge)
		return nil
	})
	if err != nil {
		b.logger.Debug("edge scan failed", "error", err)
	}
	return edges
}

// NodeCount implements graph.Store.
func (b *BadgerStore) NodeCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.nodeCount
}

// EdgeCount implements graph.Store.
func (b *BadgerStore) EdgeCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.edgeCount
}

// CountEdgesByKind implements graph.Store.
func (b *BadgerStore) CountEdgesByKind(kind graph.EdgeKind) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.byKind[kind]
}

func (b *BadgerStore) scan(prefix string, fn func(val []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

func getNode(txn *badger.Txn, id string) (*graph.Node, error) {
	item, err := txn.Get(nodeKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var node graph.Node
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &node)
	}); err != nil {
		return nil, err
	}
	return &node, nil
}

func getEdge(txn *badger.Txn, id string) (*graph.Edge, error) {
	item, err := txn.Get(edgeKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var edge graph.Edge
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &edge)
	}); err != nil {
		return nil, err
	}
	return &edge, nil
}

func keyExists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func nodeKey(id string) []byte {
	return []byte(prefixNode + id)
}

func edgeKey(id string) []byte {
	return []byte(prefixEdge + id)
}

func incidentKey(nodeID, edgeID string) []byte {
	return []byte(prefixIncident + nodeID + ":" + edgeID)
}
