package graph

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory, map-backed Store.
//
// Nodes and edges are keyed by their ID string. Secondary indexes on edge
// kind and per-node incidence keep adjacency queries O(degree) rather than
// O(graph).
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	edges map[string]*Edge

	// Secondary indexes, kept in sync by AddEdge and Clear.
	byKind   map[EdgeKind]int
	incident map[string]map[string]*Edge
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new empty store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.reset()
	return s
}

func (s *MemoryStore) reset() {
	s.nodes = make(map[string]*Node)
	s.edges = make(map[string]*Edge)
	s.byKind = make(map[EdgeKind]int)
	s.incident = make(map[string]map[string]*Edge)
}

// NodeCount returns the number of nodes.
func (s *MemoryStore) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount returns the number of edges.
func (s *MemoryStore) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// CountEdgesByKind returns the number of edges of the given kind.
func (s *MemoryStore) CountEdgesByKind(kind EdgeKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byKind[kind]
}

// AddNode adds a node to the store. Unlike a replace-on-write map, an
// existing ID is left untouched.
func (s *MemoryStore) AddNode(node *Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[node.ID]; ok {
		return ErrNodeExists
	}
	s.nodes[node.ID] = node
	return nil
}

// AddEdge adds an edge to the store.
func (s *MemoryStore) AddEdge(edge *Edge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.edges[edge.ID]; ok {
		return ErrEdgeExists
	}
	if edge.Source == edge.Target {
		return ErrSelfLoop
	}
	if s.nodes[edge.Source] == nil || s.nodes[edge.Target] == nil {
		return ErrMissingEndpoint
	}

	s.edges[edge.ID] = edge
	s.byKind[edge.Kind]++
	s.link(edge.Source, edge)
	s.link(edge.Target, edge)
	return nil
}

// link must be called with the write lock held.
func (s *MemoryStore) link(nodeID string, edge *Edge) {
	if s.incident[nodeID] == nil {
		s.incident[nodeID] = make(map[string]*Edge)
	}
	s.incident[nodeID][edge.ID] = edge
}

// Clear removes all nodes and edges.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	return nil
}

// NodeByID returns the node with the given ID, or nil if it does not exist.
func (s *MemoryStore) NodeByID(id string) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[id]
}

// EdgeByID returns the edge with the given ID, or nil if it does not exist.
func (s *MemoryStore) EdgeByID(id string) *Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.edges[id]
}

// Incident returns the edges touching nodeID, ordered by edge ID.
func (s *MemoryStore) Incident(nodeID string) []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	edges, ok := s.incident[nodeID]
	if !ok {
		return nil
	}

	result := make([]*Edge, 0, len(edges))
	for _, e := range edges {
		result = append(result, e)
	}
	sortEdges(result)
	return result
}

// Nodes returns all nodes ordered by ID.
func (s *MemoryStore) Nodes() []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		result = append(result, n)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Edges returns all edges ordered by ID.
func (s *MemoryStore) Edges() []*Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Edge, 0, len(s.edges))
	for _, e := range s.edges {
		result = append(result, e)
	}
	sortEdges(result)
	return result
}

func sortEdges(edges []*Edge) {
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
}
