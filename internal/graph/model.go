// Package graph provides the overlay graph data model.
//
// It defines the node and edge types of a two-tier overlay network (super
// nodes forming a fully meshed backbone, regular nodes attached to them by
// spokes and to each other by peer edges) and the Store contract that holds
// them.
package graph

import "errors"

// NodeKind represents the tier of a node.
type NodeKind string

const (
	NodeRegular NodeKind = "regular"
	NodeSuper   NodeKind = "super"
)

// EdgeKind represents the role of an edge in the overlay.
type EdgeKind string

const (
	EdgeBackbone EdgeKind = "backbone"
	EdgeSpoke    EdgeKind = "spoke"
	EdgePeer     EdgeKind = "peer"
)

// Store errors. Every one of them means the add was a no-op; none is fatal.
var (
	ErrNodeExists      = errors.New("node already exists")
	ErrEdgeExists      = errors.New("edge already exists")
	ErrSelfLoop        = errors.New("edge source equals target")
	ErrMissingEndpoint = errors.New("edge endpoint does not exist")
)

// Node represents a node in the overlay.
type Node struct {
	// ID is the unique identifier for the node.
	// Format: n{index} for regular nodes, s{index} for super nodes.
	ID string `json:"id"`

	// Kind is the tier of the node.
	Kind NodeKind `json:"kind"`

	// Index is the position of the node within its tier.
	Index int `json:"index"`
}

// NewNode creates a node whose ID is derived from kind and index.
func NewNode(kind NodeKind, index int) *Node {
	return &Node{ID: NodeID(kind, index), Kind: kind, Index: index}
}

// Edge represents a directed edge in the overlay. Path finding treats it as
// undirected.
type Edge struct {
	// ID is the unique identifier for the edge.
	// Format: edge{source}{target}
	ID string `json:"id"`

	// Source is the ID of the source node.
	Source string `json:"source"`

	// Target is the ID of the target node.
	Target string `json:"target"`

	// Kind is the role of the edge, derived from its endpoint kinds.
	Kind EdgeKind `json:"kind"`
}

// NewEdge creates an edge between two nodes whose ID and kind are derived
// from the endpoints.
func NewEdge(source, target *Node) *Edge {
	return &Edge{
		ID:     EdgeID(source.ID, target.ID),
		Source: source.ID,
		Target: target.ID,
		Kind:   KindBetween(source.Kind, target.Kind),
	}
}

// Other returns the endpoint of e that is not nodeID.
func (e *Edge) Other(nodeID string) string {
	if e.Source == nodeID {
		return e.Target
	}
	return e.Source
}

// KindBetween returns the edge kind connecting nodes of the given tiers.
func KindBetween(a, b NodeKind) EdgeKind {
	switch {
	case a == NodeSuper && b == NodeSuper:
		return EdgeBackbone
	case a == NodeRegular && b == NodeRegular:
		return EdgePeer
	default:
		return EdgeSpoke
	}
}

// Store holds the nodes and edges of one generated overlay.
//
// Implementations must be safe for concurrent readers.
type Store interface {
	// AddNode inserts a node. Returns ErrNodeExists if the ID is taken.
	AddNode(node *Node) error

	// AddEdge inserts an edge. Returns ErrEdgeExists, ErrSelfLoop or
	// ErrMissingEndpoint when the edge is rejected.
	AddEdge(edge *Edge) error

	// Clear removes all nodes and edges.
	Clear() error

	// NodeByID returns the node with the given ID, or nil.
	NodeByID(id string) *Node

	// EdgeByID returns the edge with the given ID, or nil.
	EdgeByID(id string) *Edge

	// Incident returns every edge touching the node in either direction,
	// ordered by edge ID.
	Incident(nodeID string) []*Edge

	// Nodes returns all nodes ordered by ID.
	Nodes() []*Node

	// Edges returns all edges ordered by ID.
	Edges() []*Edge

	NodeCount() int
	EdgeCount() int
	CountEdgesByKind(kind EdgeKind) int
}
