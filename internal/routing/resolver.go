package routing

import (
	"errors"
	"fmt"

	"github.com/Benny93/superpeer-go/internal/graph"
	"github.com/Benny93/superpeer-go/internal/topology"
)

// ErrNotRegularNode is returned when a backbone path endpoint is not a
// regular node ID.
var ErrNotRegularNode = errors.New("not a regular node id")

// Resolver computes paths over a store. It only reads from the store.
type Resolver struct {
	store     graph.Store
	partition topology.Partition
}

// NewResolver creates a resolver for a store generated with the given
// counts. The counts must match the ones the topology was generated with,
// otherwise backbone paths contain missing elements.
func NewResolver(store graph.Store, regularCount, superCount int) *Resolver {
	return &Resolver{
		store:     store,
		partition: topology.NewPartition(regularCount, superCount),
	}
}

// Partition returns the partition map the resolver routes with.
func (r *Resolver) Partition() topology.Partition {
	return r.partition
}

// ShortestPath returns a fewest-hop path between two nodes, treating every
// edge as undirected with unit weight. It returns an empty path when
// either node is unknown or no route exists.
func (r *Resolver) ShortestPath(startID, endID string) Path {
	start := r.store.NodeByID(startID)
	end := r.store.NodeByID(endID)
	if start == nil || end == nil {
		return nil
	}

	if startID == endID {
		return Path{{ID: start.ID, Node: start}}
	}

	// BFS with parent-edge tracking
	via := make(map[string]*graph.Edge)
	visited := map[string]bool{startID: true}
	queue := []string{startID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, edge := range r.store.Incident(current) {
			next := edge.Other(current)
			if visited[next] {
				continue
			}
			visited[next] = true
			via[next] = edge

			if next == endID {
				return r.reconstruct(startID, endID, via)
			}
			queue = append(queue, next)
		}
	}

	return nil
}

// reconstruct walks parent edges back from endID and returns the path in
// start-to-end order.
func (r *Resolver) reconstruct(startID, endID string, via map[string]*graph.Edge) Path {
	var reversed Path
	for current := endID; ; {
		reversed = append(reversed, r.nodeElement(current))
		if current == startID {
			break
		}
		edge := via[current]
		reversed = append(reversed, Element{ID: edge.ID, Edge: edge})
		current = edge.Other(current)
	}

	path := make(Path, len(reversed))
	for i, e := range reversed {
		path[len(reversed)-1-i] = e
	}
	return path
}

// PathThroughBackbone returns the relay path between two regular nodes:
// up a spoke to the start node's super node, across the backbone when the
// end node belongs to a different super node, and down a spoke.
//
// No search is performed. Every element is looked up by its derived ID and
// a lookup that finds nothing stays in the path as a missing element; the
// result is not validated.
func (r *Resolver) PathThroughBackbone(startID, endID string) (Path, error) {
	startIndex, err := regularIndex(startID)
	if err != nil {
		return nil, err
	}
	endIndex, err := regularIndex(endID)
	if err != nil {
		return nil, err
	}

	startSuper := graph.NodeID(graph.NodeSuper, r.partition.SuperOf(startIndex))
	endSuper := graph.NodeID(graph.NodeSuper, r.partition.SuperOf(endIndex))

	path := Path{
		r.nodeElement(startID),
		r.edgeElement(startSuper, startID),
		r.nodeElement(startSuper),
	}

	if startSuper != endSuper {
		path = append(path,
			r.edgeElement(startSuper, endSuper),
			r.nodeElement(endSuper),
		)
	}

	return append(path,
		r.edgeElement(endSuper, endID),
		r.nodeElement(endID),
	), nil
}

func (r *Resolver) nodeElement(id string) Element {
	return Element{ID: id, Node: r.store.NodeByID(id)}
}

func (r *Resolver) edgeElement(source, target string) Element {
	id := graph.EdgeID(source, target)
	return Element{ID: id, Edge: r.store.EdgeByID(id)}
}

func regularIndex(id string) (int, error) {
	kind, index, err := graph.ParseNodeID(id)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrNotRegularNode, err)
	}
	if kind != graph.NodeRegular {
		return 0, fmt.Errorf("%w: %q is a %s node", ErrNotRegularNode, id, kind)
	}
	return index, nil
}
