// Package routing resolves paths between regular nodes of an overlay.
//
// Two strategies are offered: a unit-weight shortest path over the whole
// graph, and a fixed-shape relay path that always climbs to the backbone.
package routing

import "github.com/Benny93/superpeer-go/internal/graph"

// Element is one step of a path: a node or an edge. When the lookup for
// ID found nothing both Node and Edge are nil and the element is missing.
type Element struct {
	ID   string      `json:"id"`
	Node *graph.Node `json:"node,omitempty"`
	Edge *graph.Edge `json:"edge,omitempty"`
}

// Missing reports whether the element could not be resolved.
func (e Element) Missing() bool {
	return e.Node == nil && e.Edge == nil
}

// IsNode reports whether the element resolved to a node.
func (e Element) IsNode() bool {
	return e.Node != nil
}

// Path is an ordered sequence alternating nodes and edges, start to end
// inclusive. An empty path means no route.
type Path []Element

// IDs returns the identifier of every element in order.
func (p Path) IDs() []string {
	ids := make([]string, len(p))
	for i, e := range p {
		ids[i] = e.ID
	}
	return ids
}

// Complete reports whether the path is non-empty and every element
// resolved. Callers must not render a path that is not complete.
func (p Path) Complete() bool {
	if len(p) == 0 {
		return false
	}
	for _, e := range p {
		if e.Missing() {
			return false
		}
	}
	return true
}

// Missing returns the IDs of unresolved elements.
func (p Path) Missing() []string {
	var ids []string
	for _, e := range p {
		if e.Missing() {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

// Hops returns the number of edges traversed.
func (p Path) Hops() int {
	if len(p) == 0 {
		return 0
	}
	return len(p) / 2
}

// Len returns the number of elements, nodes and edges alike.
func (p Path) Len() int {
	return len(p)
}
