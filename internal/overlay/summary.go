package overlay

import (
	"github.com/Benny93/superpeer-go/internal/graph"
	"github.com/Benny93/superpeer-go/internal/topology"
)

// SuperSummary describes one super node and the regular range it owns.
type SuperSummary struct {
	ID     string         `json:"id"`
	Range  topology.Range `json:"range"`
	Spokes int            `json:"spokes"`
	Degree int            `json:"degree"`
}

// DegreeStats summarizes the degree of regular nodes.
type DegreeStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
}

// Summary is a presentation-ready description of the current topology.
type Summary struct {
	Stats         *topology.Stats `json:"stats"`
	Supers        []SuperSummary  `json:"supers"`
	RegularDegree DegreeStats     `json:"regular_degree"`
}

// Describe summarizes the current topology.
func (e *Engine) Describe() (*Summary, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.resolver == nil {
		return nil, ErrNoTopology
	}

	partition := e.resolver.Partition()
	summary := &Summary{
		Stats:  e.stats,
		Supers: make([]SuperSummary, partition.SuperCount),
	}

	for k := range summary.Supers {
		id := graph.NodeID(graph.NodeSuper, k)
		incident := e.store.Incident(id)
		spokes := 0
		for _, edge := range incident {
			if edge.Kind == graph.EdgeSpoke {
				spokes++
			}
		}
		summary.Supers[k] = SuperSummary{
			ID:     id,
			Range:  partition.RangeOf(k),
			Spokes: spokes,
			Degree: len(incident),
		}
	}

	total := 0
	for i := range partition.RegularCount {
		degree := len(e.store.Incident(graph.NodeID(graph.NodeRegular, i)))
		if i == 0 || degree < summary.RegularDegree.Min {
			summary.RegularDegree.Min = degree
		}
		if degree > summary.RegularDegree.Max {
			summary.RegularDegree.Max = degree
		}
		total += degree
	}
	if partition.RegularCount > 0 {
		summary.RegularDegree.Mean = float64(total) / float64(partition.RegularCount)
	}

	return summary, nil
}
