package topology

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/Benny93/superpeer-go/internal/graph"
)

// DefaultPeerDivisor sets the peer target to floor(regularCount / 20),
// i.e. each regular node links to roughly 5% of its peers.
const DefaultPeerDivisor = 20

// attemptsPerPeer bounds the random draws spent on one node so that the
// peer loop always terminates, even when collisions dominate.
const attemptsPerPeer = 32

// ErrInvalidCounts is returned when either node count is not positive.
var ErrInvalidCounts = errors.New("regular and super node counts must be positive")

// PeerPolicy decides what happens when a node draws itself as a peer.
type PeerPolicy string

const (
	// PeerAbandon stops linking peers for the node on a self draw. Nodes
	// can end up below the peer target.
	PeerAbandon PeerPolicy = "abandon"

	// PeerResample discards the self draw and keeps drawing.
	PeerResample PeerPolicy = "resample"
)

// ProgressCallback is called with phase name and progress (0.0-1.0).
type ProgressCallback func(phase string, progress float64)

// Options configures a Generator. The zero value is usable.
type Options struct {
	// PeerDivisor sets the per-node peer target to regularCount / PeerDivisor.
	PeerDivisor int

	// PeerPolicy handles self draws. Defaults to PeerAbandon.
	PeerPolicy PeerPolicy

	// Seed seeds the peer RNG when Rand is nil. Zero picks a random seed.
	Seed uint64

	// Rand overrides the peer RNG.
	Rand *rand.Rand

	Logger   *slog.Logger
	Progress ProgressCallback
}

// Stats summarizes one generation run.
type Stats struct {
	GenerationID string `json:"generation_id"`
	RegularCount int    `json:"regular_count"`
	SuperCount   int    `json:"super_count"`

	Nodes         int `json:"nodes"`
	Edges         int `json:"edges"`
	BackboneEdges int `json:"backbone_edges"`
	SpokeEdges    int `json:"spoke_edges"`
	PeerEdges     int `json:"peer_edges"`

	// PeerTarget is the number of peer edges each regular node aims for.
	PeerTarget int `json:"peer_target"`
	// PeerShortfall is the total number of peer edges missing from the target.
	PeerShortfall int `json:"peer_shortfall"`
	// SelfDraws counts random draws that picked the node itself.
	SelfDraws int `json:"self_draws"`
	// Collisions counts draws that hit an existing peer edge.
	Collisions int `json:"collisions"`
	// Rejected counts adds the store refused outside of peer collisions.
	Rejected int `json:"rejected"`

	Duration time.Duration `json:"duration"`
}

// Generator populates a graph.Store with an overlay topology.
type Generator struct {
	store  graph.Store
	opts   Options
	rng    *rand.Rand
	logger *slog.Logger
}

// NewGenerator creates a generator writing to store.
func NewGenerator(store graph.Store, opts Options) *Generator {
	if opts.PeerDivisor <= 0 {
		opts.PeerDivisor = DefaultPeerDivisor
	}
	if opts.PeerPolicy == "" {
		opts.PeerPolicy = PeerAbandon
	}

	rng := opts.Rand
	if rng == nil {
		seed := opts.Seed
		if seed == 0 {
			seed = rand.Uint64()
		}
		rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Generator{store: store, opts: opts, rng: rng, logger: logger}
}

// Generate clears the store and rebuilds the overlay for the given counts.
//
// Backbone and spoke edges depend only on the counts; peer edges are drawn
// at random and may fall short of the target.
func (g *Generator) Generate(regularCount, superCount int) (*Stats, error) {
	if regularCount < 1 || superCount < 1 {
		return nil, fmt.Errorf("%w: regular=%d super=%d", ErrInvalidCounts, regularCount, superCount)
	}

	start := time.Now()
	stats := &Stats{
		GenerationID: uuid.NewString(),
		RegularCount: regularCount,
		SuperCount:   superCount,
	}
	logger := g.logger.With("generation", stats.GenerationID)

	if err := g.store.Clear(); err != nil {
		return nil, fmt.Errorf("clearing store: %w", err)
	}

	// Phase 1: Nodes
	g.progress("Creating nodes", 0.0)
	supers, err := g.addNodes(graph.NodeSuper, superCount, stats)
	if err != nil {
		return nil, err
	}
	regulars, err := g.addNodes(graph.NodeRegular, regularCount, stats)
	if err != nil {
		return nil, err
	}
	g.progress("Creating nodes", 1.0)

	// Phase 2: Backbone mesh, both directions of every pair
	g.progress("Building backbone", 0.0)
	for i, a := range supers {
		for j, b := range supers {
			if i == j {
				continue
			}
			if err := g.addEdge(graph.NewEdge(a, b), stats); err != nil {
				return nil, err
			}
		}
	}
	g.progress("Building backbone", 1.0)
	logger.Debug("backbone built", "edges", stats.BackboneEdges)

	// Phase 3: Spokes
	g.progress("Attaching spokes", 0.0)
	partition := NewPartition(regularCount, superCount)
	for k, r := range partition.Ranges() {
		for i := r.Start; i < r.End; i++ {
			if err := g.addEdge(graph.NewEdge(supers[k], regulars[i]), stats); err != nil {
				return nil, err
			}
		}
	}
	g.progress("Attaching spokes", 1.0)
	logger.Debug("spokes attached",
		"edges", stats.SpokeEdges,
		"per_super", partition.PerSuper,
		"remainder", partition.Remainder(),
	)

	// Phase 4: Peers
	g.progress("Linking peers", 0.0)
	if err := g.linkPeers(regulars, stats); err != nil {
		return nil, err
	}
	g.progress("Linking peers", 1.0)

	stats.Nodes = g.store.NodeCount()
	stats.Edges = g.store.EdgeCount()
	stats.Duration = time.Since(start)

	logger.Info("topology generated",
		"regular", regularCount,
		"super", superCount,
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"peer_edges", stats.PeerEdges,
		"peer_shortfall", stats.PeerShortfall,
		"duration", stats.Duration,
	)
	return stats, nil
}

// linkPeers draws peer edges for every regular node.
func (g *Generator) linkPeers(regulars []*graph.Node, stats *Stats) error {
	n := len(regulars)
	target := n / g.opts.PeerDivisor
	stats.PeerTarget = target
	if target == 0 {
		return nil
	}
	maxAttempts := target*attemptsPerPeer + n

	for i, node := range regulars {
		connections := 0
		for attempts := 0; connections < target && attempts < maxAttempts; attempts++ {
			peer := g.rng.IntN(n)
			if peer == i {
				stats.SelfDraws++
				if g.opts.PeerPolicy == PeerAbandon {
					break
				}
				continue
			}

			err := g.store.AddEdge(graph.NewEdge(node, regulars[peer]))
			if errors.Is(err, graph.ErrEdgeExists) {
				stats.Collisions++
				continue
			}
			if err != nil {
				return fmt.Errorf("adding peer edge %s: %w", graph.EdgeID(node.ID, regulars[peer].ID), err)
			}
			stats.PeerEdges++
			connections++
		}
		stats.PeerShortfall += target - connections

		if g.opts.Progress != nil && i%64 == 0 {
			g.progress("Linking peers", float64(i)/float64(n))
		}
	}
	return nil
}

func (g *Generator) addNodes(kind graph.NodeKind, count int, stats *Stats) ([]*graph.Node, error) {
	nodes := make([]*graph.Node, count)
	for i := range nodes {
		nodes[i] = graph.NewNode(kind, i)
		if err := g.store.AddNode(nodes[i]); err != nil {
			if !errors.Is(err, graph.ErrNodeExists) {
				return nil, fmt.Errorf("adding node %s: %w", nodes[i].ID, err)
			}
			stats.Rejected++
		}
	}
	return nodes, nil
}

// addEdge adds a deterministic edge. Store rejections are counted and
// skipped; anything else aborts generation.
func (g *Generator) addEdge(edge *graph.Edge, stats *Stats) error {
	err := g.store.AddEdge(edge)
	switch {
	case err == nil:
	case isNoOp(err):
		stats.Rejected++
		g.logger.Debug("edge rejected", "id", edge.ID, "reason", err)
		return nil
	default:
		return fmt.Errorf("adding edge %s: %w", edge.ID, err)
	}

	switch edge.Kind {
	case graph.EdgeBackbone:
		stats.BackboneEdges++
	case graph.EdgeSpoke:
		stats.SpokeEdges++
	}
	return nil
}

func (g *Generator) progress(phase string, pct float64) {
	if g.opts.Progress != nil {
		g.opts.Progress(phase, pct)
	}
}

func isNoOp(err error) bool {
	return errors.Is(err, graph.ErrNodeExists) ||
		errors.Is(err, graph.ErrEdgeExists) ||
		errors.Is(err, graph.ErrSelfLoop) ||
		errors.Is(err, graph.ErrMissingEndpoint)
}
