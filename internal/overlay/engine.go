// Package overlay ties topology generation, storage and routing into a
// single engine that owns one overlay at a time.
package overlay

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/Benny93/superpeer-go/internal/config"
	"github.com/Benny93/superpeer-go/internal/graph"
	"github.com/Benny93/superpeer-go/internal/metrics"
	"github.com/Benny93/superpeer-go/internal/routing"
	"github.com/Benny93/superpeer-go/internal/storage"
	"github.com/Benny93/superpeer-go/internal/topology"
)

// ErrNoTopology is returned by path queries issued before any generation.
var ErrNoTopology = errors.New("no topology generated")

// Engine owns the graph store and serializes generation against path
// queries. Generation rebuilds the overlay from scratch.
type Engine struct {
	mu        sync.RWMutex
	cfg       config.Config
	store     storage.Backend
	generator *topology.Generator
	resolver  *routing.Resolver
	stats     *topology.Stats
	progress  topology.ProgressCallback
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New creates an engine from a validated config. No topology exists until
// GenerateTopology is called.
func New(cfg config.Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	store, err := storage.Open(storage.Kind(cfg.Store), logger)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	e := &Engine{
		cfg:     cfg,
		store:   store,
		metrics: metrics.New(),
		logger:  logger,
	}
	e.generator = topology.NewGenerator(store, topology.Options{
		PeerDivisor: cfg.Peers.Divisor,
		PeerPolicy:  topology.PeerPolicy(cfg.Peers.Policy),
		Seed:        cfg.Peers.Seed,
		Logger:      logger,
		Progress:    e.reportProgress,
	})
	return e, nil
}

// Close releases the store.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Close()
}

// Config returns the engine configuration.
func (e *Engine) Config() config.Config {
	return e.cfg
}

// Metrics returns the engine's collectors.
func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

// Store returns the graph store for read-only use.
func (e *Engine) Store() graph.Store {
	return e.store
}

// GenerateTopology clears the store and builds a new overlay. A zero count
// falls back to the configured value for that count alone.
func (e *Engine) GenerateTopology(regularCount, superCount int) (*topology.Stats, error) {
	if regularCount == 0 {
		regularCount = e.cfg.RegularCount
	}
	if superCount == 0 {
		superCount = e.cfg.SuperCount
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stats, err := e.generator.Generate(regularCount, superCount)
	if err != nil {
		e.resolver = nil
		e.stats = nil
		return nil, fmt.Errorf("generating topology: %w", err)
	}

	e.resolver = routing.NewResolver(e.store, regularCount, superCount)
	e.stats = stats
	e.metrics.ObserveGeneration(stats)
	return stats, nil
}

// SetProgress installs a progress callback for subsequent generations.
func (e *Engine) SetProgress(progress topology.ProgressCallback) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress = progress
}

// reportProgress runs under the write lock held by GenerateTopology.
func (e *Engine) reportProgress(phase string, pct float64) {
	if e.progress != nil {
		e.progress(phase, pct)
	}
}

// Stats returns the statistics of the current topology, or nil.
func (e *Engine) Stats() *topology.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// Partition returns the partition map of the current topology.
func (e *Engine) Partition() (topology.Partition, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.resolver == nil {
		return topology.Partition{}, ErrNoTopology
	}
	return e.resolver.Partition(), nil
}

// ShortestPath returns the fewest-hop path between two nodes. An empty path
// means the nodes are not connected.
func (e *Engine) ShortestPath(startID, endID string) (routing.Path, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.resolver == nil {
		return nil, ErrNoTopology
	}

	path := e.resolver.ShortestPath(NormalizeNodeID(startID), NormalizeNodeID(endID))
	e.observe(metrics.PathShortest, path, nil)
	return path, nil
}

// PathThroughBackbone returns the spoke-backbone-spoke relay path between
// two regular nodes. The path may contain missing elements; check
// Path.Complete before rendering it.
func (e *Engine) PathThroughBackbone(startID, endID string) (routing.Path, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.resolver == nil {
		return nil, ErrNoTopology
	}

	path, err := e.resolver.PathThroughBackbone(NormalizeNodeID(startID), NormalizeNodeID(endID))
	e.observe(metrics.PathBackbone, path, err)
	if err != nil {
		return nil, err
	}
	if !path.Complete() {
		e.logger.Warn("backbone path has missing elements", "start", startID, "end", endID, "missing", path.Missing())
	}
	return path, nil
}

func (e *Engine) observe(kind string, path routing.Path, err error) {
	result := metrics.ResultComplete
	switch {
	case err != nil:
		result = metrics.ResultError
	case len(path) == 0:
		result = metrics.ResultEmpty
	case !path.Complete():
		result = metrics.ResultIncomplete
	}
	e.metrics.ObservePath(kind, result, path.Hops())
}

// NormalizeNodeID accepts a bare regular node index ("7") as well as a
// full node ID ("n7").
func NormalizeNodeID(raw string) string {
	id := strings.TrimSpace(raw)
	index, err := strconv.Atoi(id)
	if err != nil || index < 0 {
		return id
	}
	return graph.NodeID(graph.NodeRegular, index)
}
