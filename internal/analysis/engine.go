// Package analysis implements the chain and pattern engine: root-cause
// search, ripple propagation, feedback-loop detection, path finding,
// and cascade/hub/template pattern matching over the causation graph.
//
// Every traversal is iterative with an explicit visited set and work
// queue, takes a point-in-time snapshot of the graph, and is bounded
// by the configured depth limits. Queries are read-only and safe to
// run concurrently.
package analysis

import (
	"sync"

	"github.com/tbracken/newsgraph/internal/config"
	"github.com/tbracken/newsgraph/internal/graph"
	"github.com/tbracken/newsgraph/internal/logging"
	"github.com/tbracken/newsgraph/internal/models"
	"github.com/tbracken/newsgraph/internal/store"
)

// Engine answers queries over the causation graph
type Engine struct {
	graph  *graph.Graph
	events *store.EventStore
	logger *logging.Logger

	mu  sync.RWMutex
	cfg *config.Config
}

// NewEngine creates a query engine over the given graph and event store
func NewEngine(g *graph.Graph, events *store.EventStore, cfg *config.Config) *Engine {
	return &Engine{
		graph:  g,
		events: events,
		cfg:    cfg,
		logger: logging.GetLogger("analysis"),
	}
}

// SetConfig swaps the engine's tunables, for config hot-reload
func (e *Engine) SetConfig(cfg *config.Config) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg = cfg
}

func (e *Engine) config() *config.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// Stats returns node/edge counts and the relationship type histogram
func (e *Engine) Stats() GraphStats {
	return GraphStats{
		Nodes:         e.graph.NodeCount(),
		Edges:         e.graph.EdgeCount(),
		PendingEdges:  e.graph.PendingCount(),
		TypeHistogram: e.graph.TypeHistogram(),
	}
}

// requireEvent resolves an event id and returns a ValidationError for
// unknown ids. Queries never error for "no data found", only for
// malformed input such as a bad id.
func (e *Engine) requireEvent(id string) (*models.Event, error) {
	event, ok := e.events.Get(id)
	if !ok {
		return nil, models.NewValidationError("unknown event id %q", id)
	}
	return event, nil
}
