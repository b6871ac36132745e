// Package graph implements the directed causation graph. Nodes are
// event ids, lazily materialized once they have at least one incident
// edge; edges carry the full classified relationship.
package graph

import (
	"sort"
	"sync"
	"time"

	"github.com/tbracken/newsgraph/internal/logging"
	"github.com/tbracken/newsgraph/internal/models"
)

// Direction selects which incident edges a neighbor query follows
type Direction int

const (
	// DirectionOut follows outgoing edges (effects)
	DirectionOut Direction = iota
	// DirectionIn follows incoming edges (causes)
	DirectionIn
	// DirectionBoth follows edges in either orientation
	DirectionBoth
)

// EventChecker reports whether an event id is known. Satisfied by the
// event store; the graph uses it to detect edges that arrive before
// one of their endpoints has been ingested.
type EventChecker interface {
	Has(id string) bool
}

type pendingEdge struct {
	rel      models.Relationship
	deadline time.Time
}

// Graph is the directed causation graph. One edge per ordered pair:
// re-adding overwrites, matching the relationship cache invariant.
// Two events with co-occurring relationship facets keep only the most
// recent classification.
//
// Edges referencing an event the store has not seen yet are parked as
// pending and replayed via ResolvePending, or discarded once their
// pending TTL passes.
type Graph struct {
	mu      sync.RWMutex
	out     map[string]map[string]models.Relationship // source -> target -> edge
	in      map[string]map[string]models.Relationship // target -> source -> edge
	pending []pendingEdge

	events     EventChecker
	pendingTTL time.Duration
	logger     *logging.Logger
}

// New creates an empty causation graph. events may be nil, in which
// case endpoint existence is not enforced (useful for synthetic graphs
// in tests).
func New(events EventChecker, pendingTTL time.Duration) *Graph {
	return &Graph{
		out:        make(map[string]map[string]models.Relationship),
		in:         make(map[string]map[string]models.Relationship),
		events:     events,
		pendingTTL: pendingTTL,
		logger:     logging.GetLogger("graph"),
	}
}

// AddRelationship validates and inserts the relationship as an edge.
// If an endpoint event is unknown the edge is parked pending and a
// GraphConsistencyError is returned; the caller may treat that as
// informational since the edge will be replayed when the event arrives.
func (g *Graph) AddRelationship(rel models.Relationship) error {
	if err := rel.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.events != nil {
		missing := ""
		if !g.events.Has(rel.SourceID) {
			missing = rel.SourceID
		} else if !g.events.Has(rel.TargetID) {
			missing = rel.TargetID
		}
		if missing != "" {
			g.pending = append(g.pending, pendingEdge{
				rel:      rel,
				deadline: time.Now().Add(g.pendingTTL),
			})
			g.logger.Debug("parked pending edge %s->%s (unknown event %s)",
				rel.SourceID, rel.TargetID, missing)
			return models.NewGraphConsistencyError(missing)
		}
	}

	g.insertLocked(rel)
	return nil
}

func (g *Graph) insertLocked(rel models.Relationship) {
	if g.out[rel.SourceID] == nil {
		g.out[rel.SourceID] = make(map[string]models.Relationship)
	}
	if g.in[rel.TargetID] == nil {
		g.in[rel.TargetID] = make(map[string]models.Relationship)
	}
	g.out[rel.SourceID][rel.TargetID] = rel
	g.in[rel.TargetID][rel.SourceID] = rel
}

// ResolvePending replays parked edges whose endpoints are now both
// known and drops edges past their pending TTL. Call after ingesting
// new events. Returns the number of edges inserted.
func (g *Graph) ResolvePending(now time.Time) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.events == nil || len(g.pending) == 0 {
		return 0
	}

	inserted := 0
	remaining := g.pending[:0]
	for _, pe := range g.pending {
		switch {
		case g.events.Has(pe.rel.SourceID) && g.events.Has(pe.rel.TargetID):
			g.insertLocked(pe.rel)
			inserted++
		case now.After(pe.deadline):
			g.logger.Warn("discarding pending edge %s->%s after TTL",
				pe.rel.SourceID, pe.rel.TargetID)
		default:
			remaining = append(remaining, pe)
		}
	}
	g.pending = remaining
	return inserted
}

// PendingCount returns the number of parked edges
func (g *Graph) PendingCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.pending)
}

// RemoveEdge deletes the edge for the ordered pair, for cache
// invalidation. Removing an absent edge is a no-op.
func (g *Graph) RemoveEdge(sourceID, targetID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.out[sourceID], targetID)
	if len(g.out[sourceID]) == 0 {
		delete(g.out, sourceID)
	}
	delete(g.in[targetID], sourceID)
	if len(g.in[targetID]) == 0 {
		delete(g.in, targetID)
	}
}

// Edge returns the relationship on the ordered pair, or false
func (g *Graph) Edge(sourceID, targetID string) (models.Relationship, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rel, ok := g.out[sourceID][targetID]
	return rel, ok
}

// Neighbors returns the edges incident to the event in the given
// direction, sorted by the far endpoint id for determinism. For
// DirectionBoth an edge present in both orientations appears once
// per orientation it was stored under.
func (g *Graph) Neighbors(eventID string, dir Direction) []models.Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []models.Relationship
	if dir == DirectionOut || dir == DirectionBoth {
		for _, rel := range g.out[eventID] {
			out = append(out, rel)
		}
	}
	if dir == DirectionIn || dir == DirectionBoth {
		for _, rel := range g.in[eventID] {
			out = append(out, rel)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SourceID != out[j].SourceID {
			return out[i].SourceID < out[j].SourceID
		}
		return out[i].TargetID < out[j].TargetID
	})
	return out
}

// Degree returns the combined in+out degree of the event
func (g *Graph) Degree(eventID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.out[eventID]) + len(g.in[eventID])
}

// NodeIDs returns every node id (any incident edge), sorted
func (g *Graph) NodeIDs() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[string]struct{})
	for id := range g.out {
		seen[id] = struct{}{}
	}
	for id := range g.in {
		seen[id] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// NodeCount returns the number of materialized nodes
func (g *Graph) NodeCount() int {
	return len(g.NodeIDs())
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n := 0
	for _, targets := range g.out {
		n += len(targets)
	}
	return n
}

// TypeHistogram returns edge counts per relationship type
func (g *Graph) TypeHistogram() map[models.RelationType]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	hist := make(map[models.RelationType]int)
	for _, targets := range g.out {
		for _, rel := range targets {
			hist[rel.Type]++
		}
	}
	return hist
}

// Snapshot returns a detached point-in-time copy of the graph for
// traversal. Traversals over a snapshot never block writers and are
// documented as tolerating edges committed after the snapshot.
func (g *Graph) Snapshot() *Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	snap := &Snapshot{
		Out: make(map[string][]models.Relationship, len(g.out)),
		In:  make(map[string][]models.Relationship, len(g.in)),
	}
	for id, targets := range g.out {
		edges := make([]models.Relationship, 0, len(targets))
		for _, rel := range targets {
			edges = append(edges, rel)
		}
		sort.Slice(edges, func(i, j int) bool { return edges[i].TargetID < edges[j].TargetID })
		snap.Out[id] = edges
	}
	for id, sources := range g.in {
		edges := make([]models.Relationship, 0, len(sources))
		for _, rel := range sources {
			edges = append(edges, rel)
		}
		sort.Slice(edges, func(i, j int) bool { return edges[i].SourceID < edges[j].SourceID })
		snap.In[id] = edges
	}
	return snap
}

// Snapshot is an immutable adjacency view used by traversal algorithms
type Snapshot struct {
	Out map[string][]models.Relationship
	In  map[string][]models.Relationship
}

// Edge returns the relationship on the ordered pair in the snapshot
func (s *Snapshot) Edge(sourceID, targetID string) (models.Relationship, bool) {
	for _, rel := range s.Out[sourceID] {
		if rel.TargetID == targetID {
			return rel, true
		}
	}
	return models.Relationship{}, false
}

// NodeIDs returns every node id in the snapshot, sorted
func (s *Snapshot) NodeIDs() []string {
	seen := make(map[string]struct{})
	for id := range s.Out {
		seen[id] = struct{}{}
	}
	for id := range s.In {
		seen[id] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Degree returns the combined in+out degree of the event in the snapshot
func (s *Snapshot) Degree(eventID string) int {
	return len(s.Out[eventID]) + len(s.In[eventID])
}
