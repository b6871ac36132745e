// Package selector proposes candidate events worth classifying against
// a source event. The pipeline optimizes for recall within a cost
// budget: the classifier, not this stage, makes the final relevance
// call.
package selector

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/tbracken/newsgraph/internal/embedding"
	"github.com/tbracken/newsgraph/internal/logging"
	"github.com/tbracken/newsgraph/internal/models"
	"github.com/tbracken/newsgraph/internal/store"
)

// Embedder provides a vector for an event, keyed by its id
type Embedder interface {
	EmbedKeyed(ctx context.Context, key, text string) ([]float64, error)
}

// categoryAdjacency lists categories known to interact. Events in
// adjacent categories pass the overlap stage even without a shared
// entity. Symmetric closure is applied at lookup.
var categoryAdjacency = map[string][]string{
	"trade-policy":  {"agriculture", "manufacturing", "automotive", "technology"},
	"technology":    {"finance", "manufacturing", "telecommunications"},
	"energy":        {"transportation", "manufacturing", "utilities"},
	"finance":       {"real-estate", "retail"},
	"regulation":    {"healthcare", "pharmaceuticals", "finance", "technology"},
	"geopolitics":   {"energy", "defense", "trade-policy"},
	"agriculture":   {"retail"},
	"manufacturing": {"transportation"},
}

// Selector implements the candidate selection pipeline:
// temporal window -> entity/category overlap -> similarity ranking.
type Selector struct {
	store    *store.EventStore
	embedder Embedder

	window time.Duration
	logger *logging.Logger
}

// New creates a candidate selector. embedder may be nil, in which case
// ranking always uses the entity-overlap fallback.
func New(eventStore *store.EventStore, embedder Embedder, window time.Duration) *Selector {
	return &Selector{
		store:    eventStore,
		embedder: embedder,
		window:   window,
		logger:   logging.GetLogger("selector"),
	}
}

type scoredCandidate struct {
	id           string
	similarity   float64
	entityShared int
	temporalDist time.Duration
}

// SelectCandidates returns up to maxCandidates event ids ordered by
// relevance to the source event. The result is deterministic for an
// unchanged pool and embeddings, and never contains the source itself.
func (s *Selector) SelectCandidates(ctx context.Context, event *models.Event, maxCandidates int) ([]string, error) {
	if maxCandidates < 1 {
		return nil, models.NewValidationError("maxCandidates must be at least 1, got %d", maxCandidates)
	}

	sourceEntities := entitySet(event)
	var pool []scoredCandidate
	for _, other := range s.store.All() {
		if other.ID == event.ID {
			continue
		}

		// Stage 1: temporal window. Symmetric to also catch
		// mis-ordered reporting.
		dist := event.Timestamp.Sub(other.Timestamp)
		if dist < 0 {
			dist = -dist
		}
		if dist > s.window {
			continue
		}

		// Stage 2: entity overlap or category adjacency
		shared := sharedEntities(sourceEntities, other)
		if shared == 0 && !categoriesInteract(event.Category, other.Category) {
			continue
		}

		pool = append(pool, scoredCandidate{
			id:           other.ID,
			entityShared: shared,
			temporalDist: dist,
		})
	}

	if len(pool) == 0 {
		return nil, nil
	}

	// Stage 3: similarity ranking against the source vector. If the
	// source embedding is unavailable, fall back to entity-overlap
	// ranking; candidates are never silently dropped.
	useSimilarity := false
	var sourceVec []float64
	if s.embedder != nil {
		vec, err := s.embedder.EmbedKeyed(ctx, event.ID, event.EmbeddingText())
		if err != nil {
			s.logger.WarnWithFields("embedding unavailable, using entity-overlap ranking",
				logging.Field("event_id", event.ID),
				logging.Field("error", err.Error()),
			)
		} else {
			sourceVec = vec
			useSimilarity = true
		}
	}

	if useSimilarity {
		for i := range pool {
			candidate, _ := s.store.Get(pool[i].id)
			vec, err := s.embedder.EmbedKeyed(ctx, candidate.ID, candidate.EmbeddingText())
			if err != nil {
				// Missing candidate vector scores 0; it still ranks by
				// the deterministic tie-breaks below.
				s.logger.Debug("no embedding for candidate %s: %v", candidate.ID, err)
				continue
			}
			pool[i].similarity = embedding.Cosine(sourceVec, vec)
		}
		sort.Slice(pool, func(i, j int) bool {
			if pool[i].similarity != pool[j].similarity {
				return pool[i].similarity > pool[j].similarity
			}
			if pool[i].temporalDist != pool[j].temporalDist {
				return pool[i].temporalDist < pool[j].temporalDist
			}
			return pool[i].id < pool[j].id
		})
	} else {
		sort.Slice(pool, func(i, j int) bool {
			if pool[i].entityShared != pool[j].entityShared {
				return pool[i].entityShared > pool[j].entityShared
			}
			if pool[i].temporalDist != pool[j].temporalDist {
				return pool[i].temporalDist < pool[j].temporalDist
			}
			return pool[i].id < pool[j].id
		})
	}

	if len(pool) > maxCandidates {
		pool = pool[:maxCandidates]
	}
	ids := make([]string, len(pool))
	for i, c := range pool {
		ids[i] = c.id
	}
	return ids, nil
}

func entitySet(event *models.Event) map[string]struct{} {
	set := make(map[string]struct{})
	for _, ent := range event.NormalizedEntities() {
		set[ent] = struct{}{}
	}
	return set
}

func sharedEntities(source map[string]struct{}, other *models.Event) int {
	shared := 0
	for _, ent := range other.NormalizedEntities() {
		if _, ok := source[ent]; ok {
			shared++
		}
	}
	return shared
}

func categoriesInteract(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	for _, adj := range categoryAdjacency[a] {
		if adj == b {
			return true
		}
	}
	for _, adj := range categoryAdjacency[b] {
		if adj == a {
			return true
		}
	}
	return false
}
