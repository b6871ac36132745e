// Package store provides the in-memory indexed event store. It owns
// every ingested event for its lifetime; all other components reference
// events by id.
package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/tbracken/newsgraph/internal/models"
)

// EventStore is an in-memory collection of events with secondary
// indexes for entity and title lookups. Safe for concurrent use.
type EventStore struct {
	mu       sync.RWMutex
	events   map[string]*models.Event
	byEntity map[string][]string // normalized entity -> event ids
}

// NewEventStore creates an empty event store
func NewEventStore() *EventStore {
	return &EventStore{
		events:   make(map[string]*models.Event),
		byEntity: make(map[string][]string),
	}
}

// Add validates and inserts an event. Duplicate ids are rejected:
// ingestion guarantees uniqueness, so a duplicate is a caller bug.
func (s *EventStore) Add(event *models.Event) error {
	if err := event.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[event.ID]; exists {
		return models.NewValidationError("duplicate event id %q", event.ID)
	}

	s.events[event.ID] = event
	for _, entity := range event.NormalizedEntities() {
		s.byEntity[entity] = append(s.byEntity[entity], event.ID)
	}
	return nil
}

// Get returns the event with the given id, or false if absent
func (s *EventStore) Get(id string) (*models.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.events[id]
	return event, ok
}

// Has reports whether an event with the given id exists
func (s *EventStore) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.events[id]
	return ok
}

// Len returns the number of stored events
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// All returns every event sorted by id for deterministic iteration
func (s *EventStore) All() []*models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Event, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ByEntity returns the ids of events mentioning the given entity
// (case-insensitive), sorted for determinism.
func (s *EventStore) ByEntity(entity string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byEntity[strings.ToLower(strings.TrimSpace(entity))]
	out := make([]string, len(ids))
	copy(out, ids)
	sort.Strings(out)
	return out
}

// Resolve maps a user-supplied query to an event. An exact id match
// wins; otherwise the first case-insensitive title-substring match in
// id order is returned. Returns false when nothing matches - absence
// is not an error.
func (s *EventStore) Resolve(query string) (*models.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if event, ok := s.events[query]; ok {
		return event, true
	}

	needle := strings.ToLower(query)
	var best *models.Event
	for _, event := range s.events {
		if strings.Contains(strings.ToLower(event.Title), needle) {
			if best == nil || event.ID < best.ID {
				best = event
			}
		}
	}
	return best, best != nil
}
