// Package relcache stores classified relationships keyed by ordered
// event pair. It deduplicates classifier output, bounds external call
// volume via TTL freshness checks, and feeds graph construction.
package relcache

import (
	"sort"
	"sync"
	"time"

	"github.com/tbracken/newsgraph/internal/models"
)

type pairKey struct {
	source string
	target string
}

// Cache is the deduplicated relationship store. Keying is by ordered
// pair: (a,b) and (b,a) are logically distinct entries. Writes are
// atomic per relationship; the last completed write wins.
type Cache struct {
	mu      sync.RWMutex
	entries map[pairKey]models.Relationship
	ttl     time.Duration
}

// New creates a relationship cache with the given entry TTL
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[pairKey]models.Relationship),
		ttl:     ttl,
	}
}

// Get returns the cached relationship for the ordered pair, or false
func (c *Cache) Get(sourceID, targetID string) (models.Relationship, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rel, ok := c.entries[pairKey{sourceID, targetID}]
	return rel, ok
}

// Put validates and stores a relationship, overwriting any existing
// entry for the same ordered pair. Invalid relationships are rejected,
// never clamped or partially stored.
func (c *Cache) Put(rel models.Relationship) error {
	if err := rel.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[pairKey{rel.SourceID, rel.TargetID}] = rel
	return nil
}

// Delete removes the entry for the ordered pair, if present
func (c *Cache) Delete(sourceID, targetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, pairKey{sourceID, targetID})
}

// Fresh reports whether the ordered pair has a cached entry that has
// not yet passed its TTL at the given instant. The classifier adapter
// uses this to skip pairs that do not need re-classification.
func (c *Cache) Fresh(sourceID, targetID string, now time.Time) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rel, ok := c.entries[pairKey{sourceID, targetID}]
	if !ok {
		return false
	}
	return now.Sub(rel.DiscoveredAt) < c.ttl
}

// ExpiredEntries returns every relationship whose TTL has passed at
// the given instant, sorted by (source, target) for deterministic
// refresh scheduling.
func (c *Cache) ExpiredEntries(now time.Time) []models.Relationship {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []models.Relationship
	for _, rel := range c.entries {
		if now.Sub(rel.DiscoveredAt) >= c.ttl {
			out = append(out, rel)
		}
	}
	sortRelationships(out)
	return out
}

// Snapshot returns a point-in-time copy of every cached relationship,
// sorted by (source, target). Graph construction reads this; traversals
// over the result tolerate edges committed afterwards being missed.
func (c *Cache) Snapshot() []models.Relationship {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Relationship, 0, len(c.entries))
	for _, rel := range c.entries {
		out = append(out, rel)
	}
	sortRelationships(out)
	return out
}

// Len returns the number of cached relationships
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func sortRelationships(rels []models.Relationship) {
	sort.Slice(rels, func(i, j int) bool {
		if rels[i].SourceID != rels[j].SourceID {
			return rels[i].SourceID < rels[j].SourceID
		}
		return rels[i].TargetID < rels[j].TargetID
	})
}
