package graph

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbracken/newsgraph/internal/models"
)

// knownEvents is a minimal EventChecker backed by a set
type knownEvents map[string]struct{}

func (k knownEvents) Has(id string) bool {
	_, ok := k[id]
	return ok
}

func rel(source, target string, rt models.RelationType, confidence float64) models.Relationship {
	return models.Relationship{
		SourceID:     source,
		TargetID:     target,
		Type:         rt,
		Confidence:   confidence,
		Explanation:  "test",
		DiscoveredAt: time.Now(),
	}
}

func TestEdgeRoundTrip(t *testing.T) {
	g := New(nil, time.Hour)

	inserted := rel("a", "b", models.RelationCauses, 0.8)
	require.NoError(t, g.AddRelationship(inserted))

	got, ok := g.Edge("a", "b")
	require.True(t, ok)
	assert.Equal(t, inserted, got)

	// Reverse direction is unaffected
	_, ok = g.Edge("b", "a")
	assert.False(t, ok)
}

func TestAddOverwritesOrderedPair(t *testing.T) {
	g := New(nil, time.Hour)

	require.NoError(t, g.AddRelationship(rel("a", "b", models.RelationCauses, 0.8)))
	updated := rel("a", "b", models.RelationImpactsFinance, 0.4)
	require.NoError(t, g.AddRelationship(updated))

	got, ok := g.Edge("a", "b")
	require.True(t, ok)
	assert.Equal(t, models.RelationImpactsFinance, got.Type)
	assert.Equal(t, 1, g.EdgeCount())
}

func TestAddRejectsInvalidRelationship(t *testing.T) {
	g := New(nil, time.Hour)

	err := g.AddRelationship(rel("a", "a", models.RelationCauses, 0.8))
	require.Error(t, err)
	assert.True(t, models.IsValidationError(err))
	assert.Equal(t, 0, g.EdgeCount())
}

func TestNeighborsDirections(t *testing.T) {
	g := New(nil, time.Hour)
	require.NoError(t, g.AddRelationship(rel("a", "b", models.RelationCauses, 0.8)))
	require.NoError(t, g.AddRelationship(rel("a", "c", models.RelationImpactsFinance, 0.7)))
	require.NoError(t, g.AddRelationship(rel("d", "a", models.RelationCauses, 0.9)))

	out := g.Neighbors("a", DirectionOut)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].TargetID)
	assert.Equal(t, "c", out[1].TargetID)

	in := g.Neighbors("a", DirectionIn)
	require.Len(t, in, 1)
	assert.Equal(t, "d", in[0].SourceID)

	both := g.Neighbors("a", DirectionBoth)
	assert.Len(t, both, 3)

	assert.Equal(t, 3, g.Degree("a"))
	assert.Equal(t, 1, g.Degree("b"))
}

func TestPendingEdgeResolution(t *testing.T) {
	events := knownEvents{"a": {}}
	g := New(events, time.Hour)

	err := g.AddRelationship(rel("a", "b", models.RelationCauses, 0.8))
	require.Error(t, err)
	assert.True(t, models.IsGraphConsistencyError(err))
	assert.Equal(t, 0, g.EdgeCount())
	assert.Equal(t, 1, g.PendingCount())

	// Event b arrives; the parked edge is replayed
	events["b"] = struct{}{}
	inserted := g.ResolvePending(time.Now())
	assert.Equal(t, 1, inserted)
	assert.Equal(t, 0, g.PendingCount())

	_, ok := g.Edge("a", "b")
	assert.True(t, ok)
}

func TestPendingEdgeDiscardedAfterTTL(t *testing.T) {
	events := knownEvents{"a": {}}
	g := New(events, time.Hour)

	err := g.AddRelationship(rel("a", "missing", models.RelationCauses, 0.8))
	require.Error(t, err)

	// Event never arrives; past the deadline the edge is dropped
	inserted := g.ResolvePending(time.Now().Add(2 * time.Hour))
	assert.Equal(t, 0, inserted)
	assert.Equal(t, 0, g.PendingCount())
	assert.Equal(t, 0, g.EdgeCount())
}

func TestRemoveEdge(t *testing.T) {
	g := New(nil, time.Hour)
	require.NoError(t, g.AddRelationship(rel("a", "b", models.RelationCauses, 0.8)))

	g.RemoveEdge("a", "b")
	_, ok := g.Edge("a", "b")
	assert.False(t, ok)
	assert.Equal(t, 0, g.NodeCount())

	// Removing again is a no-op
	g.RemoveEdge("a", "b")
}

func TestStatsAndHistogram(t *testing.T) {
	g := New(nil, time.Hour)
	require.NoError(t, g.AddRelationship(rel("a", "b", models.RelationCauses, 0.8)))
	require.NoError(t, g.AddRelationship(rel("b", "c", models.RelationCauses, 0.7)))
	require.NoError(t, g.AddRelationship(rel("c", "d", models.RelationImpactsFinance, 0.6)))

	assert.Equal(t, 4, g.NodeCount())
	assert.Equal(t, 3, g.EdgeCount())

	hist := g.TypeHistogram()
	assert.Equal(t, 2, hist[models.RelationCauses])
	assert.Equal(t, 1, hist[models.RelationImpactsFinance])
}

func TestSnapshotIsDetached(t *testing.T) {
	g := New(nil, time.Hour)
	require.NoError(t, g.AddRelationship(rel("a", "b", models.RelationCauses, 0.8)))

	snap := g.Snapshot()
	require.NoError(t, g.AddRelationship(rel("b", "c", models.RelationCauses, 0.9)))

	// The snapshot misses the edge committed after it was taken
	_, ok := snap.Edge("b", "c")
	assert.False(t, ok)
	_, ok = snap.Edge("a", "b")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, snap.NodeIDs())
}
